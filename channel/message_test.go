package channel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEncode(t *testing.T) {
	m := Message{ID: 3, Body: json.RawMessage(`"hello"`)}
	data, err := m.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `[3,"hello"]`, string(data))
}

func TestMessageEncodeNilBody(t *testing.T) {
	m := Message{ID: 0}
	data, err := m.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `[0,null]`, string(data))
}

func TestDecodeMessageStructuredArray(t *testing.T) {
	msg, err := decodeMessage(json.RawMessage(`[-2, "result"]`))
	require.NoError(t, err)
	assert.Equal(t, -2, msg.ID)
	assert.JSONEq(t, `"result"`, string(msg.Body))
}

func TestDecodeMessageUnstructured(t *testing.T) {
	msg, err := decodeMessage(json.RawMessage(`{"not":"an array"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, msg.ID)
	assert.JSONEq(t, `{"not":"an array"}`, string(msg.Body))
}

func TestDecodeMessageArrayOfWrongLength(t *testing.T) {
	msg, err := decodeMessage(json.RawMessage(`[1, "a", "b"]`))
	require.NoError(t, err)
	assert.Equal(t, 0, msg.ID, "a 3-element array isn't the [id, body] shape, so it's an unstructured message")
}

func TestMessageRoundTrip(t *testing.T) {
	for _, m := range []Message{
		{ID: 7, Body: json.RawMessage(`{"k":1}`)},
		{ID: -4, Body: json.RawMessage(`[1,2,3]`)},
		{ID: 0, Body: json.RawMessage(`"unstructured"`)},
	} {
		data, err := m.Encode()
		require.NoError(t, err)

		var raw json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		got, err := decodeMessage(raw)
		require.NoError(t, err)

		assert.Equal(t, m.ID, got.ID)
		assert.JSONEq(t, string(m.Body), string(got.Body))
	}
}
