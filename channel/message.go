package channel

import "encoding/json"

// Message is one frame of the wire protocol: a two-element JSON array
// `[id, body]`. id > 0 identifies a request Vim expects a reply to; id < 0
// correlates a reply to a command this process previously sent; id == 0
// marks an unstructured or non-correlating message.
type Message struct {
	ID   int
	Body json.RawMessage
}

// Encode renders the message as its wire form, `[id, body]`.
func (m Message) Encode() ([]byte, error) {
	body := m.Body
	if body == nil {
		body = json.RawMessage("null")
	}
	return json.Marshal([]interface{}{m.ID, body})
}

// decodeMessage parses a single decoded JSON value into a Message. When the
// value is a two-element array whose first element is an integer, that
// shape is honored as [id, body]; any other shape is treated as an
// unstructured message with id 0 and the whole value as its body.
func decodeMessage(raw json.RawMessage) (Message, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 2 {
		var id int
		if err := json.Unmarshal(arr[0], &id); err == nil {
			return Message{ID: id, Body: arr[1]}, nil
		}
	}
	return Message{ID: 0, Body: raw}, nil
}
