package channel

// Delegate receives inbound traffic for a Channel: requests and
// unstructured messages from Vim, and replies to commands this process
// previously sent.
type Delegate interface {
	// OnMessage is called for a Vim-originated request (id > 0) or an
	// unstructured message (id == 0). Implementations reply with
	// Channel.RespondTo when msg.ID > 0; a reply to an id-0 message has
	// nowhere to go and is ignored by Vim.
	OnMessage(ch *Channel, msg Message)

	// OnResponseToCommand is called when Vim replies to a command this
	// process sent with an id (Channel.Send with an ExprCommand or
	// CallCommand carrying an id). cmd is the original command.
	OnResponseToCommand(ch *Channel, resp Message, cmd Command)
}

// BackpressureDelegate is an optional extension to Delegate. A socket
// backend that cannot accept more buffered writes reports it here instead
// of growing its write buffer without bound.
type BackpressureDelegate interface {
	OnBackpressure(ch *Channel, err error)
}
