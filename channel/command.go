package channel

import (
	"encoding/json"
	"fmt"
)

// CommandKind identifies which of the five outgoing Vim commands a Command
// value carries.
type CommandKind int

const (
	CommandRedraw CommandKind = iota
	CommandEx
	CommandNormal
	CommandExpr
	CommandCall
)

func (k CommandKind) String() string {
	switch k {
	case CommandRedraw:
		return "redraw"
	case CommandEx:
		return "ex"
	case CommandNormal:
		return "normal"
	case CommandExpr:
		return "expr"
	case CommandCall:
		return "call"
	default:
		return "unknown"
	}
}

// Command is a tagged union over the five commands this process may send
// to Vim. Construct one with RedrawCommand, ExCommand, NormalCommand,
// ExprCommand, or CallCommand.
type Command struct {
	kind   CommandKind
	forced bool
	text   string
	fn     string
	args   []interface{}
	id     int
	hasID  bool
}

// RedrawCommand requests Vim redraw its screen. A forced redraw repaints
// every window; an unforced one only repaints what Vim already knows is
// dirty.
func RedrawCommand(forced bool) Command {
	return Command{kind: CommandRedraw, forced: forced}
}

// ExCommand runs an Ex command line in Vim.
func ExCommand(text string) Command {
	return Command{kind: CommandEx, text: text}
}

// NormalCommand feeds keystrokes to Vim as though typed in Normal mode.
func NormalCommand(text string) Command {
	return Command{kind: CommandNormal, text: text}
}

// ExprCommand asks Vim to evaluate a Vim expression. Passing an id (via
// Channel.NewCommandID, or any negative int) asks Vim to reply with the
// result; omitting it fires the expression without a reply.
func ExprCommand(expr string, id ...int) Command {
	c := Command{kind: CommandExpr, text: expr}
	if len(id) > 0 {
		c.id, c.hasID = id[0], true
	}
	return c
}

// CallCommand asks Vim to call a function with the given arguments. As with
// ExprCommand, an id requests a reply.
func CallCommand(fn string, args []interface{}, id ...int) Command {
	c := Command{kind: CommandCall, fn: fn, args: args}
	if len(id) > 0 {
		c.id, c.hasID = id[0], true
	}
	return c
}

// ID reports the command's reply-correlation id, if it has one.
func (c Command) ID() (int, bool) { return c.id, c.hasID }

// Kind reports which of the five commands this is.
func (c Command) Kind() CommandKind { return c.kind }

// Encode renders the command as its wire form.
func (c Command) Encode() ([]byte, error) {
	switch c.kind {
	case CommandRedraw:
		arg := ""
		if c.forced {
			arg = "force"
		}
		return json.Marshal([]interface{}{"redraw", arg})
	case CommandEx:
		return json.Marshal([]interface{}{"ex", c.text})
	case CommandNormal:
		return json.Marshal([]interface{}{"normal", c.text})
	case CommandExpr:
		if c.hasID {
			return json.Marshal([]interface{}{"expr", c.text, c.id})
		}
		return json.Marshal([]interface{}{"expr", c.text})
	case CommandCall:
		args := c.args
		if args == nil {
			args = []interface{}{}
		}
		if c.hasID {
			return json.Marshal([]interface{}{"call", c.fn, args, c.id})
		}
		return json.Marshal([]interface{}{"call", c.fn, args})
	default:
		return nil, fmt.Errorf("channel: unknown command kind %d", c.kind)
	}
}
