// Package channel implements the client side of Vim's JSON channel
// protocol: a transport-agnostic backend abstraction (TCP socket or the
// process's own stdin/stdout), a framing/dispatch state machine, and a
// Channel facade that a host process uses to receive requests from a
// running Vim instance, reply to them, and send Vim commands of its own
// (redraw, ex, normal, expr, call) with reply correlation by negative id.
//
// The wire protocol, state machines, and concurrency guarantees are
// described in the package's accompanying specification; this package does
// not implement HTTP, TLS, authentication, or any framing other than Vim's
// self-framing JSON-array messages.
package channel
