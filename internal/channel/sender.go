package channel

import "context"

// Sender is the uniform send capability one provider adapter implements
// for one channel type.
type Sender interface {
	// Type reports the channel type this sender serves.
	Type() Type

	// Validate reports whether the payload carries the minimum fields
	// this channel needs (recipient, content, configured sender
	// address). Pure, no I/O.
	Validate(payload Payload) error

	// Send performs the provider call. Provider and transport failures
	// come back as Result{Success: false}; the error budget of the
	// network never escapes the adapter.
	Send(ctx context.Context, payload Payload) Result
}
