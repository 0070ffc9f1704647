package channel

import "errors"

// ErrMisconfigured marks an adapter constructed without its required
// provider credentials. It surfaces at process start, not at send time.
var ErrMisconfigured = errors.New("adapter credentials not configured")
