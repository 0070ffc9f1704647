package gateway

import "errors"

// Gateway error taxonomy. Handlers map these onto HTTP statuses; the
// distinctions matter to the calling UI (wrong address vs. unsupported
// channel vs. provider rejection).
var (
	ErrUnsupportedChannel  = errors.New("unsupported channel")
	ErrContactNotFound     = errors.New("contact not found")
	ErrNoAddressForChannel = errors.New("no contact address for channel")
	ErrNoTeamAvailable     = errors.New("no team available")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrSendFailed          = errors.New("send failed")
	ErrTimeout             = errors.New("provider timed out")
	ErrValidation          = errors.New("invalid request")
	ErrStoreUnavailable    = errors.New("store unavailable")
)
