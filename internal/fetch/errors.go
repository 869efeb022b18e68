package fetch

import "errors"

// Recoverable errors convert into "try the next option" at the driver
// level; only ErrAllMirrorsExhausted surfaces to callers.
var (
	// ErrMirrorUnreachable covers network failures, timeouts and non-2xx
	// responses while probing or fetching from one mirror.
	ErrMirrorUnreachable = errors.New("mirror unreachable")

	// ErrRangeNotSupported means the server reported no usable content
	// length or no byte-range support; the streaming fetcher takes over.
	ErrRangeNotSupported = errors.New("range requests are not supported")

	// ErrPartialTransfer means the assembled byte count did not match the
	// expected total. Partial files are never accepted as success.
	ErrPartialTransfer = errors.New("partial transfer")

	// ErrAllMirrorsExhausted means every mirror and strategy combination
	// failed for a fetch operation.
	ErrAllMirrorsExhausted = errors.New("all mirrors exhausted")
)
