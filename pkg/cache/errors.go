package cache

import "errors"

// ErrNetwork is reported for HTTP transport failures (timeouts, connection
// errors) by clients that cache their lookups through this package.
//
// Status-carrying API failures are not ErrNetwork; those get typed errors in
// the client packages. No retry machinery lives here: in this system retry
// pressure comes from the compile-fix loop re-resolving on the next attempt,
// never from the transport layer.
var ErrNetwork = errors.New("network error")
