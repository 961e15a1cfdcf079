package leap

import "errors"

// Domain errors for the leap package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrBadCredentials is returned when the PEM credential bundle cannot
	// be parsed into a usable TLS configuration.
	ErrBadCredentials = errors.New("leap: bad credentials")

	// ErrDialFailed is returned when the TCP connection cannot be established.
	ErrDialFailed = errors.New("leap: dial failed")

	// ErrHandshakeFailed is returned when TLS negotiation or certificate
	// verification fails.
	ErrHandshakeFailed = errors.New("leap: TLS handshake failed")

	// ErrBadStatus is returned when a response carries a non-2xx status code.
	ErrBadStatus = errors.New("leap: bad response status")

	// ErrClosed is returned for operations on a closed session.
	ErrClosed = errors.New("leap: session closed")
)
