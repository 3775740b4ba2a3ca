package http

// ErrorKind tags the failure variant of a Descriptor.
type ErrorKind string

const (
	// KindTransport covers DNS, connection, TLS, timeout and malformed URL failures.
	KindTransport ErrorKind = "transport"
	// KindDecode covers bodies that could not be decoded for display.
	KindDecode ErrorKind = "decode"
)

// TransportError is returned when a request could not be completed.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response arrived but its body could not be
// decoded, e.g. invalid JSON under an application/json content type.
type DecodeError struct {
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	return e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func transportError(err error) *TransportError {
	return &TransportError{Message: err.Error(), Err: err}
}
