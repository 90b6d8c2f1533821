package generichttp

import "errors"

var (
	// ErrInvalidAddress is returned when the endpoint is not an absolute http URI.
	ErrInvalidAddress = errors.New("invalid telemetry endpoint address")

	// ErrTransport is returned when the state request fails at the connection
	// level or the endpoint answers with a non-2xx status.
	ErrTransport = errors.New("telemetry endpoint unreachable")

	// ErrDecode is returned when the response body is not a JSON object of the
	// expected shape.
	ErrDecode = errors.New("telemetry payload not decodable")
)
