package rpc

import "errors"

var (
	ErrServerStartFailed       = errors.New("rpc: failed to start server")
	ErrServerStopFailed        = errors.New("rpc: failed to stop server")
	ErrHandlerNotSet           = errors.New("rpc: handler not set")
	ErrMessageMarshalFailed    = errors.New("rpc: failed to marshal message")
	ErrHTTPRequestCreateFailed = errors.New("rpc: failed to create http request")
	ErrHTTPRequestSendFailed   = errors.New("rpc: failed to send http request")
	ErrHTTPResponseReadFailed  = errors.New("rpc: failed to read http response")
	ErrHTTPBodyReadFailed      = errors.New("rpc: failed to read http request body")
	ErrInvalidJSON             = errors.New("rpc: invalid JSON in request")
	ErrMissingRequiredFields   = errors.New("rpc: missing required fields in request")
)

// RemoteError wraps a non-OK Response so callers can distinguish "the
// remote peer ran the handler and rejected the call" from a transport
// failure, for code paths that want the rejection as a Go error rather
// than a Response to inspect.
type RemoteError struct {
	Code StatusCode
	Body []byte
}

func (e *RemoteError) Error() string {
	names := map[StatusCode]string{
		CodeOK:          "OK",
		CodeBadRequest:  "BadRequest",
		CodeNotFound:    "NotFound",
		CodeInternal:    "Internal",
		CodeUnavailable: "Unavailable",
	}
	name, ok := names[e.Code]
	if !ok {
		name = "Unknown"
	}
	return "rpc: remote call failed with code " + name
}
