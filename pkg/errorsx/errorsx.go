package errorsx

import "errors"

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// Configuration problems, detected before any network activity.
	ReasonConfigMissingKey ReasonCode = "config_missing_key"

	// WebSocket transport failures.
	ReasonWSDial ReasonCode = "ws_dial"
	ReasonWSSend ReasonCode = "ws_send"

	// HTTP transport failures.
	ReasonHTTPRequest ReasonCode = "http_request"
	ReasonHTTPStatus  ReasonCode = "http_status"

	// Server sent an explicit error envelope.
	ReasonProtocol ReasonCode = "protocol"

	// Connection closed before the protocol confirmed completion.
	ReasonSessionAborted ReasonCode = "session_aborted"
)

// ReasonedError wraps an error with a reason code.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Wrap attaches a reason code to an error (no-op if err is nil or already reasoned).
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// Reason extracts a reason code from an error, if present.
func Reason(err error) ReasonCode {
	if err == nil {
		return ReasonUnknown
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

// HasReason returns true if err contains the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
