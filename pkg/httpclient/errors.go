package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/shopmesh/pkg/errors"
)

// peerErrorBody accepts the three error shapes found across services:
// {"error": {"code", "message"}}, {"error": "..."} and {"detail": "..."}.
type peerErrorBody struct {
	Error  json.RawMessage `json:"error"`
	Detail string          `json:"detail"`
}

type structuredError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PeerError is a non-2xx answer from a peer. It unwraps to the mapped
// AppError and keeps the raw body for callers that relay it verbatim.
type PeerError struct {
	Status int
	Body   []byte
	err    error
}

func (e *PeerError) Error() string { return e.err.Error() }

func (e *PeerError) Unwrap() error { return e.err }

// ParseResponseError converts a non-2xx response into a *PeerError wrapping
// an AppError that keeps the peer's status code. The body is consumed and
// closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.ServiceUnavailable(serviceName, fmt.Errorf("read error body: %w", err))
	}

	code, message := "", ""
	var parsed peerErrorBody
	if json.Unmarshal(body, &parsed) == nil {
		var se structuredError
		var plain string
		switch {
		case len(parsed.Error) > 0 && json.Unmarshal(parsed.Error, &se) == nil && se.Message != "":
			code, message = se.Code, se.Message
		case len(parsed.Error) > 0 && json.Unmarshal(parsed.Error, &plain) == nil:
			message = plain
		case parsed.Detail != "":
			message = parsed.Detail
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &PeerError{
		Status: resp.StatusCode,
		Body:   body,
		err:    mapPeerError(resp.StatusCode, code, message, serviceName),
	}
}

func mapPeerError(status int, code, message, serviceName string) error {
	switch {
	case status == http.StatusNotFound:
		e := apperrors.NotFound(serviceName, message)
		e.Message = message
		return e
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway, status == http.StatusGatewayTimeout:
		return apperrors.ServiceUnavailable(serviceName, fmt.Errorf("status %d: %s", status, message))
	default:
		return apperrors.Upstream(status, code, message)
	}
}

// TransportError maps a failed round trip to a 503 when the peer was
// unreachable, or wraps it unchanged otherwise.
func TransportError(err error, serviceName string) error {
	if IsUnavailable(err) {
		return apperrors.ServiceUnavailable(serviceName, err)
	}
	return fmt.Errorf("call %s: %w", serviceName, err)
}

// IsClientError returns true for 4xx status codes.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
