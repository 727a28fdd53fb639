package pve

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired = errors.New("config is required")
	ErrHostRequired   = errors.New("host is required")
	ErrUnknownVerb    = errors.New("unknown HTTP verb")
)

// ErrorKind partitions classified errors by status code. Named kinds exist
// for the common codes; unmapped codes fall back to the client/server
// family kinds, and non-error codes to the generic kind.
type ErrorKind string

const (
	ErrorKindGeneric             ErrorKind = "generic"
	ErrorKindBadRequest          ErrorKind = "bad_request"
	ErrorKindUnauthorized        ErrorKind = "unauthorized"
	ErrorKindForbidden           ErrorKind = "forbidden"
	ErrorKindNotFound            ErrorKind = "not_found"
	ErrorKindUnprocessableEntity ErrorKind = "unprocessable_entity"
	ErrorKindInternalServerError ErrorKind = "internal_server_error"
	ErrorKindServiceUnavailable  ErrorKind = "service_unavailable"
	ErrorKindClientError         ErrorKind = "client_error"
	ErrorKindServerError         ErrorKind = "server_error"
)

// KindForStatus maps a status code onto its error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case 400:
		return ErrorKindBadRequest
	case 401:
		return ErrorKindUnauthorized
	case 403:
		return ErrorKindForbidden
	case 404:
		return ErrorKindNotFound
	case 422:
		return ErrorKindUnprocessableEntity
	case 500:
		return ErrorKindInternalServerError
	case 503:
		return ErrorKindServiceUnavailable
	}

	switch {
	case status >= 400 && status < 500:
		return ErrorKindClientError
	case status >= 500 && status < 600:
		return ErrorKindServerError
	default:
		return ErrorKindGeneric
	}
}

// APIError represents a classified error response from the PVE API. It
// always carries the original Response for caller inspection.
type APIError struct {
	Status   int
	Kind     ErrorKind
	Message  string
	Response *Response
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// IsClient reports whether the error belongs to the 4xx family.
func (e *APIError) IsClient() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsServer reports whether the error belongs to the 5xx family.
func (e *APIError) IsServer() bool {
	return e.Status >= 500 && e.Status < 600
}

// NewAPIError builds a classified error with a caller-supplied message.
func NewAPIError(resp *Response, message string) *APIError {
	return &APIError{
		Status:   resp.StatusCode,
		Kind:     KindForStatus(resp.StatusCode),
		Message:  message,
		Response: resp,
	}
}

// FromResponse builds a classified error from a response. The message
// starts with "HTTP {status}" and appends the server-declared message and
// per-field validation details (in document order) when the body parses as
// an error envelope. An absent or unparseable body degrades to the bare
// status message, or to "{defaultMessage} (HTTP {status})" when a default
// was supplied and nothing could be extracted.
func FromResponse(resp *Response, defaultMessage string) *APIError {
	message := fmt.Sprintf("HTTP %d", resp.StatusCode)
	extracted := false

	if len(bytes.TrimSpace(resp.Body)) > 0 {
		serverMessage, fields, parsed := parseErrorBody(resp.Body)
		if parsed {
			if serverMessage != "" {
				message += " - " + serverMessage
				extracted = true
			}

			if len(fields) > 0 {
				details := make([]string, 0, len(fields))
				for _, field := range fields {
					details = append(details, field.name+": "+field.detail)
				}

				message += " - (" + strings.Join(details, ", ") + ")"
				extracted = true
			}
		}
	}

	if !extracted && defaultMessage != "" {
		message = fmt.Sprintf("%s (HTTP %d)", defaultMessage, resp.StatusCode)
	}

	return NewAPIError(resp, message)
}

// AuthenticationError reports a construction-time ticket failure. It wraps
// the classified API error produced by the access/ticket response.
type AuthenticationError struct {
	APIErr *APIError
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return e.APIErr.Message
}

// Unwrap exposes the underlying classified error to errors.As.
func (e *AuthenticationError) Unwrap() error {
	return e.APIErr
}

// IsAuthenticationError checks if the error is a construction-time
// authentication failure.
func IsAuthenticationError(err error) bool {
	authErr := &AuthenticationError{}

	return errors.As(err, &authErr)
}

// IsBadRequest checks if the error is a 400 error.
func IsBadRequest(err error) bool {
	return kindOf(err) == ErrorKindBadRequest
}

// IsUnauthorized checks if the error is a 401 error.
func IsUnauthorized(err error) bool {
	return kindOf(err) == ErrorKindUnauthorized
}

// IsForbidden checks if the error is a 403 error.
func IsForbidden(err error) bool {
	return kindOf(err) == ErrorKindForbidden
}

// IsNotFound checks if the error is a 404 error.
func IsNotFound(err error) bool {
	return kindOf(err) == ErrorKindNotFound
}

// IsUnprocessable checks if the error is a 422 error.
func IsUnprocessable(err error) bool {
	return kindOf(err) == ErrorKindUnprocessableEntity
}

// IsClientError checks if the error belongs to the 4xx family, mapped or not.
func IsClientError(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.IsClient()
	}

	return false
}

// IsServerError checks if the error belongs to the 5xx family, mapped or not.
func IsServerError(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.IsServer()
	}

	return false
}

func kindOf(err error) ErrorKind {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return ""
}

var errMalformedErrorBody = errors.New("malformed error body")

type errorField struct {
	name   string
	detail string
}

// parseErrorBody extracts the message and errors fields from an error
// envelope. The errors object is walked with a token decoder because map
// decoding would lose the document order of the fields.
func parseErrorBody(body []byte) (string, []errorField, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return "", nil, false
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", nil, false
	}

	var (
		message string
		fields  []errorField
	)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", nil, false
		}

		key, ok := keyTok.(string)
		if !ok {
			return "", nil, false
		}

		switch key {
		case "message":
			var value string
			if err := dec.Decode(&value); err != nil {
				return "", nil, false
			}

			message = value
		case "errors":
			parsed, err := parseErrorFields(dec)
			if err != nil {
				return "", nil, false
			}

			fields = parsed
		default:
			var skipped json.RawMessage
			if err := dec.Decode(&skipped); err != nil {
				return "", nil, false
			}
		}
	}

	return message, fields, true
}

// parseErrorFields consumes the value following an "errors" key. Only an
// object contributes fields; any other shape is skipped.
func parseErrorFields(dec *json.Decoder) ([]errorField, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading errors value: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// Scalar value, already consumed.
		return nil, nil
	}

	if delim != '{' {
		return nil, skipCompound(dec)
	}

	var fields []errorField

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading errors key: %w", err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, errMalformedErrorBody
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("reading errors detail: %w", err)
		}

		fields = append(fields, errorField{name: key, detail: detailString(raw)})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("closing errors object: %w", err)
	}

	return fields, nil
}

// skipCompound consumes the remainder of an already-opened array or object.
func skipCompound(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("skipping errors value: %w", err)
		}

		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}

	return nil
}

func detailString(raw json.RawMessage) string {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return strings.TrimSpace(string(raw))
	}

	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}

	return strings.TrimSpace(string(raw))
}
