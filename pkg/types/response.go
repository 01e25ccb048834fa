package types

// SuccessEnvelope is the wire shape for every successful API response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError carries the client-facing error code and message; Details is only
// populated for codes that allow field-level detail (validation, idempotency).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the wire shape for every failed API response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
