package types

// SuccessEnvelope wraps every 2xx JSON body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ListPayload is the data of collection endpoints; Items is never null.
type ListPayload[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func NewListPayload[T any](items []T) ListPayload[T] {
	if items == nil {
		items = []T{}
	}
	return ListPayload[T]{Items: items, Total: len(items)}
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
