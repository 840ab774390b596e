package response

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Response is the JSON envelope every endpoint returns
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorData describes a failed request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta carries pagination details for list endpoints
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success wraps data in a successful envelope
func Success(data interface{}) *Response {
	return &Response{Success: true, Data: data}
}

// Paginated wraps a page of data with its pagination meta
func Paginated(data interface{}, page, perPage int, total int64) *Response {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// Error builds an error envelope
func Error(code, message string) *Response {
	return &Response{
		Success: false,
		Error:   &ErrorData{Code: code, Message: message},
	}
}

func BadRequest(message string) *Response {
	return Error(ErrCodeBadRequest, message)
}

func ValidationError(message string) *Response {
	return Error(ErrCodeValidation, message)
}

func Unauthorized(message string) *Response {
	return Error(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *Response {
	return Error(ErrCodeForbidden, message)
}

func NotFound(message string) *Response {
	return Error(ErrCodeNotFound, message)
}

func ServiceUnavailable(message string) *Response {
	return Error(ErrCodeServiceUnavailable, message)
}

// InternalError hides the underlying error from the client
func InternalError(message string) *Response {
	if message == "" {
		message = "Internal Server Error"
	}
	return Error(ErrCodeInternal, message)
}
