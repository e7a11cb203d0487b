package response

import (
	"github.com/gin-gonic/gin"
)

// Details carries validation failures. FormErrors is always present so
// clients can rely on the shape.
type Details struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Response is the JSON envelope of every /api endpoint.
type Response struct {
	OK        bool     `json:"ok"`
	ID        string   `json:"id,omitempty"`
	Error     string   `json:"error,omitempty"`
	Message   string   `json:"message,omitempty"`
	Details   *Details `json:"details,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get("RequestID")
	idStr, _ := reqID.(string)
	return idStr
}

// Success sends {ok:true, id}.
func Success(c *gin.Context, code int, id string) {
	c.JSON(code, Response{
		OK:        true,
		ID:        id,
		RequestID: requestID(c),
	})
}

// Error sends {ok:false, error, message?}.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		OK:        false,
		Error:     errCode,
		Message:   message,
		RequestID: requestID(c),
	})
}

// ValidationError sends {ok:false, error, details:{fieldErrors}}.
func ValidationError(c *gin.Context, code int, errCode string, fieldErrors map[string][]string) {
	c.JSON(code, Response{
		OK:    false,
		Error: errCode,
		Details: &Details{
			FormErrors:  []string{},
			FieldErrors: fieldErrors,
		},
		RequestID: requestID(c),
	})
}
