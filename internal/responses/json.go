package responses

import "github.com/gin-gonic/gin"

// APIResponse is the envelope of every JSON answer.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	c.JSON(statusCode, failure(err, message))
}

// Abort writes a failure and stops the handler chain.
func Abort(c *gin.Context, statusCode int, err error, message string) {
	c.AbortWithStatusJSON(statusCode, failure(err, message))
}

func failure(err error, message string) APIResponse {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
