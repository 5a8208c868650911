package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta describes a page of run history.
type Meta struct {
	Limit int `json:"limit"`
	Count int `json:"count"`
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SendCreated answers a finished analysis run.
func SendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func SendPage(c *gin.Context, data interface{}, limit, count int) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Limit: limit, Count: count},
	})
}

// SendError aborts the request with the status belonging to err.Code.
func SendError(c *gin.Context, err *AppError) {
	c.AbortWithStatusJSON(err.Status(), Response{Error: err})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, NewAppError(ErrCodeValidation, message, details))
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, NewAppError(ErrCodeNotFound, message))
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, NewAppError(ErrCodeUnauthorized, message))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, NewAppError(ErrCodeInternal, message))
}
