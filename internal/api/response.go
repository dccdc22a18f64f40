package api

import (
	"github.com/fuyanik/user-management-case/internal/validation"
	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON response
type Response struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    any                     `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string, errs []validation.FieldError) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message, Errors: errs})
}
