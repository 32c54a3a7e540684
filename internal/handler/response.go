package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// ContextActor is the context key the auth middleware stores the resolved
// caller under.
const ContextActor = "actor"

// Actor returns the authenticated caller, or an error if the middleware
// did not run on this route.
func Actor(c *gin.Context) (*model.Actor, error) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil, apperrors.Unauthenticated("not authenticated")
	}
	actor, ok := v.(*model.Actor)
	if !ok {
		return nil, apperrors.Unauthenticated("not authenticated")
	}
	return actor, nil
}

// PathUUID parses a :id style route parameter.
func PathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid " + name)
	}
	return id, nil
}

// Error records the error for the error-handling middleware to render.
func Error(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}
