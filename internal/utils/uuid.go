package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

var ErrInvalidUUID = errors.New("invalid UUID")

func IsValidUUID(value string) bool {
	id, err := uuid.FromString(value)
	return err == nil && id != uuid.Nil
}

// ParseUUIDParam reads a path parameter that must hold a non-nil UUID.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	value := c.Param(name)
	if !IsValidUUID(value) {
		return uuid.Nil, ErrInvalidUUID
	}
	return uuid.FromStringOrNil(value), nil
}
