package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, BadRequest("x").Status())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("x").Status())
	assert.Equal(t, http.StatusForbidden, Forbidden("x").Status())
	assert.Equal(t, http.StatusNotFound, NotFound("x").Status())
	assert.Equal(t, http.StatusConflict, Conflict("x").Status())
	assert.Equal(t, http.StatusInternalServerError, Internal("x").Status())
}

func TestFrom(t *testing.T) {
	err := NotFound("job not found")
	assert.Equal(t, err, From(err))

	// Taxonomy errors survive wrapping.
	wrapped := fmt.Errorf("lookup failed: %w", err)
	assert.Equal(t, err, From(wrapped))

	// Anything else degrades to an opaque internal error.
	plain := From(errors.New("pq: connection refused"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.Equal(t, "something went wrong", plain.Message)
}

func TestValidationDetails(t *testing.T) {
	err := Validation("invalid payload", []FieldError{{Field: "title", Message: "title is required"}})
	assert.Equal(t, CodeBadRequest, err.Code)
	assert.Len(t, err.Details, 1)
	assert.Equal(t, "BAD_REQUEST: invalid payload", err.Error())
}
