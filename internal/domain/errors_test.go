package domain

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trailway/trailway/internal/classify"
)

func TestConstructorsClassifyAsExpected(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind classify.Kind
		code int
	}{
		{"validation", NewValidationError("bad input", map[string]string{"email": "required"}), classify.KindValidation, http.StatusBadRequest},
		{"business", NewBusinessError("duplicate order", "DUPLICATE"), classify.KindBusiness, http.StatusConflict},
		{"not found", NewNotFoundError("no such widget"), classify.KindNotFound, http.StatusNotFound},
		{"unauthorized", NewUnauthorizedError("login required"), classify.KindAuthorization, http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("not yours"), classify.KindAuthorization, http.StatusForbidden},
		{"http", NewHTTPError("upstream unavailable", http.StatusBadGateway), classify.KindHTTP, http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, classify.Classify(tc.err))
			assert.Equal(t, tc.code, classify.StatusCode(tc.err))
			assert.True(t, tc.err.IsOperational())
		})
	}
}

func TestErrorInterface(t *testing.T) {
	err := NewBusinessError("duplicate order", "DUPLICATE")
	assert.Equal(t, "duplicate order", err.Error())
	assert.Equal(t, "BusinessError", err.ErrorName())
}
