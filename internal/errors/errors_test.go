package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkSurvivesWrapping(t *testing.T) {
	err := NewError("milestone not found").
		WithHint("Milestone not found").
		WithReportableDetails(map[string]interface{}{"milestone_id": "ms_1"}).
		Mark(ErrNotFound)

	wrapped := fmt.Errorf("recognize: %w", err)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, "ms_1", GetReportableDetails(wrapped)["milestone_id"])
	assert.Contains(t, wrapped.Error(), "milestone not found")
}

func TestWithErrorRemark(t *testing.T) {
	base := NewError("duplicate key").Mark(ErrDatabase)
	err := WithError(base).
		WithHint("Deferred revenue already open for invoice").
		Mark(ErrAlreadyExists)

	assert.True(t, IsAlreadyExists(err))
	assert.True(t, IsDatabase(err))
}

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewError("bad").Mark(ErrValidation), http.StatusBadRequest},
		{"not found", NewError("missing").Mark(ErrNotFound), http.StatusNotFound},
		{"conflict", NewError("dup").Mark(ErrAlreadyExists), http.StatusConflict},
		{"invalid state", NewError("cancelled").Mark(ErrInvalidOperation), http.StatusUnprocessableEntity},
		{"no-op", NewError("nothing").Mark(ErrNoOp), http.StatusUnprocessableEntity},
		{"cycle", NewError("loop").Mark(ErrCycleDetected), http.StatusBadRequest},
		{"unmarked", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestToErrorResponseUsesHint(t *testing.T) {
	err := NewError("amount exceeds remaining").
		WithHint("Recognition amount cannot exceed the remaining deferred amount").
		Mark(ErrValidation)

	resp := ToErrorResponse(err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Recognition amount cannot exceed the remaining deferred amount", resp.Error.Display)
}
