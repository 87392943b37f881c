package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrors_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"no match", &NoMatchError{Group: "B", Observations: 3}, []string{"NO_MATCH", `"B"`, "3 observations"}},
		{"arity", &ArityMismatchError{Operation: "AddModelOutputSeries", Counts: map[string]int{"paths": 3}}, []string{"ARITY_MISMATCH", "AddModelOutputSeries"}},
		{"duplicate label", &DuplicateLabelError{Label: "Observed"}, []string{"DUPLICATE_LABEL", `"Observed"`}},
		{"non-positive log", &NonPositiveLogValueError{Axis: "y", Series: "s", Value: -1}, []string{"NON_POSITIVE_LOG_VALUE", "-1", "y axis"}},
		{"unit mismatch", &UnitMismatchError{Group: "A", Observed: "h", Simulated: "min"}, []string{"UNIT_MISMATCH", `"h"`, `"min"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, fragment := range tt.want {
				assert.Contains(t, tt.err.Error(), fragment)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewParsingError("bad cell", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PARSING")
	assert.Contains(t, err.Error(), "underlying")

	var appErr *AppError
	wrapped := fmt.Errorf("loading: %w", err)
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewValidationError("bad input").WithContext("row", 7)
	assert.Equal(t, 7, err.Context["row"])
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no match", &NoMatchError{Group: "A"}, http.StatusUnprocessableEntity, "NO_MATCH"},
		{"arity", &ArityMismatchError{Operation: "op"}, http.StatusBadRequest, "ARITY_MISMATCH"},
		{"duplicate", &DuplicateLabelError{Label: "x"}, http.StatusConflict, "DUPLICATE_LABEL"},
		{"non-positive log", &NonPositiveLogValueError{Axis: "y"}, http.StatusUnprocessableEntity, "NON_POSITIVE_LOG_VALUE"},
		{"unit mismatch", &UnitMismatchError{Group: "A"}, http.StatusUnprocessableEntity, "UNIT_MISMATCH"},
		{"app error", NewValidationError("nope"), http.StatusBadRequest, "VALIDATION"},
		{"wrapped domain error", fmt.Errorf("add: %w", &DuplicateLabelError{Label: "x"}), http.StatusConflict, "DUPLICATE_LABEL"},
		{"already api error", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := ToAPIError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}
