package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/zulandar/bugyard/internal/bug"
)

func TestFrom(t *testing.T) {
	_, verr := bug.BuildPlan(bug.ListParams{Limit: "0", Sort: "nope"})

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", verr, http.StatusBadRequest, "Invalid sort field, Limit must be between 1 and 100"},
		{"invalid id", bug.ErrInvalidID, http.StatusBadRequest, MsgInvalidID},
		{"not found", bug.ErrNotFound, http.StatusNotFound, MsgBugNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", bug.ErrNotFound), http.StatusNotFound, MsgBugNotFound},
		{"store failure", errors.New("disk I/O error"), http.StatusInternalServerError, MsgInternal},
		{"already classified", BadRequest(MsgInvalidJSON), http.StatusBadRequest, MsgInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			if got.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus, tt.status)
			}
			if got.Message != tt.message {
				t.Errorf("Message = %q, want %q", got.Message, tt.message)
			}
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:3306: connection refused")
	e := Internal(cause)
	if e.Message != MsgInternal {
		t.Errorf("Message = %q", e.Message)
	}
	if !errors.Is(e, cause) {
		t.Error("Internal should wrap its cause")
	}
}

func TestAppError_Error(t *testing.T) {
	if got := NotFound(MsgRouteNotFound).Error(); got != "404 Route not found" {
		t.Errorf("Error() = %q", got)
	}
	if got := Internal(errors.New("boom")).Error(); got != "500 Internal server error: boom" {
		t.Errorf("Error() = %q", got)
	}
}
