package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lesserevil/miniscope/internal/chunker"
	"github.com/lesserevil/miniscope/internal/repository"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("wrapped: %w", repository.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{repository.ErrInvalidRange, http.StatusBadRequest, "INVALID_RANGE"},
		{repository.ErrOverlap, http.StatusConflict, "OVERLAP"},
		{chunker.ErrConfiguration, http.StatusBadRequest, "CONFIGURATION"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code := Classify(tt.err)
		if status != tt.wantStatus || code != tt.wantCode {
			t.Errorf("Classify(%v) = %d %q, want %d %q", tt.err, status, code, tt.wantStatus, tt.wantCode)
		}
	}
}

func TestWriteDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, fmt.Errorf("section [1, 2): %w", repository.ErrOverlap))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "error" || resp.Error == nil || resp.Error.Code != "OVERLAP" {
		t.Errorf("body = %+v", resp)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q", resp.Status)
	}
}
