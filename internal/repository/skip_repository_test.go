package repository

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/models"
)

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		wantErr    bool
	}{
		{"valid", 0, 10, false},
		{"valid mid", 5.5, 6.0, false},
		{"negative start", -1, 10, true},
		{"zero length", 5, 5, true},
		{"inverted", 10, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRange(tt.start, tt.end)
			if tt.wantErr && !errors.Is(err, ErrInvalidRange) {
				t.Errorf("validateRange(%v, %v) = %v, want ErrInvalidRange", tt.start, tt.end, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateRange(%v, %v) = %v, want nil", tt.start, tt.end, err)
			}
		})
	}
}

func TestOverlapsAny(t *testing.T) {
	a := &models.SkipSection{ID: uuid.New(), StartSeconds: 10, EndSeconds: 20}
	b := &models.SkipSection{ID: uuid.New(), StartSeconds: 30, EndSeconds: 40}
	sections := []*models.SkipSection{a, b}

	tests := []struct {
		name       string
		start, end float64
		want       *models.SkipSection
	}{
		{"before all", 0, 5, nil},
		{"touching start is allowed", 0, 10, nil},
		{"touching end is allowed", 20, 30, nil},
		{"strict overlap", 15, 25, a},
		{"contained", 12, 18, a},
		{"containing", 5, 45, a},
		{"hits second", 35, 50, b},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapsAny(sections, tt.start, tt.end, uuid.Nil); got != tt.want {
				t.Errorf("overlapsAny(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestOverlapsAnyExcludesSelf(t *testing.T) {
	a := &models.SkipSection{ID: uuid.New(), StartSeconds: 10, EndSeconds: 20}
	sections := []*models.SkipSection{a}

	// Growing a's own range must not collide with its stored row.
	if got := overlapsAny(sections, 10, 25, a.ID); got != nil {
		t.Errorf("overlapsAny excluding self = %v, want nil", got)
	}
	if got := overlapsAny(sections, 10, 25, uuid.Nil); got != a {
		t.Errorf("overlapsAny without exclusion = %v, want %v", got, a)
	}
}

func TestJobLockKeyDeterministic(t *testing.T) {
	id := uuid.MustParse("4b4733a7-f8f1-4b0e-9d6a-51a0fbdcee08")
	if jobLockKey(id) != jobLockKey(id) {
		t.Fatal("jobLockKey must be deterministic for a given job")
	}
	other := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	if jobLockKey(id) == jobLockKey(other) {
		t.Fatal("distinct jobs should map to distinct lock keys")
	}
}
