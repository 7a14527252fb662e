package holidaystore_test

import (
	"errors"
	"testing"
	"time"

	holidaystore "github.com/dalemusser/coursehub/internal/app/store/holidays"
	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestStore_IsHoliday(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := holidaystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.HolidayPeriod{Name: "Easter", Start: date(2026, 4, 3, 0), End: date(2026, 4, 6, 0)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.HolidayPeriod{Name: "May Day", Start: date(2026, 5, 1, 0), End: date(2026, 5, 1, 0)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before", date(2026, 4, 2, 17), false},
		{"first day", date(2026, 4, 3, 9), true},
		{"last day afternoon", date(2026, 4, 6, 15), true},
		{"after", date(2026, 4, 7, 9), false},
		{"single day", date(2026, 5, 1, 10), true},
		{"day after single", date(2026, 5, 2, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.IsHoliday(ctx, tt.at)
			if err != nil {
				t.Fatalf("IsHoliday failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsHoliday(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestStore_Create_RejectsInvertedPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := holidaystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.HolidayPeriod{Name: "Bad", Start: date(2026, 4, 6, 0), End: date(2026, 4, 3, 0)})
	if !errors.Is(err, errs.ErrInvariant) {
		t.Errorf("expected invariant error, got %v", err)
	}
}
