package seancepolicy

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var day = time.Date(2026, 4, 6, 14, 0, 0, 0, time.UTC)

func session(state models.SessionState) models.Session {
	return models.Session{ID: primitive.NewObjectID(), Name: "S-" + string(state), State: state, Date: day}
}

func TestCanConfirm(t *testing.T) {
	se := models.Seance{ID: primitive.NewObjectID(), Name: "Welding 1"}

	tests := []struct {
		name     string
		sessions []models.Session
		wantErr  bool
	}{
		{"no sessions", nil, false},
		{"all opened_confirmed", []models.Session{session(models.SessionOpenedConfirmed)}, false},
		{"one draft", []models.Session{session(models.SessionClosedConfirmed), session(models.SessionDraft)}, true},
		{"one opened", []models.Session{session(models.SessionOpened)}, true},
		{"in progress and cancelled", []models.Session{session(models.SessionInProgress), session(models.SessionCancelled)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanConfirm(se, tt.sessions)
			if tt.wantErr != (err != nil) {
				t.Fatalf("got %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errs.ErrPrecondition) {
				t.Errorf("expected precondition, got %v", err)
			}
		})
	}
}

func TestCanCancel(t *testing.T) {
	se := models.Seance{ID: primitive.NewObjectID(), Name: "Welding 2"}

	tests := []struct {
		name     string
		sessions []models.Session
		wantErr  bool
	}{
		{"no sessions", nil, true},
		{"only opened", []models.Session{session(models.SessionOpened)}, true},
		{"one cancelled", []models.Session{session(models.SessionOpened), session(models.SessionCancelled)}, false},
		{"one in progress", []models.Session{session(models.SessionInProgress)}, false},
		{"closed does not count", []models.Session{session(models.SessionClosed)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanCancel(se, tt.sessions)
			if tt.wantErr != (err != nil) {
				t.Fatalf("got %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errs.ErrPrecondition) {
				t.Errorf("expected precondition, got %v", err)
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	procured := []models.PurchaseLine{{ID: primitive.NewObjectID(), ProcurementID: "po-1"}}
	unprocured := []models.PurchaseLine{{ID: primitive.NewObjectID()}}
	invoiced := []models.SubscriptionLine{{ID: primitive.NewObjectID(), InvoiceLineID: "inv-1"}}
	clean := []models.SubscriptionLine{{ID: primitive.NewObjectID()}}

	tests := []struct {
		name    string
		state   models.SeanceState
		lines   []models.PurchaseLine
		subs    []models.SubscriptionLine
		wantErr string
	}{
		{"confirmed with procurement", models.SeanceConfirmed, procured, clean, "cannot delete seance with confirmed procurement"},
		{"confirmed without procurement", models.SeanceConfirmed, unprocured, clean, ""},
		// the invoice check only applies outside confirmed
		{"confirmed with invoice", models.SeanceConfirmed, unprocured, invoiced, ""},
		{"opened with invoice", models.SeanceOpened, procured, invoiced, "cannot delete seance with invoiced subscription"},
		{"opened clean", models.SeanceOpened, procured, clean, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := models.Seance{ID: primitive.NewObjectID(), State: tt.state, PurchaseLines: tt.lines}
			err := CanDelete(se, tt.subs)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, errs.ErrPrecondition) {
				t.Fatalf("expected precondition, got %v", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("message: got %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCheckDate(t *testing.T) {
	sessions := []models.Session{session(models.SessionDraft)}
	if err := CheckDate("x", day, sessions); err != nil {
		t.Errorf("same day: unexpected error %v", err)
	}
	if err := CheckDate("x", day.Add(-time.Minute), sessions); !errors.Is(err, errs.ErrInvariant) {
		t.Errorf("before session: expected invariant violation, got %v", err)
	}
}

func TestCopy_ResetsFirstSeance(t *testing.T) {
	group := primitive.NewObjectID()
	src := models.Seance{
		ID:            primitive.NewObjectID(),
		Name:          "Intro",
		State:         models.SeanceDone,
		IsFirstSeance: true,
		GroupID:       &group,
		MinLimit:      2,
		MaxLimit:      9,
		PurchaseLines: []models.PurchaseLine{{ID: primitive.NewObjectID(), Quantity: 3, ProcurementID: "po-9"}},
	}
	now := time.Now().UTC()

	cp := Copy(src, now)

	if cp.IsFirstSeance {
		t.Error("copy must not be a first seance")
	}
	if cp.ID == src.ID {
		t.Error("copy must get a new id")
	}
	if cp.State != models.SeanceOpened {
		t.Errorf("state: got %s, want opened", cp.State)
	}
	if cp.GroupID != nil {
		t.Error("copy must not keep the group")
	}
	if cp.MinLimit != 2 || cp.MaxLimit != 9 {
		t.Errorf("limits: got %d/%d", cp.MinLimit, cp.MaxLimit)
	}
	if cp.PurchaseLines[0].ProcurementID != "" {
		t.Error("copy must drop procurement references")
	}
	if src.PurchaseLines[0].ProcurementID != "po-9" {
		t.Error("source must not be mutated")
	}
}
