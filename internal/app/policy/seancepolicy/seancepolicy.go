// internal/app/policy/seancepolicy/seancepolicy.go
package seancepolicy

import (
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanConfirm requires every containing session to be past open
// confirmation (not draft, not opened).
func CanConfirm(se models.Seance, sessions []models.Session) error {
	for _, s := range sessions {
		if s.State == models.SessionDraft || s.State == models.SessionOpened {
			return errs.Precondition("seance %s: session %s is still %s", se.Name, s.Name, s.State).
				WithMetadata("session_id", s.ID.Hex())
		}
	}
	return nil
}

// CanCancel requires at least one containing session that is cancelled or
// in progress.
func CanCancel(se models.Seance, sessions []models.Session) error {
	for _, s := range sessions {
		if s.State == models.SessionCancelled || s.State == models.SessionInProgress {
			return nil
		}
	}
	return errs.Precondition("seance %s can only be cancelled once a containing session is cancelled or in progress", se.Name).
		WithMetadata("seance_id", se.ID.Hex())
}

// CanDelete guards seance deletion. A confirmed seance may not be deleted
// once any of its purchase-line templates has been procured; any other
// seance may not be deleted once one of its participants' subscription
// lines has been invoiced. lines are the subscription lines behind the
// seance's participations.
func CanDelete(se models.Seance, lines []models.SubscriptionLine) error {
	if se.State == models.SeanceConfirmed {
		for _, pl := range se.PurchaseLines {
			if pl.ProcurementID != "" {
				return errs.Precondition("cannot delete seance with confirmed procurement").
					WithMetadata("seance_id", se.ID.Hex())
			}
		}
		return nil
	}
	for _, l := range lines {
		if l.InvoiceLineID != "" {
			return errs.Precondition("cannot delete seance with invoiced subscription").
				WithMetadata("seance_id", se.ID.Hex()).
				WithMetadata("subscription_line_id", l.ID.Hex())
		}
	}
	return nil
}

// CheckDate enforces that a seance is never dated before a session that
// contains it.
func CheckDate(name string, date time.Time, sessions []models.Session) error {
	for _, s := range sessions {
		if date.Before(s.Date) {
			return errs.Invariant("seance %s would be dated before session %s", name, s.Name).
				WithMetadata("session_id", s.ID.Hex())
		}
	}
	return nil
}

// Copy returns a fresh seance built from se. The copy is reopened, keeps
// its limits, templates and course. It belongs to no session or group,
// carries no procurement references and is never a first seance.
func Copy(se models.Seance, now time.Time) models.Seance {
	cp := se
	cp.ID = primitive.NewObjectID()
	cp.State = models.SeanceOpened
	cp.IsFirstSeance = false
	cp.GroupID = nil
	cp.PurchaseLines = make([]models.PurchaseLine, len(se.PurchaseLines))
	for i, pl := range se.PurchaseLines {
		pl.ID = primitive.NewObjectID()
		pl.ProcurementID = ""
		pl.SupplierIDs = append([]primitive.ObjectID(nil), pl.SupplierIDs...)
		cp.PurchaseLines[i] = pl
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	return cp
}
