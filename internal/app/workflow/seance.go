package workflow

import (
	"context"
	"time"

	"github.com/dalemusser/coursehub/internal/app/policy/seancepolicy"
	"github.com/dalemusser/coursehub/internal/app/system/lifecycle"
	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// FireSeance applies ev to the seance as a top-level transition.
func (e *Engine) FireSeance(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event) error {
	var rec TransitionRecord
	err := e.op(ctx, "seance", id, string(ev), func(ctx context.Context) error {
		se, err := e.st.Seances.Get(ctx, id)
		if err != nil {
			return err
		}
		to, err := lifecycle.Seances.Next(se.State, ev)
		if err != nil {
			return err
		}
		if err := e.applySeance(ctx, se, ev, to); err != nil {
			return err
		}
		rec = TransitionRecord{Entity: "seance", ID: id, Event: string(ev), From: string(se.State), To: string(to)}
		return nil
	})
	if err != nil {
		return err
	}
	e.transitioned(ctx, rec)
	return nil
}

func (e *Engine) OpenSeance(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSeance(ctx, id, lifecycle.EventOpen)
}

func (e *Engine) ConfirmSeance(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSeance(ctx, id, lifecycle.EventConfirm)
}

func (e *Engine) StartSeance(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSeance(ctx, id, lifecycle.EventStart)
}

func (e *Engine) CloseSeance(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSeance(ctx, id, lifecycle.EventClose)
}

func (e *Engine) DoneSeance(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSeance(ctx, id, lifecycle.EventDone)
}

func (e *Engine) CancelSeance(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSeance(ctx, id, lifecycle.EventCancel)
}

// signalSeance applies ev to a seance reached by a cascade. It is a no-op
// when the seance's state does not accept ev or its guard refuses.
func (e *Engine) signalSeance(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event) error {
	se, err := e.st.Seances.Get(ctx, id)
	if err != nil {
		return err
	}
	if !lifecycle.Seances.Can(se.State, ev) {
		return nil
	}
	to, err := lifecycle.Seances.Next(se.State, ev)
	if err != nil {
		return err
	}
	if err := ignorePrecondition(e.applySeance(ctx, se, ev, to)); err != nil {
		return err
	}
	e.log.Debug("seance signalled",
		zap.String("id", id.Hex()),
		zap.String("event", string(ev)),
		zap.String("from", string(se.State)),
		zap.String("to", string(to)))
	return nil
}

func (e *Engine) applySeance(ctx context.Context, se models.Seance, ev lifecycle.Event, to models.SeanceState) error {
	switch ev {
	case lifecycle.EventOpen, lifecycle.EventClose:
		return e.st.Seances.SetState(ctx, se.ID, to)

	case lifecycle.EventConfirm:
		sessions, err := e.st.Sessions.BySeance(ctx, se.ID)
		if err != nil {
			return err
		}
		if err := seancepolicy.CanConfirm(se, sessions); err != nil {
			return err
		}
		if err := e.procureSeance(ctx, se); err != nil {
			return err
		}
		if err := e.notifySuppliers(ctx, se); err != nil {
			return err
		}
		return e.st.Seances.SetState(ctx, se.ID, to)

	case lifecycle.EventStart:
		if err := e.st.Seances.SetState(ctx, se.ID, to); err != nil {
			return err
		}
		return e.signalContainingSessions(ctx, se.ID, lifecycle.EventStart)

	case lifecycle.EventDone:
		if err := e.st.Seances.SetState(ctx, se.ID, to); err != nil {
			return err
		}
		if err := e.moveStakeholders(ctx, se.ID, models.StakeholderDone, models.StakeholderAccepted); err != nil {
			return err
		}
		return e.signalContainingSessions(ctx, se.ID, lifecycle.EventClose)

	case lifecycle.EventCancel:
		sessions, err := e.st.Sessions.BySeance(ctx, se.ID)
		if err != nil {
			return err
		}
		if err := seancepolicy.CanCancel(se, sessions); err != nil {
			return err
		}
		return e.cancelSeance(ctx, se, to)
	}
	return errs.Unsupported("unknown seance event %q", ev)
}

func (e *Engine) cancelSeance(ctx context.Context, se models.Seance, to models.SeanceState) error {
	if err := e.st.Seances.SetState(ctx, se.ID, to); err != nil {
		return err
	}
	if err := e.cancelSeanceOrders(ctx, se); err != nil {
		return err
	}
	if err := e.moveStakeholders(ctx, se.ID, models.StakeholderCancelled, models.StakeholderDraft, models.StakeholderAccepted); err != nil {
		return err
	}
	if err := e.signalContainingSessions(ctx, se.ID, lifecycle.EventClose); err != nil {
		return err
	}
	n, err := e.st.Participations.DeleteBySeance(ctx, se.ID)
	if err != nil {
		return err
	}
	e.log.Debug("participations removed",
		zap.String("seance_id", se.ID.Hex()),
		zap.Int64("count", n))
	return nil
}

// cancelSeanceOrders cancels the confirmed purchase orders that the
// seance's participations point at, limited to orders issued for this
// seance and one of its products.
func (e *Engine) cancelSeanceOrders(ctx context.Context, se models.Seance) error {
	parts, err := e.st.Participations.BySeances(ctx, []primitive.ObjectID{se.ID})
	if err != nil {
		return err
	}
	var refs []string
	for _, p := range parts {
		refs = append(refs, p.PurchaseLineRefs...)
	}
	if len(refs) == 0 {
		return nil
	}
	orders, err := e.co.Procurement.Orders(ctx, refs)
	if err != nil {
		return err
	}
	products := make(map[primitive.ObjectID]struct{}, len(se.PurchaseLines))
	for _, pl := range se.PurchaseLines {
		products[pl.ProductID] = struct{}{}
	}
	cancelled := map[string]struct{}{}
	for _, o := range orders {
		if o.State != models.OrderConfirmed || o.SeanceID != se.ID {
			continue
		}
		if _, ok := products[o.ProductID]; !ok {
			continue
		}
		if _, done := cancelled[o.ID]; done {
			continue
		}
		if err := e.co.Procurement.CancelOrder(ctx, o.ID); err != nil {
			return err
		}
		cancelled[o.ID] = struct{}{}
	}
	return nil
}

// moveStakeholders sets every stakeholder of the seance whose state is
// one of from to the state to.
func (e *Engine) moveStakeholders(ctx context.Context, seanceID primitive.ObjectID, to string, from ...string) error {
	shs, err := e.st.Stakeholders.BySeances(ctx, []primitive.ObjectID{seanceID})
	if err != nil {
		return err
	}
	for _, sh := range shs {
		for _, f := range from {
			if sh.State != f {
				continue
			}
			if err := e.st.Stakeholders.SetState(ctx, sh.ID, to); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

func (e *Engine) signalContainingSessions(ctx context.Context, seanceID primitive.ObjectID, ev lifecycle.Event) error {
	sessions, err := e.st.Sessions.BySeance(ctx, seanceID)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if err := e.signalSession(ctx, s.ID, ev); err != nil {
			return err
		}
	}
	return nil
}

// Seance returns one seance.
func (e *Engine) Seance(ctx context.Context, id primitive.ObjectID) (models.Seance, error) {
	return e.st.Seances.Get(ctx, id)
}

// CreateSeance stores a new opened seance. Purchase lines without an id
// get one.
func (e *Engine) CreateSeance(ctx context.Context, se models.Seance) (models.Seance, error) {
	se.ID = primitive.NewObjectID()
	if se.State == "" {
		se.State = models.SeanceOpened
	}
	for i := range se.PurchaseLines {
		if se.PurchaseLines[i].ID.IsZero() {
			se.PurchaseLines[i].ID = primitive.NewObjectID()
		}
	}
	if err := e.check(se); err != nil {
		return models.Seance{}, err
	}
	var out models.Seance
	err := e.op(ctx, "seance", se.ID, "create", func(ctx context.Context) error {
		if err := e.checkHoliday(ctx, se.Date); err != nil {
			return err
		}
		now := e.opts.Now()
		se.CreatedAt, se.UpdatedAt = now, now
		var err error
		out, err = e.st.Seances.Create(ctx, se)
		return err
	})
	return out, err
}

// SetSeanceLimits rewrites a seance's min/max and refreshes the cached
// limits of every session containing it.
func (e *Engine) SetSeanceLimits(ctx context.Context, id primitive.ObjectID, minLimit, maxLimit int) error {
	return e.op(ctx, "seance", id, "set_limits", func(ctx context.Context) error {
		se, err := e.st.Seances.Get(ctx, id)
		if err != nil {
			return err
		}
		se.MinLimit, se.MaxLimit = minLimit, maxLimit
		if err := e.check(se); err != nil {
			return err
		}
		if err := e.st.Seances.SetLimits(ctx, id, minLimit, maxLimit); err != nil {
			return err
		}
		return e.recomputeForSeance(ctx, id)
	})
}

// RescheduleSeance moves a seance to a new date. The date may not be a
// public holiday and may not precede any containing session.
func (e *Engine) RescheduleSeance(ctx context.Context, id primitive.ObjectID, date time.Time) error {
	return e.op(ctx, "seance", id, "reschedule", func(ctx context.Context) error {
		se, err := e.st.Seances.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := e.checkHoliday(ctx, date); err != nil {
			return err
		}
		sessions, err := e.st.Sessions.BySeance(ctx, id)
		if err != nil {
			return err
		}
		if err := seancepolicy.CheckDate(se.Name, date, sessions); err != nil {
			return err
		}
		return e.st.Seances.SetDate(ctx, id, date)
	})
}

// AssignGroup puts a seance in a group, or takes it out of its group when
// groupID is nil. The seance must belong to the group's session.
func (e *Engine) AssignGroup(ctx context.Context, seanceID primitive.ObjectID, groupID *primitive.ObjectID) error {
	return e.op(ctx, "seance", seanceID, "assign_group", func(ctx context.Context) error {
		if _, err := e.st.Seances.Get(ctx, seanceID); err != nil {
			return err
		}
		if groupID != nil {
			g, err := e.st.Groups.Get(ctx, *groupID)
			if err != nil {
				return err
			}
			s, err := e.st.Sessions.Get(ctx, g.SessionID)
			if err != nil {
				return err
			}
			if !s.HasSeance(seanceID) {
				return errs.Invariant("seance is not part of session %s, which owns group %s", s.Name, g.Name)
			}
		}
		if err := e.st.Seances.SetGroup(ctx, seanceID, groupID); err != nil {
			return err
		}
		return e.recomputeForSeance(ctx, seanceID)
	})
}

// DeleteSeance removes a seance, its participations and its place in
// every session, subject to the procurement and invoice guards.
func (e *Engine) DeleteSeance(ctx context.Context, id primitive.ObjectID) error {
	return e.op(ctx, "seance", id, "delete", func(ctx context.Context) error {
		se, err := e.st.Seances.Get(ctx, id)
		if err != nil {
			return err
		}
		parts, err := e.st.Participations.BySeances(ctx, []primitive.ObjectID{id})
		if err != nil {
			return err
		}
		lineIDs := make([]primitive.ObjectID, 0, len(parts))
		for _, p := range parts {
			lineIDs = append(lineIDs, p.SubscriptionLineID)
		}
		lines, err := e.st.Lines.ByIDs(ctx, uniqueIDs(lineIDs))
		if err != nil {
			return err
		}
		if err := seancepolicy.CanDelete(se, lines); err != nil {
			return err
		}

		sessions, err := e.st.Sessions.BySeance(ctx, id)
		if err != nil {
			return err
		}
		for _, s := range sessions {
			ids := make([]primitive.ObjectID, 0, len(s.SeanceIDs))
			for _, sid := range s.SeanceIDs {
				if sid != id {
					ids = append(ids, sid)
				}
			}
			if err := e.st.Sessions.SetSeances(ctx, s.ID, ids); err != nil {
				return err
			}
		}
		if _, err := e.st.Participations.DeleteBySeance(ctx, id); err != nil {
			return err
		}
		if err := e.st.Seances.Delete(ctx, id); err != nil {
			return err
		}

		sessionIDs := make([]primitive.ObjectID, 0, len(sessions))
		for _, s := range sessions {
			sessionIDs = append(sessionIDs, s.ID)
		}
		return e.recompute(ctx, sessionIDs...)
	})
}

// CopySeance stores a duplicate of a seance. The copy is opened, never a
// first seance, outside any group and without procurement references.
func (e *Engine) CopySeance(ctx context.Context, id primitive.ObjectID) (models.Seance, error) {
	var out models.Seance
	err := e.op(ctx, "seance", id, "copy", func(ctx context.Context) error {
		se, err := e.st.Seances.Get(ctx, id)
		if err != nil {
			return err
		}
		out, err = e.st.Seances.Create(ctx, seancepolicy.Copy(se, e.opts.Now()))
		return err
	})
	return out, err
}

// OpenSeancesForOffer lists the bookable seances of an offer: opened,
// not duplicated, of one of the offer's courses and dated on or after
// from. A zero from means today.
func (e *Engine) OpenSeancesForOffer(ctx context.Context, offerID primitive.ObjectID, from time.Time) ([]models.Seance, error) {
	offer, err := e.st.Offers.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if len(offer.CourseIDs) == 0 {
		return []models.Seance{}, nil
	}
	if from.IsZero() {
		now := e.opts.Now()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	return e.st.Seances.OpenForCourses(ctx, offer.CourseIDs, from)
}
