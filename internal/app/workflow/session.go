package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/coursehub/internal/app/policy/seancepolicy"
	"github.com/dalemusser/coursehub/internal/app/policy/sessionpolicy"
	"github.com/dalemusser/coursehub/internal/app/system/capacity"
	"github.com/dalemusser/coursehub/internal/app/system/lifecycle"
	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// FireSession applies ev to the session as a top-level transition.
func (e *Engine) FireSession(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event) error {
	var rec TransitionRecord
	err := e.op(ctx, "session", id, string(ev), func(ctx context.Context) error {
		s, err := e.st.Sessions.Get(ctx, id)
		if err != nil {
			return err
		}
		to, err := lifecycle.Sessions.Next(s.State, ev)
		if err != nil {
			return err
		}
		if err := e.applySession(ctx, s, ev, to); err != nil {
			return err
		}
		rec = TransitionRecord{Entity: "session", ID: id, Event: string(ev), From: string(s.State), To: string(to)}
		return nil
	})
	if err != nil {
		return err
	}
	e.transitioned(ctx, rec)
	return nil
}

func (e *Engine) OpenSession(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSession(ctx, id, lifecycle.EventOpen)
}

func (e *Engine) ConfirmSession(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSession(ctx, id, lifecycle.EventConfirm)
}

func (e *Engine) CloseSubscriptions(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSession(ctx, id, lifecycle.EventCloseSubscriptions)
}

func (e *Engine) StartSession(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSession(ctx, id, lifecycle.EventStart)
}

func (e *Engine) CloseSession(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSession(ctx, id, lifecycle.EventClose)
}

func (e *Engine) CancelSession(ctx context.Context, id primitive.ObjectID) error {
	return e.FireSession(ctx, id, lifecycle.EventCancel)
}

// signalSession applies ev to a session reached by a cascade. It is a no-op
// when the session's state does not accept ev or its guard refuses.
func (e *Engine) signalSession(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event) error {
	s, err := e.st.Sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if !lifecycle.Sessions.Can(s.State, ev) {
		return nil
	}
	to, err := lifecycle.Sessions.Next(s.State, ev)
	if err != nil {
		return err
	}
	if err := ignorePrecondition(e.applySession(ctx, s, ev, to)); err != nil {
		return err
	}
	e.log.Debug("session signalled",
		zap.String("id", id.Hex()),
		zap.String("event", string(ev)),
		zap.String("from", string(s.State)),
		zap.String("to", string(to)))
	return nil
}

// applySession runs the guard and side effects of one session transition.
// Guards run before any write.
func (e *Engine) applySession(ctx context.Context, s models.Session, ev lifecycle.Event, to models.SessionState) error {
	switch ev {
	case lifecycle.EventOpen:
		seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
		if err != nil {
			return err
		}
		if err := sessionpolicy.CanOpen(s, seances); err != nil {
			return err
		}
		return e.st.Sessions.SetState(ctx, s.ID, to)

	case lifecycle.EventConfirm:
		snap, err := e.sessionSnapshot(ctx, s)
		if err != nil {
			return err
		}
		if err := sessionpolicy.CanConfirm(s, snap.Headcount); err != nil {
			return err
		}
		if err := e.notifySession(ctx, s, models.TemplateSessionConfirmed, models.TemplateLecturerConfirmed); err != nil {
			return err
		}
		return e.st.Sessions.SetState(ctx, s.ID, to)

	case lifecycle.EventCloseSubscriptions:
		return e.st.Sessions.SetState(ctx, s.ID, to)

	case lifecycle.EventStart:
		if err := e.invoiceSession(ctx, s); err != nil {
			return err
		}
		return e.st.Sessions.SetState(ctx, s.ID, to)

	case lifecycle.EventClose:
		seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
		if err != nil {
			return err
		}
		if err := sessionpolicy.CanClose(s, seances); err != nil {
			return err
		}
		lines, err := e.st.Lines.BySessions(ctx, []primitive.ObjectID{s.ID})
		if err != nil {
			return err
		}
		for _, l := range lines {
			if l.State != models.SubscriptionConfirmed {
				continue
			}
			if err := e.st.Lines.SetState(ctx, l.ID, models.SubscriptionDone); err != nil {
				return err
			}
		}
		return e.st.Sessions.SetState(ctx, s.ID, to)

	case lifecycle.EventCancel:
		return e.cancelSession(ctx, s, to)
	}
	return errs.Unsupported("unknown session event %q", ev)
}

// cancelSession writes the cancelled state first so that the cascaded
// seance cancellations see a cancelled containing session.
func (e *Engine) cancelSession(ctx context.Context, s models.Session, to models.SessionState) error {
	if err := e.st.Sessions.SetState(ctx, s.ID, to); err != nil {
		return err
	}
	s.State = to

	if err := e.notifySession(ctx, s, models.TemplateSessionCancelled, models.TemplateLecturerCancelled); err != nil {
		return err
	}

	shared, err := e.hasSharedSeances(ctx, s)
	if err != nil {
		return err
	}
	if shared {
		// Staffing requests may cover seances other sessions still use.
		// They are left as they are until someone decides what they mean.
		e.log.Warn("session has shared seances; stakeholder requests left untouched",
			zap.String("session_id", s.ID.Hex()))
	} else {
		reqs, err := e.st.Requests.BySession(ctx, s.ID)
		if err != nil {
			return err
		}
		for _, r := range reqs {
			if r.State == models.RequestCancelled {
				continue
			}
			if err := e.st.Requests.SetState(ctx, r.ID, models.RequestCancelled); err != nil {
				return err
			}
		}
	}

	for _, seanceID := range s.SeanceIDs {
		if err := e.signalSeance(ctx, seanceID, lifecycle.EventCancel); err != nil {
			return err
		}
	}

	lines, err := e.st.Lines.BySessions(ctx, []primitive.ObjectID{s.ID})
	if err != nil {
		return err
	}
	for _, l := range lines {
		if l.State != models.SubscriptionDraft && l.State != models.SubscriptionConfirmed {
			continue
		}
		if err := e.st.Lines.SetState(ctx, l.ID, models.SubscriptionCancelled); err != nil {
			return err
		}
		if err := e.detach(ctx, l.ID); err != nil {
			return err
		}
	}
	return nil
}

// invoiceSession asks the accounting collaborator to invoice every counted
// subscription line that has no invoice line yet.
func (e *Engine) invoiceSession(ctx context.Context, s models.Session) error {
	lines, err := e.st.Lines.BySessions(ctx, []primitive.ObjectID{s.ID})
	if err != nil {
		return err
	}
	var pending []models.SubscriptionLine
	for _, l := range lines {
		if l.Counted() && l.InvoiceLineID == "" {
			pending = append(pending, l)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	refs, err := e.co.Invoicing.CreateInvoices(ctx, s, pending)
	if err != nil {
		return err
	}
	for _, l := range pending {
		ref, ok := refs[l.ID]
		if !ok || ref == "" {
			continue
		}
		if err := e.st.Lines.SetInvoiceLine(ctx, l.ID, ref); err != nil {
			return err
		}
	}
	e.log.Info("invoices requested",
		zap.String("session_id", s.ID.Hex()),
		zap.Int("lines", len(pending)))
	return nil
}

// HasSharedSeances reports whether any seance of the session belongs to
// another session too.
func (e *Engine) HasSharedSeances(ctx context.Context, id primitive.ObjectID) (bool, error) {
	s, err := e.st.Sessions.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return e.hasSharedSeances(ctx, s)
}

func (e *Engine) hasSharedSeances(ctx context.Context, s models.Session) (bool, error) {
	owners := make(map[primitive.ObjectID]int, len(s.SeanceIDs))
	for _, id := range s.SeanceIDs {
		sessions, err := e.st.Sessions.BySeance(ctx, id)
		if err != nil {
			return false, err
		}
		owners[id] = len(sessions)
	}
	return sessionpolicy.HasSharedSeances(s, owners), nil
}

// Session returns one session.
func (e *Engine) Session(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	return e.st.Sessions.Get(ctx, id)
}

// CreateSession stores a new draft session. Seances listed on it must not
// be dated before it; its cached limits are computed from them.
func (e *Engine) CreateSession(ctx context.Context, s models.Session) (models.Session, error) {
	s.ID = primitive.NewObjectID()
	s.State = models.SessionDraft
	s.SeanceIDs = uniqueIDs(s.SeanceIDs)
	if err := e.check(s); err != nil {
		return models.Session{}, err
	}
	var out models.Session
	err := e.op(ctx, "session", s.ID, "create", func(ctx context.Context) error {
		seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
		if err != nil {
			return err
		}
		for _, se := range seances {
			if err := seancepolicy.CheckDate(se.Name, se.Date, []models.Session{s}); err != nil {
				return err
			}
		}
		lim := capacity.ComputeLimits(seances)
		s.MinLimit, s.MaxLimit = lim.Min, lim.Max
		now := e.opts.Now()
		s.CreatedAt, s.UpdatedAt = now, now
		out, err = e.st.Sessions.Create(ctx, s)
		return err
	})
	return out, err
}

// CopySession always fails: sessions cannot be duplicated.
func (e *Engine) CopySession(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	var s models.Session
	err := e.op(ctx, "session", id, "copy", func(ctx context.Context) error {
		var err error
		if s, err = e.st.Sessions.Get(ctx, id); err != nil {
			return err
		}
		return sessionpolicy.CanCopy(s)
	})
	return models.Session{}, err
}

// DeleteSession removes a closed or cancelled session and its groups.
func (e *Engine) DeleteSession(ctx context.Context, id primitive.ObjectID) error {
	return e.op(ctx, "session", id, "delete", func(ctx context.Context) error {
		s, err := e.st.Sessions.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := sessionpolicy.CanDelete(s); err != nil {
			return err
		}
		if _, err := e.st.Groups.DeleteBySession(ctx, id); err != nil {
			return err
		}
		return e.st.Sessions.Delete(ctx, id)
	})
}

// AddSeance puts a seance into a session.
func (e *Engine) AddSeance(ctx context.Context, sessionID, seanceID primitive.ObjectID) error {
	return e.op(ctx, "session", sessionID, "add_seance", func(ctx context.Context) error {
		s, err := e.st.Sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.State.Terminal() {
			return errs.Precondition("session %s is %s", s.Name, s.State)
		}
		if s.HasSeance(seanceID) {
			return nil
		}
		se, err := e.st.Seances.Get(ctx, seanceID)
		if err != nil {
			return err
		}
		if err := seancepolicy.CheckDate(se.Name, se.Date, []models.Session{s}); err != nil {
			return err
		}
		ids := append(append([]primitive.ObjectID(nil), s.SeanceIDs...), seanceID)
		if err := e.st.Sessions.SetSeances(ctx, sessionID, ids); err != nil {
			return err
		}
		return e.recompute(ctx, sessionID)
	})
}

// RemoveSeance takes a seance out of a session. If the seance was assigned
// to one of this session's groups it leaves the group too.
func (e *Engine) RemoveSeance(ctx context.Context, sessionID, seanceID primitive.ObjectID) error {
	return e.op(ctx, "session", sessionID, "remove_seance", func(ctx context.Context) error {
		s, err := e.st.Sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if !s.HasSeance(seanceID) {
			return nil
		}
		ids := make([]primitive.ObjectID, 0, len(s.SeanceIDs))
		for _, id := range s.SeanceIDs {
			if id != seanceID {
				ids = append(ids, id)
			}
		}
		if err := e.st.Sessions.SetSeances(ctx, sessionID, ids); err != nil {
			return err
		}

		se, err := e.st.Seances.Get(ctx, seanceID)
		if err != nil {
			return err
		}
		if se.GroupID != nil {
			g, err := e.st.Groups.Get(ctx, *se.GroupID)
			if err != nil && !errors.Is(err, errs.ErrNotFound) {
				return err
			}
			if err == nil && g.SessionID == sessionID {
				if err := e.st.Seances.SetGroup(ctx, seanceID, nil); err != nil {
					return err
				}
			}
		}
		return e.recompute(ctx, sessionID)
	})
}

// RescheduleSession moves a session to a new date. The date may not be a
// public holiday and may not come after any of its seances.
func (e *Engine) RescheduleSession(ctx context.Context, id primitive.ObjectID, date time.Time) error {
	return e.op(ctx, "session", id, "reschedule", func(ctx context.Context) error {
		s, err := e.st.Sessions.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := e.checkHoliday(ctx, date); err != nil {
			return err
		}
		seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
		if err != nil {
			return err
		}
		s.Date = date
		for _, se := range seances {
			if err := seancepolicy.CheckDate(se.Name, se.Date, []models.Session{s}); err != nil {
				return err
			}
		}
		return e.st.Sessions.SetDate(ctx, id, date)
	})
}

// CreateGroup adds a capacity track to a session. Names are unique within
// the session, compared case- and accent-insensitively by the store.
func (e *Engine) CreateGroup(ctx context.Context, sessionID primitive.ObjectID, name string) (models.Group, error) {
	g := models.Group{ID: primitive.NewObjectID(), Name: name, SessionID: sessionID}
	if err := e.check(g); err != nil {
		return models.Group{}, err
	}
	var out models.Group
	err := e.op(ctx, "session", sessionID, "create_group", func(ctx context.Context) error {
		if _, err := e.st.Sessions.Get(ctx, sessionID); err != nil {
			return err
		}
		g.CreatedAt = e.opts.Now()
		var err error
		out, err = e.st.Groups.Create(ctx, g)
		return err
	})
	return out, err
}

// SessionsForSubscription lists the sessions a subscription has lines in.
func (e *Engine) SessionsForSubscription(ctx context.Context, subscriptionID primitive.ObjectID) ([]models.Session, error) {
	lines, err := e.st.Lines.BySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.SessionID)
	}
	return e.st.Sessions.ByIDs(ctx, uniqueIDs(ids))
}

// RecomputeSessionLimits rewrites the cached min/max limits of the given
// sessions from their current seances.
func (e *Engine) RecomputeSessionLimits(ctx context.Context, ids ...primitive.ObjectID) error {
	var first primitive.ObjectID
	if len(ids) > 0 {
		first = ids[0]
	}
	return e.op(ctx, "session", first, "recompute_limits", func(ctx context.Context) error {
		return e.recompute(ctx, ids...)
	})
}

func (e *Engine) recompute(ctx context.Context, ids ...primitive.ObjectID) error {
	for _, id := range uniqueIDs(ids) {
		s, err := e.st.Sessions.Get(ctx, id)
		if err != nil {
			return err
		}
		seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
		if err != nil {
			return err
		}
		lim := capacity.ComputeLimits(seances)
		if lim.Min == s.MinLimit && lim.Max == s.MaxLimit {
			continue
		}
		if err := e.st.Sessions.SetLimits(ctx, id, lim.Min, lim.Max); err != nil {
			return err
		}
	}
	return nil
}

// recomputeForSeance refreshes every session containing the seance.
func (e *Engine) recomputeForSeance(ctx context.Context, seanceID primitive.ObjectID) error {
	sessions, err := e.st.Sessions.BySeance(ctx, seanceID)
	if err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return e.recompute(ctx, ids...)
}

func (e *Engine) checkHoliday(ctx context.Context, date time.Time) error {
	if e.co.Holidays == nil {
		return nil
	}
	holiday, err := e.co.Holidays.IsHoliday(ctx, date)
	if err != nil {
		return err
	}
	if holiday {
		return errs.Precondition("%s is a public holiday", date.Format("2006-01-02"))
	}
	return nil
}
