package workflow

import (
	"context"

	"github.com/dalemusser/coursehub/internal/app/system/capacity"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Availability is the derived capacity view of a session or seance.
type Availability struct {
	capacity.Snapshot
	Manual                 bool `json:"manual"`
	DraftSubscriptions     int  `json:"draft_subscriptions"`
	ConfirmedSubscriptions int  `json:"confirmed_subscriptions"`
	// Shared is true for a seance in more than one session, and for a
	// session holding any such seance.
	Shared            bool `json:"shared"`
	ConfirmedLecturer bool `json:"confirmed_lecturer"`
}

// SessionAvailability computes a session's limits from its seances and
// its headcount across them.
func (e *Engine) SessionAvailability(ctx context.Context, id primitive.ObjectID) (Availability, error) {
	var av Availability
	err := e.op(ctx, "session", id, "availability", func(ctx context.Context) error {
		s, err := e.st.Sessions.Get(ctx, id)
		if err != nil {
			return err
		}
		if av.Snapshot, err = e.sessionSnapshot(ctx, s); err != nil {
			return err
		}
		av.Manual = s.Manual

		lines, err := e.st.Lines.BySessions(ctx, []primitive.ObjectID{id})
		if err != nil {
			return err
		}
		av.DraftSubscriptions, av.ConfirmedSubscriptions = countLines(lines)

		if av.Shared, err = e.hasSharedSeances(ctx, s); err != nil {
			return err
		}
		av.ConfirmedLecturer, err = e.confirmedLecturer(ctx, s.SeanceIDs)
		return err
	})
	return av, err
}

// SeanceAvailability computes a seance's headcount against its own limits.
// Subscription counts cover every session containing the seance.
func (e *Engine) SeanceAvailability(ctx context.Context, id primitive.ObjectID) (Availability, error) {
	var av Availability
	err := e.op(ctx, "seance", id, "availability", func(ctx context.Context) error {
		se, err := e.st.Seances.Get(ctx, id)
		if err != nil {
			return err
		}
		att, err := e.attendees(ctx, []primitive.ObjectID{id})
		if err != nil {
			return err
		}
		lim := capacity.Limits{Min: se.MinLimit, Max: se.MaxLimit}
		av.Snapshot = capacity.Summarize(lim, se.Manual, se.ManualCount, att)
		av.Manual = se.Manual

		sessions, err := e.st.Sessions.BySeance(ctx, id)
		if err != nil {
			return err
		}
		av.Shared = len(sessions) > 1
		sessionIDs := make([]primitive.ObjectID, 0, len(sessions))
		for _, s := range sessions {
			sessionIDs = append(sessionIDs, s.ID)
		}
		if len(sessionIDs) > 0 {
			lines, err := e.st.Lines.BySessions(ctx, sessionIDs)
			if err != nil {
				return err
			}
			av.DraftSubscriptions, av.ConfirmedSubscriptions = countLines(lines)
		}

		av.ConfirmedLecturer, err = e.confirmedLecturer(ctx, []primitive.ObjectID{id})
		return err
	})
	return av, err
}

// sessionSnapshot computes limits fresh from the seances rather than
// trusting the cached values on the session.
func (e *Engine) sessionSnapshot(ctx context.Context, s models.Session) (capacity.Snapshot, error) {
	seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
	if err != nil {
		return capacity.Snapshot{}, err
	}
	att, err := e.attendees(ctx, s.SeanceIDs)
	if err != nil {
		return capacity.Snapshot{}, err
	}
	return capacity.Summarize(capacity.ComputeLimits(seances), s.Manual, s.ManualCount, att), nil
}

func (e *Engine) attendees(ctx context.Context, seanceIDs []primitive.ObjectID) ([]capacity.Attendee, error) {
	if len(seanceIDs) == 0 {
		return nil, nil
	}
	parts, err := e.st.Participations.BySeances(ctx, seanceIDs)
	if err != nil {
		return nil, err
	}
	lineIDs := make([]primitive.ObjectID, 0, len(parts))
	for _, p := range parts {
		lineIDs = append(lineIDs, p.SubscriptionLineID)
	}
	lines, err := e.st.Lines.ByIDs(ctx, uniqueIDs(lineIDs))
	if err != nil {
		return nil, err
	}
	state := make(map[primitive.ObjectID]string, len(lines))
	for _, l := range lines {
		state[l.ID] = l.State
	}
	att := make([]capacity.Attendee, 0, len(parts))
	for _, p := range parts {
		att = append(att, capacity.Attendee{ContactID: p.ContactID, SubscriptionState: state[p.SubscriptionLineID]})
	}
	return att, nil
}

func (e *Engine) confirmedLecturer(ctx context.Context, seanceIDs []primitive.ObjectID) (bool, error) {
	if len(seanceIDs) == 0 {
		return false, nil
	}
	shs, err := e.st.Stakeholders.BySeances(ctx, seanceIDs)
	if err != nil {
		return false, err
	}
	for _, sh := range shs {
		if sh.State == models.StakeholderAccepted || sh.State == models.StakeholderDone {
			return true, nil
		}
	}
	return false, nil
}

func countLines(lines []models.SubscriptionLine) (draft, confirmed int) {
	for _, l := range lines {
		switch {
		case l.State == models.SubscriptionDraft:
			draft++
		case l.Counted():
			confirmed++
		}
	}
	return draft, confirmed
}
