package workflow

import (
	"context"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Attach creates the participations of a subscription line: one per seance
// of the first group (lowest id) that has seances, or one per session
// seance when the session has no groups. Seances the line already
// participates in are skipped. Participations on confirmed seances are
// procured immediately.
func (e *Engine) Attach(ctx context.Context, lineID primitive.ObjectID) ([]models.Participation, error) {
	var created []models.Participation
	err := e.op(ctx, "subscription_line", lineID, "attach", func(ctx context.Context) error {
		line, err := e.st.Lines.Get(ctx, lineID)
		if err != nil {
			return err
		}
		s, err := e.st.Sessions.Get(ctx, line.SessionID)
		if err != nil {
			return err
		}
		targets, err := e.attachTargets(ctx, s)
		if err != nil {
			return err
		}

		existing, err := e.st.Participations.ByLine(ctx, lineID)
		if err != nil {
			return err
		}
		have := make(map[primitive.ObjectID]struct{}, len(existing))
		for _, p := range existing {
			have[p.SeanceID] = struct{}{}
		}

		now := e.opts.Now()
		for _, se := range targets {
			if _, ok := have[se.ID]; ok {
				continue
			}
			p, err := e.st.Participations.Create(ctx, models.Participation{
				ID:                 primitive.NewObjectID(),
				SeanceID:           se.ID,
				SubscriptionLineID: line.ID,
				ContactID:          line.ContactID,
				PurchaseLineRefs:   []string{},
				PurchaseState:      models.PurchasePending,
				CreatedAt:          now,
			})
			if err != nil {
				return err
			}
			if se.State == models.SeanceConfirmed {
				if err := e.createProcurements(ctx, []primitive.ObjectID{p.ID}); err != nil {
					return err
				}
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("subscription line attached",
		zap.String("subscription_line_id", lineID.Hex()),
		zap.Int("participations", len(created)))
	return created, nil
}

// attachTargets picks the seances a new subscriber attends.
func (e *Engine) attachTargets(ctx context.Context, s models.Session) ([]models.Seance, error) {
	seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
	if err != nil {
		return nil, err
	}
	groups, err := e.st.Groups.BySession(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return seances, nil
	}
	for _, g := range groups {
		var in []models.Seance
		for _, se := range seances {
			if se.GroupID != nil && *se.GroupID == g.ID {
				in = append(in, se)
			}
		}
		if len(in) > 0 {
			return in, nil
		}
	}
	return nil, nil
}

// Detach removes every participation of a subscription line. Purchase
// orders already issued for them are left alone.
func (e *Engine) Detach(ctx context.Context, lineID primitive.ObjectID) error {
	return e.op(ctx, "subscription_line", lineID, "detach", func(ctx context.Context) error {
		return e.detach(ctx, lineID)
	})
}

func (e *Engine) detach(ctx context.Context, lineID primitive.ObjectID) error {
	_, err := e.st.Participations.DeleteByLine(ctx, lineID)
	return err
}

// CreateProcurements issues the purchase orders for a batch of
// participations. See createProcurements.
func (e *Engine) CreateProcurements(ctx context.Context, ids []primitive.ObjectID) error {
	var first primitive.ObjectID
	if len(ids) > 0 {
		first = ids[0]
	}
	return e.op(ctx, "participation", first, "create_procurements", func(ctx context.Context) error {
		return e.createProcurements(ctx, ids)
	})
}

// createProcurements issues one purchase order per purchase-line template
// of the seances the participations attend. A by_subscription template
// orders its base quantity once per participation in the whole batch,
// whichever seance they attend; any other template orders the base
// quantity once. Each
// participation's refs are replaced by the order-line refs of its seance's
// orders and all of them are marked done.
func (e *Engine) createProcurements(ctx context.Context, ids []primitive.ObjectID) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	parts, err := e.st.Participations.ByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	bySeance := map[primitive.ObjectID][]models.Participation{}
	var seanceIDs []primitive.ObjectID
	for _, p := range parts {
		if _, ok := bySeance[p.SeanceID]; !ok {
			seanceIDs = append(seanceIDs, p.SeanceID)
		}
		bySeance[p.SeanceID] = append(bySeance[p.SeanceID], p)
	}
	seances, err := e.st.Seances.ByIDs(ctx, seanceIDs)
	if err != nil {
		return err
	}

	count := len(parts)
	for _, se := range seances {
		batch := bySeance[se.ID]
		var refs []string
		for _, pl := range se.PurchaseLines {
			order, err := e.order(ctx, se.ID, pl, count)
			if err != nil {
				return err
			}
			refs = append(refs, order.LineRefs...)
		}
		for _, p := range batch {
			if err := e.st.Participations.SetPurchaseRefs(ctx, p.ID, refs); err != nil {
				return err
			}
		}
	}

	done := make([]primitive.ObjectID, 0, len(parts))
	for _, p := range parts {
		done = append(done, p.ID)
	}
	return e.st.Participations.SetPurchaseState(ctx, done, models.PurchaseDone)
}

// procureSeance runs the procurement of a seance being confirmed. A manual
// seance orders against its manual headcount; otherwise every pending
// participation whose subscription counts is procured.
func (e *Engine) procureSeance(ctx context.Context, se models.Seance) error {
	if se.Manual {
		for _, pl := range se.PurchaseLines {
			if _, err := e.order(ctx, se.ID, pl, se.ManualCount); err != nil {
				return err
			}
		}
		return nil
	}

	parts, err := e.st.Participations.BySeances(ctx, []primitive.ObjectID{se.ID})
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
	counted := make(map[primitive.ObjectID]bool, len(lines))
	for _, l := range lines {
		counted[l.ID] = l.Counted()
	}

	var ids []primitive.ObjectID
	for _, p := range parts {
		if p.PurchaseState == models.PurchaseDone || !counted[p.SubscriptionLineID] {
			continue
		}
		ids = append(ids, p.ID)
	}
	return e.createProcurements(ctx, ids)
}

// order issues one purchase order for a template and stamps the order id
// on the template.
func (e *Engine) order(ctx context.Context, seanceID primitive.ObjectID, pl models.PurchaseLine, count int) (models.PurchaseOrder, error) {
	qty := pl.Quantity
	if pl.Fix == models.QuantityBySubscription {
		qty *= float64(count)
	}
	order, err := e.co.Procurement.CreateFromLine(ctx, seanceID, pl, qty, e.opts.LocationHint)
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	if err := e.st.Seances.SetProcurement(ctx, seanceID, pl.ID, order.ID); err != nil {
		return models.PurchaseOrder{}, err
	}
	return order, nil
}
