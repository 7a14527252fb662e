package workflow

import (
	"context"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Notification failures never abort a transition. A recipient that cannot
// be addressed, rendered or handed to the notifier is logged and skipped.

// notifySession sends subscriberTpl to every confirmed subscription line of
// the session and lecturerTpl to each accepted lecturer with the seances
// they teach.
func (e *Engine) notifySession(ctx context.Context, s models.Session, subscriberTpl, lecturerTpl string) error {
	if e.co.Notifier == nil {
		return nil
	}
	seances, err := e.st.Seances.ByIDs(ctx, s.SeanceIDs)
	if err != nil {
		return err
	}
	byID := make(map[primitive.ObjectID]models.Seance, len(seances))
	all := make([]models.SeanceSummary, 0, len(seances))
	for _, se := range seances {
		byID[se.ID] = se
		all = append(all, summarize(se))
	}

	lines, err := e.st.Lines.BySessions(ctx, []primitive.ObjectID{s.ID})
	if err != nil {
		return err
	}
	for _, l := range lines {
		if l.State != models.SubscriptionConfirmed {
			continue
		}
		e.send(ctx, l.ContactName, l.Email, models.Message{
			Template: subscriberTpl,
			Data: models.NotificationData{
				SessionName: s.Name,
				SessionDate: s.Date,
				Notes:       s.Notes,
				ContactName: l.ContactName,
				Seances:     all,
			},
		})
	}

	shs, err := e.st.Stakeholders.BySeances(ctx, s.SeanceIDs)
	if err != nil {
		return err
	}
	type lecturer struct {
		name, email string
		seances     []models.SeanceSummary
	}
	var order []primitive.ObjectID
	lecturers := map[primitive.ObjectID]*lecturer{}
	for _, sh := range shs {
		if sh.State != models.StakeholderAccepted {
			continue
		}
		se, ok := byID[sh.SeanceID]
		if !ok {
			continue
		}
		lc := lecturers[sh.ContactID]
		if lc == nil {
			lc = &lecturer{name: sh.Name, email: sh.Email}
			lecturers[sh.ContactID] = lc
			order = append(order, sh.ContactID)
		}
		lc.seances = append(lc.seances, summarize(se))
	}
	for _, id := range order {
		lc := lecturers[id]
		e.send(ctx, lc.name, lc.email, models.Message{
			Template: lecturerTpl,
			Data: models.NotificationData{
				SessionName: s.Name,
				SessionDate: s.Date,
				ContactName: lc.name,
				Seances:     lc.seances,
			},
		})
	}
	return nil
}

// notifySuppliers sends a delivery note to every distinct supplier named by
// the seance's purchase lines.
func (e *Engine) notifySuppliers(ctx context.Context, se models.Seance) error {
	if e.co.Notifier == nil {
		return nil
	}
	var ids []primitive.ObjectID
	for _, pl := range se.PurchaseLines {
		ids = append(ids, pl.SupplierIDs...)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	suppliers, err := e.st.Suppliers.ByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, sup := range suppliers {
		email, ok := sup.DeliveryEmail()
		if !ok {
			e.log.Warn("supplier has no delivery address; delivery note skipped",
				zap.String("supplier_id", sup.ID.Hex()),
				zap.String("seance_id", se.ID.Hex()))
			continue
		}
		data := models.NotificationData{
			SupplierName: sup.Name,
			Seances:      []models.SeanceSummary{summarize(se)},
		}
		msg := models.Message{Template: models.TemplateSupplierDelivery, Data: data}
		if e.co.Reporter != nil {
			doc, err := e.co.Reporter.Render(ctx, models.ReportDeliveryNote, se.ID, data)
			if err != nil {
				e.log.Warn("delivery note render failed; notice skipped",
					zap.String("supplier_id", sup.ID.Hex()),
					zap.String("seance_id", se.ID.Hex()),
					zap.Error(err))
				continue
			}
			msg.Attachments = []models.Document{doc}
		}
		e.send(ctx, sup.Name, email, msg)
	}
	return nil
}

func (e *Engine) send(ctx context.Context, name, email string, msg models.Message) {
	if email == "" {
		e.log.Warn("recipient has no email; notification skipped",
			zap.String("template", msg.Template),
			zap.String("recipient", name))
		return
	}
	msg.To = []models.Recipient{{Name: name, Email: email}}
	if err := e.co.Notifier.Send(ctx, msg); err != nil {
		e.log.Warn("notification failed",
			zap.String("template", msg.Template),
			zap.String("recipient", email),
			zap.Error(err))
	}
}

func summarize(se models.Seance) models.SeanceSummary {
	return models.SeanceSummary{Name: se.Name, Date: se.Date, Duration: se.Duration}
}
