// internal/app/system/mailer/notifier.go
package mailer

import (
	"context"
	"fmt"

	"github.com/dalemusser/coursehub/internal/app/store/mailoutbox"
	"github.com/dalemusser/coursehub/internal/app/workflow"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/email"
)

// Outbox stores rendered mail for the relay worker.
type Outbox interface {
	Enqueue(ctx context.Context, m mailoutbox.Mail) (mailoutbox.Mail, error)
}

// Notifier renders workflow notifications and queues them. Delivery is
// the relay worker's job, so a transition never waits on SMTP.
type Notifier struct {
	outbox   Outbox
	siteName string
}

func NewNotifier(outbox Outbox, siteName string) *Notifier {
	return &Notifier{outbox: outbox, siteName: siteName}
}

// Send implements workflow.Notifier.
func (n *Notifier) Send(ctx context.Context, msg models.Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("notification %s has no recipients", msg.Template)
	}
	e, err := Render(msg.Template, n.siteName, msg.Data)
	if err != nil {
		return err
	}
	_, err = n.outbox.Enqueue(ctx, mailoutbox.Mail{
		Template:    msg.Template,
		To:          msg.To,
		Subject:     e.Subject,
		TextBody:    e.TextBody,
		HTMLBody:    e.HTMLBody,
		Attachments: msg.Attachments,
	})
	return err
}

// FromOutbox converts a queued mail back into a message for delivery.
func FromOutbox(m mailoutbox.Mail) email.Message {
	to := make([]string, 0, len(m.To))
	for _, r := range m.To {
		if r.Email != "" {
			to = append(to, r.Email)
		}
	}
	atts := make([]email.Attachment, 0, len(m.Attachments))
	for _, d := range m.Attachments {
		atts = append(atts, email.Attachment{Filename: d.Filename, ContentType: d.ContentType, Data: d.Content})
	}
	return email.Message{
		To:          to,
		Subject:     m.Subject,
		TextBody:    m.TextBody,
		HTMLBody:    m.HTMLBody,
		Attachments: atts,
	}
}

var _ workflow.Notifier = (*Notifier)(nil)
