package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/store/mailoutbox"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/email"
	"go.uber.org/zap"
)

type recordTransport struct {
	got []email.Message
	err error
}

func (r *recordTransport) Send(ctx context.Context, msg email.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, msg)
	return nil
}

func testMailer() (*Mailer, *recordTransport, *recordTransport) {
	plain, attached := &recordTransport{}, &recordTransport{}
	m := New(Config{Host: "localhost", Port: 1025, From: "noreply@coursehub.test", FromName: "CourseHub"}, zap.NewNop())
	m.plain, m.attached = plain, attached
	return m, plain, attached
}

func TestMailer_SendRoutesByAttachments(t *testing.T) {
	m, plain, attached := testMailer()
	ctx := context.Background()

	if err := m.Send(ctx, email.Message{To: []string{"ada@test.com"}, Subject: "plain", TextBody: "x"}); err != nil {
		t.Fatalf("Send plain: %v", err)
	}
	note := email.Message{
		To:          []string{"deliveries@catering.test"},
		Subject:     "note",
		TextBody:    "x",
		Attachments: []email.Attachment{{Filename: "delivery.html", ContentType: "text/html", Data: []byte("<h1>note</h1>")}},
	}
	if err := m.Send(ctx, note); err != nil {
		t.Fatalf("Send attached: %v", err)
	}
	if len(plain.got) != 1 || plain.got[0].Subject != "plain" {
		t.Errorf("plain transport: %+v", plain.got)
	}
	if len(attached.got) != 1 || string(attached.got[0].Attachments[0].Data) != "<h1>note</h1>" {
		t.Errorf("attachment transport: %+v", attached.got)
	}
}

func TestMailer_SendErrors(t *testing.T) {
	m, plain, _ := testMailer()
	if err := m.Send(context.Background(), email.Message{Subject: "nobody"}); err == nil {
		t.Error("expected error without recipients")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, email.Message{To: []string{"a@test.com"}, TextBody: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation to reach the transport, got %v", err)
	}

	plain.err = errors.New("refused")
	if err := m.Send(context.Background(), email.Message{To: []string{"a@test.com"}, TextBody: "x"}); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestAttachSender_Build(t *testing.T) {
	s := newAttachSender(Config{From: "noreply@coursehub.test", FromName: "CourseHub"})
	if s.cfg.Port != 587 || s.cfg.Timeout != 30*time.Second {
		t.Errorf("defaults: port %d timeout %v", s.cfg.Port, s.cfg.Timeout)
	}

	m, err := s.build(email.Message{
		To:          []string{"ada@test.com"},
		Subject:     "Delivery note",
		TextBody:    "plain body",
		HTMLBody:    "<p>html body</p>",
		Attachments: []email.Attachment{{Filename: "delivery.html", ContentType: "text/html", Data: []byte("<h1>note</h1>")}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"CourseHub", "ada@test.com", "Delivery note", "multipart/mixed", "multipart/alternative", "delivery.html"} {
		if !strings.Contains(out, want) {
			t.Errorf("message missing %q", want)
		}
	}

	if _, err := s.build(email.Message{To: []string{"ada@test.com"}}); err == nil {
		t.Error("expected error for empty body")
	}
	if _, err := s.build(email.Message{To: []string{"not an address"}, TextBody: "x"}); err == nil {
		t.Error("expected error for invalid recipient")
	}
}

func TestRender_AllTemplates(t *testing.T) {
	data := models.NotificationData{
		SessionName:  "Welding basics",
		ContactName:  "Ada",
		SupplierName: "Catering",
		Notes:        "<p>Room 4</p><script>x()</script>",
		Seances: []models.SeanceSummary{
			{Name: "Day 1", Date: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), Duration: 3.5},
		},
	}
	for _, id := range Templates() {
		t.Run(id, func(t *testing.T) {
			e, err := Render(id, "CourseHub", data)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !strings.HasPrefix(e.Subject, "CourseHub: ") {
				t.Errorf("subject: %q", e.Subject)
			}
			if !strings.Contains(e.TextBody, "Day 1") || !strings.Contains(e.HTMLBody, "Day 1") {
				t.Error("seance list missing")
			}
			if !strings.Contains(e.TextBody, "Monday 2 March 2026") {
				t.Errorf("date not formatted: %q", e.TextBody)
			}
			if strings.Contains(e.HTMLBody, "<script>") {
				t.Error("unsanitized notes in html body")
			}
		})
	}
}

func TestRender_ConfirmedIncludesNotes(t *testing.T) {
	e, err := Render(models.TemplateSessionConfirmed, "CourseHub", models.NotificationData{
		SessionName: "Welding basics",
		Notes:       "Bring gloves",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(e.HTMLBody, "<p>Bring gloves</p>") {
		t.Errorf("notes missing from html: %s", e.HTMLBody)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	if _, err := Render("nope", "CourseHub", models.NotificationData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

type memOutbox struct{ mails []mailoutbox.Mail }

func (o *memOutbox) Enqueue(_ context.Context, m mailoutbox.Mail) (mailoutbox.Mail, error) {
	o.mails = append(o.mails, m)
	return m, nil
}

func TestNotifier_Send(t *testing.T) {
	out := &memOutbox{}
	n := NewNotifier(out, "CourseHub")
	ctx := context.Background()

	err := n.Send(ctx, models.Message{
		Template:    models.TemplateSupplierDelivery,
		To:          []models.Recipient{{Name: "Catering", Email: "deliveries@catering.test"}},
		Data:        models.NotificationData{SessionName: "Welding basics", SupplierName: "Catering"},
		Attachments: []models.Document{{Filename: "note.html", ContentType: "text/html", Content: []byte("x")}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(out.mails) != 1 {
		t.Fatalf("queued: %d", len(out.mails))
	}
	e := FromOutbox(out.mails[0])
	if len(e.To) != 1 || e.To[0] != "deliveries@catering.test" {
		t.Errorf("to: %v", e.To)
	}
	if len(e.Attachments) != 1 || e.Attachments[0].Filename != "note.html" {
		t.Errorf("attachments: %+v", e.Attachments)
	}

	if err := n.Send(ctx, models.Message{Template: models.TemplateSupplierDelivery}); err == nil {
		t.Error("expected error without recipients")
	}
	if err := n.Send(ctx, models.Message{Template: "nope", To: []models.Recipient{{Email: "a@test.com"}}}); err == nil {
		t.Error("expected error for unknown template")
	}
}
