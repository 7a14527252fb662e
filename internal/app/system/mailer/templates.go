// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/email"
)

// NotificationView is the data every notification template renders from.
type NotificationView struct {
	models.NotificationData
	SiteName  string
	NotesHTML template.HTML
}

type notification struct {
	subject string
	text    string
	html    string
}

var notifications = map[string]notification{
	models.TemplateSessionConfirmed: {
		subject: "{{.SiteName}}: {{.SessionName}} will take place",
		text: `Hello {{.ContactName}},

The session {{.SessionName}} is confirmed and will take place as planned.
{{template "seances" .}}{{if .Notes}}
{{.Notes}}
{{end}}`,
		html: `<p>Hello {{.ContactName}},</p>
<p>The session <strong>{{.SessionName}}</strong> is confirmed and will take place as planned.</p>
{{template "seances" .}}{{.NotesHTML}}`,
	},
	models.TemplateSessionCancelled: {
		subject: "{{.SiteName}}: {{.SessionName}} is cancelled",
		text: `Hello {{.ContactName}},

We are sorry to let you know that the session {{.SessionName}} has been cancelled.
{{template "seances" .}}`,
		html: `<p>Hello {{.ContactName}},</p>
<p>We are sorry to let you know that the session <strong>{{.SessionName}}</strong> has been cancelled.</p>
{{template "seances" .}}`,
	},
	models.TemplateLecturerConfirmed: {
		subject: "{{.SiteName}}: you are teaching {{.SessionName}}",
		text: `Hello {{.ContactName}},

The session {{.SessionName}} is confirmed. You are expected for:
{{template "seances" .}}{{if .Notes}}
{{.Notes}}
{{end}}`,
		html: `<p>Hello {{.ContactName}},</p>
<p>The session <strong>{{.SessionName}}</strong> is confirmed. You are expected for:</p>
{{template "seances" .}}{{.NotesHTML}}`,
	},
	models.TemplateLecturerCancelled: {
		subject: "{{.SiteName}}: {{.SessionName}} is cancelled",
		text: `Hello {{.ContactName}},

The session {{.SessionName}} has been cancelled. You are released from:
{{template "seances" .}}`,
		html: `<p>Hello {{.ContactName}},</p>
<p>The session <strong>{{.SessionName}}</strong> has been cancelled. You are released from:</p>
{{template "seances" .}}`,
	},
	models.TemplateSupplierDelivery: {
		subject: "{{.SiteName}}: delivery note for {{range $i, $s := .Seances}}{{if $i}}, {{end}}{{$s.Name}}{{end}}",
		text: `Hello {{.SupplierName}},

Please find attached the delivery note for:
{{template "seances" .}}`,
		html: `<p>Hello {{.SupplierName}},</p>
<p>Please find attached the delivery note for:</p>
{{template "seances" .}}`,
	},
}

const seancesText = `{{define "seances"}}{{range .Seances}}
  - {{.Name}}, {{when .Date}}{{if .Duration}} ({{.Duration}} h){{end}}{{end}}
{{end}}`

const seancesHTML = `{{define "seances"}}{{if .Seances}}<ul>{{range .Seances}}<li>{{.Name}}, {{when .Date}}{{if .Duration}} ({{.Duration}} h){{end}}</li>{{end}}</ul>{{end}}{{end}}`

const layoutHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px 32px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 20px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; font-size: 15px; color: #374151; line-height: 1.5;">
              {{template "content" .}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

var funcs = map[string]any{
	"when": func(t time.Time) string { return t.Format("Monday 2 January 2006, 15:04") },
}

type compiled struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *template.Template
}

var compiledNotifications = func() map[string]compiled {
	out := make(map[string]compiled, len(notifications))
	for id, n := range notifications {
		out[id] = compiled{
			subject: texttemplate.Must(texttemplate.New(id).Parse(n.subject)),
			text:    texttemplate.Must(texttemplate.Must(texttemplate.New(id).Funcs(funcs).Parse(seancesText)).Parse(n.text)),
			html: template.Must(template.Must(template.Must(
				template.New(id).Funcs(funcs).Parse(layoutHTML)).
				Parse(seancesHTML)).
				Parse(`{{define "content"}}` + n.html + `{{end}}`)),
		}
	}
	return out
}()

// Templates lists the known notification template ids.
func Templates() []string {
	out := make([]string, 0, len(notifications))
	for id := range notifications {
		out = append(out, id)
	}
	return out
}

// Render builds the email for one notification. Recipients are left to
// the caller.
func Render(templateID, siteName string, data models.NotificationData) (email.Message, error) {
	c, ok := compiledNotifications[templateID]
	if !ok {
		return email.Message{}, fmt.Errorf("unknown notification template %q", templateID)
	}
	view := NotificationView{
		NotificationData: data,
		SiteName:         siteName,
		NotesHTML:        htmlsanitize.PrepareForDisplay(data.Notes),
	}

	var subject, text, html bytes.Buffer
	if err := c.subject.Execute(&subject, view); err != nil {
		return email.Message{}, fmt.Errorf("render %s subject: %w", templateID, err)
	}
	if err := c.text.Execute(&text, view); err != nil {
		return email.Message{}, fmt.Errorf("render %s text: %w", templateID, err)
	}
	if err := c.html.Execute(&html, view); err != nil {
		return email.Message{}, fmt.Errorf("render %s html: %w", templateID, err)
	}
	return email.Message{
		Subject:  strings.TrimSpace(subject.String()),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
