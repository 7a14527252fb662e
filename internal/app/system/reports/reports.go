// Package reports renders the documents attached to notifications.
package reports

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/dalemusser/coursehub/internal/app/workflow"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const deliveryNoteHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Delivery note</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h1 style="font-size: 20px;">{{.SiteName}}: delivery note</h1>
  <p>Supplier: <strong>{{.SupplierName}}</strong></p>
  {{if .SessionName}}<p>Session: {{.SessionName}}</p>{{end}}
  <table style="border-collapse: collapse; width: 100%;">
    <thead>
      <tr>
        <th style="text-align: left; border-bottom: 1px solid #d1d5db;">Seance</th>
        <th style="text-align: left; border-bottom: 1px solid #d1d5db;">Date</th>
        <th style="text-align: right; border-bottom: 1px solid #d1d5db;">Hours</th>
      </tr>
    </thead>
    <tbody>
      {{range .Seances}}
      <tr>
        <td>{{.Name}}</td>
        <td>{{.Date.Format "2006-01-02 15:04"}}</td>
        <td style="text-align: right;">{{.Duration}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  <p style="font-size: 12px; color: #6b7280;">Reference {{.Reference}}, generated {{.Generated.Format "2006-01-02 15:04 MST"}}</p>
</body>
</html>`

var templates = map[string]*template.Template{
	models.ReportDeliveryNote: template.Must(template.New(models.ReportDeliveryNote).Parse(deliveryNoteHTML)),
}

type view struct {
	models.NotificationData
	SiteName  string
	Reference string
	Generated time.Time
}

// Renderer renders report templates to HTML documents.
type Renderer struct {
	siteName string
	now      func() time.Time
}

func New(siteName string) *Renderer {
	return &Renderer{siteName: siteName, now: func() time.Time { return time.Now().UTC() }}
}

// Render implements workflow.Reporter.
func (r *Renderer) Render(_ context.Context, templateID string, entityID primitive.ObjectID, data models.NotificationData) (models.Document, error) {
	t, ok := templates[templateID]
	if !ok {
		return models.Document{}, fmt.Errorf("unknown report template %q", templateID)
	}
	var buf bytes.Buffer
	err := t.Execute(&buf, view{
		NotificationData: data,
		SiteName:         r.siteName,
		Reference:        entityID.Hex(),
		Generated:        r.now(),
	})
	if err != nil {
		return models.Document{}, fmt.Errorf("render %s: %w", templateID, err)
	}
	return models.Document{
		Filename:    fmt.Sprintf("%s-%s.html", templateID, entityID.Hex()),
		ContentType: "text/html; charset=utf-8",
		Content:     buf.Bytes(),
	}, nil
}

var _ workflow.Reporter = (*Renderer)(nil)
