package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Backlog reports how many notifications are still waiting for delivery.
type Backlog interface {
	CountPending(ctx context.Context) (int64, error)
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client Pinger
	Mail   Backlog
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. mail may be nil.
func NewHandler(client Pinger, mail Backlog, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Mail:   mail,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	MailPending *int64 `json:"mail_pending,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "mail_pending":0 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Informational only; a slow outbox count never fails the check.
	if h.Mail != nil {
		if n, err := h.Mail.CountPending(ctx); err != nil {
			h.Log.Warn("health-check: mail backlog unavailable", zap.Error(err))
		} else {
			resp.MailPending = &n
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
