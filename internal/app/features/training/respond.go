// internal/app/features/training/respond.go
package training

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(code errs.Code) int {
	switch code {
	case errs.CodePrecondition:
		return http.StatusConflict
	case errs.CodeInvariant:
		return http.StatusUnprocessableEntity
	case errs.CodeUnsupported:
		return http.StatusMethodNotAllowed
	case errs.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// fail writes err as a JSON error body. Domain errors carry their own
// message; anything else is logged and reported as internal.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.CodeOf(err)
	if code == "" {
		h.Log.Error("training api: operation failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})
		return
	}
	var de *errs.Error
	errors.As(err, &de)
	writeJSON(w, statusFor(code), errorResponse{Error: string(code), Message: de.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: msg})
}

// objectID parses the {id} URL parameter.
func objectID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
