// internal/app/features/training/handler.go
package training

import (
	"context"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/lifecycle"
	"github.com/dalemusser/coursehub/internal/app/workflow"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Workflow is the part of *workflow.Engine the operations API drives.
type Workflow interface {
	SessionAvailability(ctx context.Context, id primitive.ObjectID) (workflow.Availability, error)
	SeanceAvailability(ctx context.Context, id primitive.ObjectID) (workflow.Availability, error)
	FireSession(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event) error
	FireSeance(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event) error
	CopySession(ctx context.Context, id primitive.ObjectID) (models.Session, error)
	CopySeance(ctx context.Context, id primitive.ObjectID) (models.Seance, error)
	DeleteSession(ctx context.Context, id primitive.ObjectID) error
	DeleteSeance(ctx context.Context, id primitive.ObjectID) error
	Attach(ctx context.Context, lineID primitive.ObjectID) ([]models.Participation, error)
	OpenSeancesForOffer(ctx context.Context, offerID primitive.ObjectID, from time.Time) ([]models.Seance, error)
}

// Handler serves the training operations API. It is thin glue: every
// request maps to one workflow operation.
type Handler struct {
	Flow Workflow
	Log  *zap.Logger
}

func NewHandler(flow Workflow, logger *zap.Logger) *Handler {
	return &Handler{
		Flow: flow,
		Log:  logger,
	}
}
