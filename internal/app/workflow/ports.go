package workflow

import (
	"context"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transactor runs fn inside one storage transaction. Every top-level
// transition and all of its cascades run inside a single call.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store getters return an *errs.Error with CodeNotFound when the entity
// does not exist. List methods return an empty slice for no match.

type SessionStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Session, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Session, error)
	BySeance(ctx context.Context, seanceID primitive.ObjectID) ([]models.Session, error)
	Create(ctx context.Context, s models.Session) (models.Session, error)
	SetState(ctx context.Context, id primitive.ObjectID, state models.SessionState) error
	SetLimits(ctx context.Context, id primitive.ObjectID, minLimit, maxLimit int) error
	SetSeances(ctx context.Context, id primitive.ObjectID, seanceIDs []primitive.ObjectID) error
	SetDate(ctx context.Context, id primitive.ObjectID, date time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SeanceStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Seance, error)
	// ByIDs returns the seances ordered by date ascending.
	ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Seance, error)
	Create(ctx context.Context, s models.Seance) (models.Seance, error)
	SetState(ctx context.Context, id primitive.ObjectID, state models.SeanceState) error
	SetLimits(ctx context.Context, id primitive.ObjectID, minLimit, maxLimit int) error
	SetDate(ctx context.Context, id primitive.ObjectID, date time.Time) error
	SetGroup(ctx context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error
	SetProcurement(ctx context.Context, id, purchaseLineID primitive.ObjectID, procurementID string) error
	// OpenForCourses lists opened, non-duplicated seances of the given
	// courses dated on or after from, ordered by date.
	OpenForCourses(ctx context.Context, courseIDs []primitive.ObjectID, from time.Time) ([]models.Seance, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type GroupStore interface {
	Create(ctx context.Context, g models.Group) (models.Group, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	// BySession returns the session's groups ordered by id.
	BySession(ctx context.Context, sessionID primitive.ObjectID) ([]models.Group, error)
	DeleteBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error)
}

type ParticipationStore interface {
	Create(ctx context.Context, p models.Participation) (models.Participation, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Participation, error)
	BySeances(ctx context.Context, seanceIDs []primitive.ObjectID) ([]models.Participation, error)
	ByLine(ctx context.Context, lineID primitive.ObjectID) ([]models.Participation, error)
	SetPurchaseRefs(ctx context.Context, id primitive.ObjectID, refs []string) error
	SetPurchaseState(ctx context.Context, ids []primitive.ObjectID, state string) error
	DeleteBySeance(ctx context.Context, seanceID primitive.ObjectID) (int64, error)
	DeleteByLine(ctx context.Context, lineID primitive.ObjectID) (int64, error)
}

type SubscriptionLineStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.SubscriptionLine, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.SubscriptionLine, error)
	BySessions(ctx context.Context, sessionIDs []primitive.ObjectID) ([]models.SubscriptionLine, error)
	BySubscription(ctx context.Context, subscriptionID primitive.ObjectID) ([]models.SubscriptionLine, error)
	SetState(ctx context.Context, id primitive.ObjectID, state string) error
	SetInvoiceLine(ctx context.Context, id primitive.ObjectID, ref string) error
}

type StakeholderStore interface {
	BySeances(ctx context.Context, seanceIDs []primitive.ObjectID) ([]models.Stakeholder, error)
	SetState(ctx context.Context, id primitive.ObjectID, state string) error
}

type RequestStore interface {
	BySession(ctx context.Context, sessionID primitive.ObjectID) ([]models.StakeholderRequest, error)
	SetState(ctx context.Context, id primitive.ObjectID, state string) error
}

type OfferStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Offer, error)
}

type SupplierDirectory interface {
	ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Supplier, error)
}

// Procurement is the purchasing collaborator.
type Procurement interface {
	// CreateFromLine issues one purchase order for a purchase-line template.
	CreateFromLine(ctx context.Context, seanceID primitive.ObjectID, line models.PurchaseLine, quantity float64, locationHint string) (models.PurchaseOrder, error)
	// Orders returns the orders owning any of the given order-line refs.
	Orders(ctx context.Context, lineRefs []string) ([]models.PurchaseOrder, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Invoicing is the accounting collaborator. CreateInvoices returns the
// invoice-line reference created for each subscription line.
type Invoicing interface {
	CreateInvoices(ctx context.Context, session models.Session, lines []models.SubscriptionLine) (map[primitive.ObjectID]string, error)
}

// Notifier is the email collaborator.
type Notifier interface {
	Send(ctx context.Context, msg models.Message) error
}

// Reporter is the report-rendering collaborator.
type Reporter interface {
	Render(ctx context.Context, templateID string, entityID primitive.ObjectID, data models.NotificationData) (models.Document, error)
}

// HolidayCalendar answers whether a date falls in a public holiday.
type HolidayCalendar interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

// Auditor records successful top-level transitions.
type Auditor interface {
	Transition(ctx context.Context, rec TransitionRecord)
}

// TransitionRecord describes one applied top-level transition.
type TransitionRecord struct {
	Entity        string
	ID            primitive.ObjectID
	Event         string
	From          string
	To            string
	CorrelationID string
}
