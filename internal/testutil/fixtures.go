package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert into %s: %v", coll, err)
	}
}

// CreateSeance creates an opened seance on the given date with the given limits.
func (f *Fixtures) CreateSeance(ctx context.Context, name string, date time.Time, minLimit, maxLimit int) models.Seance {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.Seance{
		ID:            primitive.NewObjectID(),
		Name:          name,
		State:         models.SeanceOpened,
		Date:          date,
		Duration:      2,
		MinLimit:      minLimit,
		MaxLimit:      maxLimit,
		PurchaseLines: []models.PurchaseLine{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "seances", s)
	return s
}

// CreateSession creates a draft session containing the given seances.
func (f *Fixtures) CreateSession(ctx context.Context, name string, date time.Time, seanceIDs ...primitive.ObjectID) models.Session {
	f.t.Helper()

	if seanceIDs == nil {
		seanceIDs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	s := models.Session{
		ID:        primitive.NewObjectID(),
		Name:      name,
		State:     models.SessionDraft,
		SeanceIDs: seanceIDs,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "sessions", s)
	return s
}

// CreateLine creates a subscription line for a fresh contact.
func (f *Fixtures) CreateLine(ctx context.Context, sessionID primitive.ObjectID, state string) models.SubscriptionLine {
	f.t.Helper()

	l := models.SubscriptionLine{
		ID:             primitive.NewObjectID(),
		SubscriptionID: primitive.NewObjectID(),
		SessionID:      sessionID,
		ContactID:      primitive.NewObjectID(),
		ContactName:    "Test Contact",
		Email:          "contact@test.com",
		State:          state,
	}
	f.insert(ctx, "subscription_lines", l)
	return l
}

// CreateOffer creates a validated offer composed of the given courses.
func (f *Fixtures) CreateOffer(ctx context.Context, name string, courseIDs ...primitive.ObjectID) models.Offer {
	f.t.Helper()

	if courseIDs == nil {
		courseIDs = []primitive.ObjectID{}
	}
	o := models.Offer{
		ID:        primitive.NewObjectID(),
		Name:      name,
		State:     "validated",
		CourseIDs: courseIDs,
	}
	f.insert(ctx, "offers", o)
	return o
}

// CreateSupplier creates a supplier with one address of the given type.
func (f *Fixtures) CreateSupplier(ctx context.Context, name, addrType, email string) models.Supplier {
	f.t.Helper()

	s := models.Supplier{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Addresses: []models.Address{{Type: addrType, Email: email}},
	}
	f.insert(ctx, "suppliers", s)
	return s
}

// CreateStakeholder creates a lecturer stakeholder on a seance.
func (f *Fixtures) CreateStakeholder(ctx context.Context, seanceID primitive.ObjectID, state string) models.Stakeholder {
	f.t.Helper()

	s := models.Stakeholder{
		ID:        primitive.NewObjectID(),
		SeanceID:  seanceID,
		ContactID: primitive.NewObjectID(),
		Name:      "Test Lecturer",
		Email:     "lecturer@test.com",
		State:     state,
	}
	f.insert(ctx, "stakeholders", s)
	return s
}

// CreateRequest creates a stakeholder request on a session.
func (f *Fixtures) CreateRequest(ctx context.Context, sessionID primitive.ObjectID, state string) models.StakeholderRequest {
	f.t.Helper()

	r := models.StakeholderRequest{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		ContactID: primitive.NewObjectID(),
		State:     state,
	}
	f.insert(ctx, "stakeholder_requests", r)
	return r
}

// CreateHoliday creates a holiday period covering [start, end].
func (f *Fixtures) CreateHoliday(ctx context.Context, name string, start, end time.Time) models.HolidayPeriod {
	f.t.Helper()

	h := models.HolidayPeriod{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Start: start,
		End:   end,
	}
	f.insert(ctx, "holiday_periods", h)
	return h
}
