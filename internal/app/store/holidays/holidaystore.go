// internal/app/store/holidays/holidaystore.go
package holidaystore

import (
	"context"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the public-holiday calendar.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("holiday_periods")}
}

// Create inserts a holiday period. End may equal Start for a single day.
func (s *Store) Create(ctx context.Context, h models.HolidayPeriod) (models.HolidayPeriod, error) {
	if h.End.Before(h.Start) {
		return models.HolidayPeriod{}, errs.Invariant("holiday %s ends before it starts", h.Name)
	}
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, h); err != nil {
		return models.HolidayPeriod{}, err
	}
	return h, nil
}

// IsHoliday reports whether date falls on a day covered by a holiday
// period. Both ends of a period are inclusive whole days.
func (s *Store) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	n, err := s.c.CountDocuments(ctx, bson.M{
		"start": bson.M{"$lt": dayEnd},
		"end":   bson.M{"$gte": dayStart},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
