// internal/app/store/mailoutbox/mailoutbox.go
package mailoutbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mail states.
const (
	StatePending = "pending"
	StateSent    = "sent"
	StateFailed  = "failed"
)

// Mail is one rendered email waiting for the relay.
type Mail struct {
	ID          primitive.ObjectID `bson:"_id"`
	Template    string             `bson:"template"`
	To          []models.Recipient `bson:"to"`
	Subject     string             `bson:"subject"`
	TextBody    string             `bson:"text_body"`
	HTMLBody    string             `bson:"html_body"`
	Attachments []models.Document  `bson:"attachments,omitempty"`
	State       string             `bson:"state"`
	Attempts    int                `bson:"attempts"`
	LastError   string             `bson:"last_error,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	SentAt      *time.Time         `bson:"sent_at,omitempty"`
}

// Store persists outgoing mail. Enqueue runs inside the workflow
// transaction, so mail for a rolled-back transition is never sent.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mail_outbox")}
}

// Enqueue stores m as pending.
func (s *Store) Enqueue(ctx context.Context, m Mail) (Mail, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.State = StatePending
	m.Attempts = 0
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return Mail{}, fmt.Errorf("enqueue mail: %w", err)
	}
	return m, nil
}

// Get returns one mail.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (Mail, error) {
	var m Mail
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return Mail{}, errs.NotFound("mail", id.Hex(), err)
		}
		return Mail{}, err
	}
	return m, nil
}

// Pending returns up to limit pending mails, oldest first.
func (s *Store) Pending(ctx context.Context, limit int64) ([]Mail, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"state": StatePending}, opts)
	if err != nil {
		return nil, fmt.Errorf("find pending mail: %w", err)
	}
	defer cur.Close(ctx)

	out := []Mail{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode pending mail: %w", err)
	}
	return out, nil
}

// MarkSent records a successful delivery.
func (s *Store) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	return s.update(ctx, id, bson.M{
		"$set": bson.M{"state": StateSent, "sent_at": now},
		"$inc": bson.M{"attempts": 1},
	})
}

// MarkAttemptFailed records a failed delivery. The mail stays pending
// until it has failed maxAttempts times.
func (s *Store) MarkAttemptFailed(ctx context.Context, id primitive.ObjectID, cause error, maxAttempts int) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	state := StatePending
	if m.Attempts+1 >= maxAttempts {
		state = StateFailed
	}
	return s.update(ctx, id, bson.M{
		"$set": bson.M{"state": state, "last_error": cause.Error()},
		"$inc": bson.M{"attempts": 1},
	})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, upd bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("mail", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

// CountPending returns the number of mails the relay has not delivered yet.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"state": StatePending})
}
