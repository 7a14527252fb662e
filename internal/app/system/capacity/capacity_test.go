package capacity_test

import (
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/capacity"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid() *primitive.ObjectID {
	id := primitive.NewObjectID()
	return &id
}

func seance(minL, maxL int, course, group *primitive.ObjectID) models.Seance {
	return models.Seance{
		ID:       primitive.NewObjectID(),
		MinLimit: minL,
		MaxLimit: maxL,
		CourseID: course,
		GroupID:  group,
	}
}

func TestComputeLimits(t *testing.T) {
	course := oid()
	otherCourse := oid()
	g1, g2, g3 := oid(), oid(), oid()

	tests := []struct {
		name    string
		seances []models.Seance
		want    capacity.Limits
	}{
		{
			name:    "no seances",
			seances: nil,
			want:    capacity.Limits{Min: 0, Max: 0},
		},
		{
			name:    "single seance",
			seances: []models.Seance{seance(4, 12, nil, nil)},
			want:    capacity.Limits{Min: 4, Max: 12},
		},
		{
			name: "no groups takes tightest seance",
			seances: []models.Seance{
				seance(2, 5, nil, nil),
				seance(3, 5, nil, nil),
			},
			want: capacity.Limits{Min: 2, Max: 5},
		},
		{
			name: "two groups sharing one course doubles max",
			seances: []models.Seance{
				seance(2, 5, course, g1),
				seance(3, 5, course, g2),
			},
			want: capacity.Limits{Min: 2, Max: 10},
		},
		{
			name: "groups on different courses do not multiply",
			seances: []models.Seance{
				seance(1, 8, course, g1),
				seance(1, 8, otherCourse, g2),
			},
			want: capacity.Limits{Min: 1, Max: 8},
		},
		{
			name: "widest course decides the multiplier",
			seances: []models.Seance{
				seance(1, 6, course, g1),
				seance(1, 6, course, g2),
				seance(1, 6, course, g3),
				seance(1, 9, otherCourse, g1),
			},
			want: capacity.Limits{Min: 1, Max: 18},
		},
		{
			name: "same group twice counts once",
			seances: []models.Seance{
				seance(1, 6, course, g1),
				seance(2, 7, course, g1),
			},
			want: capacity.Limits{Min: 1, Max: 6},
		},
		{
			name: "courseless grouped seances pool under zero course",
			seances: []models.Seance{
				seance(1, 4, nil, g1),
				seance(1, 4, nil, g2),
			},
			want: capacity.Limits{Min: 1, Max: 8},
		},
		{
			name: "ungrouped seance still bounds the per-track max",
			seances: []models.Seance{
				seance(1, 10, course, g1),
				seance(1, 10, course, g2),
				seance(0, 3, nil, nil),
			},
			want: capacity.Limits{Min: 0, Max: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capacity.ComputeLimits(tt.seances)
			if got != tt.want {
				t.Errorf("ComputeLimits() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHeadcount(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	carol := primitive.NewObjectID()

	attendees := []capacity.Attendee{
		{ContactID: alice, SubscriptionState: models.SubscriptionConfirmed},
		{ContactID: alice, SubscriptionState: models.SubscriptionConfirmed}, // second seance, same contact
		{ContactID: bob, SubscriptionState: models.SubscriptionDone},
		{ContactID: carol, SubscriptionState: models.SubscriptionDraft},
		{ContactID: carol, SubscriptionState: models.SubscriptionCancelled},
	}

	if got := capacity.Headcount(false, 0, attendees); got != 2 {
		t.Errorf("computed headcount: got %d, want 2", got)
	}
	if got := capacity.Headcount(true, 17, attendees); got != 17 {
		t.Errorf("manual headcount: got %d, want 17", got)
	}
	if got := capacity.Headcount(true, 0, attendees); got != 0 {
		t.Errorf("manual zero headcount: got %d, want 0", got)
	}
	if got := capacity.Headcount(false, 99, nil); got != 0 {
		t.Errorf("empty headcount: got %d, want 0", got)
	}
}

func TestAvailableSeats_AllowsOverbooking(t *testing.T) {
	if got := capacity.AvailableSeats(5, 3); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
	if got := capacity.AvailableSeats(5, 8); got != -3 {
		t.Errorf("got %d, want -3", got)
	}
}

func TestMinLimitReached(t *testing.T) {
	tests := []struct {
		min, count int
		want       bool
	}{
		{3, 2, false},
		{3, 3, true},
		{3, 4, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		if got := capacity.MinLimitReached(tt.min, tt.count); got != tt.want {
			t.Errorf("MinLimitReached(%d, %d) = %v, want %v", tt.min, tt.count, got, tt.want)
		}
	}
}

func TestSummarize_ManualIgnoresRows(t *testing.T) {
	attendees := []capacity.Attendee{
		{ContactID: primitive.NewObjectID(), SubscriptionState: models.SubscriptionConfirmed},
	}
	snap := capacity.Summarize(capacity.Limits{Min: 2, Max: 10}, true, 6, attendees)
	if snap.Headcount != 6 {
		t.Errorf("Headcount: got %d, want 6", snap.Headcount)
	}
	if snap.AvailableSeats != 4 {
		t.Errorf("AvailableSeats: got %d, want 4", snap.AvailableSeats)
	}
	if !snap.MinLimitReached {
		t.Error("expected MinLimitReached")
	}
}
