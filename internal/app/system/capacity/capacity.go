// Package capacity derives session and seance capacity from seance
// snapshots. Every function here is pure: callers load the snapshot,
// call in, and persist the result where it is cached.
package capacity

import (
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Limits is the effective min/max capacity of a session.
type Limits struct {
	Min int `json:"min_limit"`
	Max int `json:"max_limit"`
}

// Attendee is one participation as seen by the headcount: who attends and
// the state of the subscription line that put them there.
type Attendee struct {
	ContactID         primitive.ObjectID
	SubscriptionState string
}

// ComputeLimits returns the session limits for the given seances.
//
// The minimum is the smallest seance minimum. The maximum is the smallest
// seance maximum multiplied by the largest number of distinct groups that
// share any one course (at least 1). Seances without a group do not add a
// track; seances without a course are pooled under the zero course.
func ComputeLimits(seances []models.Seance) Limits {
	if len(seances) == 0 {
		return Limits{}
	}

	tracks := map[primitive.ObjectID]map[primitive.ObjectID]struct{}{}
	lim := Limits{Min: seances[0].MinLimit, Max: seances[0].MaxLimit}
	for _, s := range seances {
		if s.GroupID != nil {
			course := s.CourseKey()
			if tracks[course] == nil {
				tracks[course] = map[primitive.ObjectID]struct{}{}
			}
			tracks[course][*s.GroupID] = struct{}{}
		}
		lim.Min = min(lim.Min, s.MinLimit)
		lim.Max = min(lim.Max, s.MaxLimit)
	}

	maxGroups := 0
	for _, groups := range tracks {
		maxGroups = max(maxGroups, len(groups))
	}
	lim.Max *= max(maxGroups, 1)
	return lim
}

// Headcount returns the manual count when manual is set, otherwise the
// number of distinct contacts whose subscription line is confirmed or done.
func Headcount(manual bool, manualCount int, attendees []Attendee) int {
	if manual {
		return manualCount
	}
	seen := make(map[primitive.ObjectID]struct{}, len(attendees))
	for _, a := range attendees {
		if a.SubscriptionState != models.SubscriptionConfirmed && a.SubscriptionState != models.SubscriptionDone {
			continue
		}
		seen[a.ContactID] = struct{}{}
	}
	return len(seen)
}

// AvailableSeats is maxLimit minus headcount. The result may be negative:
// over-booking is representable and left to caller policy.
func AvailableSeats(maxLimit, headcount int) int {
	return maxLimit - headcount
}

// MinLimitReached reports whether headcount meets the minimum threshold.
func MinLimitReached(minLimit, headcount int) bool {
	return headcount >= minLimit
}

// Snapshot bundles the derived numbers for one session or seance.
type Snapshot struct {
	Limits
	Headcount       int  `json:"headcount"`
	AvailableSeats  int  `json:"available_seats"`
	MinLimitReached bool `json:"min_limit_reached"`
}

// Summarize computes the snapshot for an entity with the given effective
// limits and attendance.
func Summarize(lim Limits, manual bool, manualCount int, attendees []Attendee) Snapshot {
	hc := Headcount(manual, manualCount, attendees)
	return Snapshot{
		Limits:          lim,
		Headcount:       hc,
		AvailableSeats:  AvailableSeats(lim.Max, hc),
		MinLimitReached: MinLimitReached(lim.Min, hc),
	}
}
