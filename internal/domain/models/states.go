// internal/domain/models/states.go
package models

// SessionState is the lifecycle state of a Session.
type SessionState string

const (
	SessionDraft           SessionState = "draft"
	SessionOpened          SessionState = "opened"
	SessionOpenedConfirmed SessionState = "opened_confirmed"
	SessionClosedConfirmed SessionState = "closed_confirmed"
	SessionInProgress      SessionState = "in_progress"
	SessionClosed          SessionState = "closed"
	SessionCancelled       SessionState = "cancelled"
)

// Terminal reports whether no further transition leaves s.
func (s SessionState) Terminal() bool {
	return s == SessionClosed || s == SessionCancelled
}

// SeanceState is the lifecycle state of a Seance.
type SeanceState string

const (
	SeanceOpened     SeanceState = "opened"
	SeanceConfirmed  SeanceState = "confirmed"
	SeanceInProgress SeanceState = "in_progress"
	SeanceClosed     SeanceState = "closed"
	SeanceDone       SeanceState = "done"
	SeanceCancelled  SeanceState = "cancelled"

	// SeanceDraft is never assigned by this service. Seances imported from
	// older data may still carry it, and it blocks opening a session.
	SeanceDraft SeanceState = "draft"
)

// Terminal reports whether no further transition leaves s.
func (s SeanceState) Terminal() bool {
	return s == SeanceDone || s == SeanceCancelled
}

// Subscription-line states. Subscription lines are owned by the
// registration system; the workflow only reads them and moves confirmed
// lines to done or cancelled.
const (
	SubscriptionDraft     = "draft"
	SubscriptionConfirmed = "confirmed"
	SubscriptionCancelled = "cancelled"
	SubscriptionDone      = "done"
)

// Stakeholder (lecturer participation) states.
const (
	StakeholderDraft     = "draft"
	StakeholderAccepted  = "accepted"
	StakeholderRefused   = "refused"
	StakeholderDone      = "done"
	StakeholderCancelled = "cancelled"
)

// Stakeholder request states.
const (
	RequestDraft     = "draft"
	RequestSent      = "sent"
	RequestAccepted  = "accepted"
	RequestCancelled = "cancelled"
)

// Participation procurement states.
const (
	PurchasePending = "pending"
	PurchaseDone    = "done"
)

// Purchase order states as reported by the procurement outbox.
const (
	OrderConfirmed = "confirmed"
	OrderCancelled = "cancelled"
)
