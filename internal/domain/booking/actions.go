package booking

import "github.com/google/uuid"

// Action is a user-facing operation a screen may offer on a booking.
type Action string

const (
	ActionConfirm     Action = "confirm"
	ActionReject      Action = "reject"
	ActionCancel      Action = "cancel"
	ActionPay         Action = "pay"
	ActionLeaveReview Action = "leave_review"
)

// AvailableActions derives the set of actions currently permitted for the
// acting user on the booking. It is side-effect-free and is the single
// source of truth for which affordances any screen may expose; callers must
// never re-derive this gating ad hoc.
func AvailableActions(b *Booking, actingUserID uuid.UUID, hasExistingReview bool) []Action {
	if !b.IsParty(actingUserID) {
		return nil
	}

	isOwner := actingUserID == b.OwnerID()
	isRenter := actingUserID == b.RenterID()

	switch b.Status() {
	case StatusPending:
		if isOwner {
			return []Action{ActionConfirm, ActionReject}
		}
		if isRenter {
			return []Action{ActionCancel}
		}

	case StatusConfirmed:
		if isRenter && !b.IsPaid() {
			return []Action{ActionPay}
		}

	case StatusCompleted:
		if isRenter && !hasExistingReview {
			return []Action{ActionLeaveReview}
		}
	}

	return nil
}

// CanPerform reports whether the given action is currently available.
func CanPerform(b *Booking, actingUserID uuid.UUID, hasExistingReview bool, action Action) bool {
	for _, a := range AvailableActions(b, actingUserID, hasExistingReview) {
		if a == action {
			return true
		}
	}
	return false
}
