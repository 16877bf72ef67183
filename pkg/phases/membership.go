package phases

import (
	"fmt"
	"time"
)

// MembershipState tracks a participant's progress through a single phase:
// NOT_JOINED -> JOINED -> SCORED -> ALLOCATED. Participation is
// phase-scoped and never carries over; each phase restarts at NOT_JOINED.
type MembershipState string

const (
	MembershipState_NotJoined MembershipState = "NOT_JOINED"
	MembershipState_Joined    MembershipState = "JOINED"
	MembershipState_Scored    MembershipState = "SCORED"
	MembershipState_Allocated MembershipState = "ALLOCATED"
)

var validTransitions = map[MembershipState]MembershipState{
	MembershipState_NotJoined: MembershipState_Joined,
	MembershipState_Joined:    MembershipState_Scored,
	MembershipState_Scored:    MembershipState_Allocated,
}

// Transition validates a single step of the state machine. ALLOCATED is
// terminal.
func Transition(from MembershipState, to MembershipState) error {
	next, ok := validTransitions[from]
	if !ok {
		return fmt.Errorf("membership state %s is terminal", from)
	}
	if next != to {
		return fmt.Errorf("invalid membership transition %s -> %s", from, to)
	}
	return nil
}

// ValidateJoin checks that an explicit join action lands inside the phase
// window. Joins outside the window never accrue points for the phase.
func ValidateJoin(phase *Phase, joinedAt time.Time) error {
	if !phase.Contains(joinedAt) {
		return fmt.Errorf("join at %s is outside phase %d window [%s, %s)",
			joinedAt.Format(time.RFC3339),
			phase.Number,
			phase.StartTime.Format(time.RFC3339),
			phase.EndTime.Format(time.RFC3339),
		)
	}
	return nil
}

// JoinedWithin24h is the first requirement of the phase upgrade path.
func JoinedWithin24h(phase *Phase, joinedAt time.Time) bool {
	return !joinedAt.Before(phase.StartTime) && joinedAt.Sub(phase.StartTime) <= 24*time.Hour
}
