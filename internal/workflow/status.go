// Package workflow holds the pure order-fulfillment logic: the order status
// machine, actor roles, conflict decisions, staff assignment matching and the
// notification drafts each transition fans out. Nothing here touches the
// database; the store package persists what these functions decide.
package workflow

type Status string

const (
	StatusPending          Status = "pending"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
	StatusFailed           Status = "failed"
	StatusCompleted        Status = "completed"
)

// transitions enumerates every legal move. Anything absent is illegal and
// must leave the order untouched.
var transitions = map[Status][]Status{
	StatusPending:          {StatusAwaitingApproval, StatusApproved, StatusRejected, StatusCancelled},
	StatusAwaitingApproval: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:         {StatusCompleted, StatusFailed},
}

func Known(s Status) bool {
	switch s {
	case StatusPending, StatusAwaitingApproval, StatusApproved,
		StatusRejected, StatusCancelled, StatusFailed, StatusCompleted:
		return true
	}
	return false
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is possible. Terminal
// orders can still be soft-deleted, but only from cancelled.
func Terminal(s Status) bool {
	return len(transitions[s]) == 0 && Known(s)
}

// Open reports whether the order still holds a claim on its devices for the
// purposes of duplicate and double-booking detection.
func Open(s Status) bool {
	switch s {
	case StatusPending, StatusAwaitingApproval, StatusApproved:
		return true
	}
	return false
}
