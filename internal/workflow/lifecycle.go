package workflow

// Lifecycle models device removal as two explicit phases instead of the
// original's deleted flag: soft delete keeps the row restorable, purge
// eligibility is the point of no return before the row is removed.
type Lifecycle string

const (
	LifecycleActive        Lifecycle = "active"
	LifecycleSoftDeleted   Lifecycle = "soft_deleted"
	LifecyclePurgeEligible Lifecycle = "purge_eligible"
)

var lifecycleNext = map[Lifecycle][]Lifecycle{
	LifecycleActive:      {LifecycleSoftDeleted},
	LifecycleSoftDeleted: {LifecycleActive, LifecyclePurgeEligible},
}

func LifecycleKnown(l Lifecycle) bool {
	switch l {
	case LifecycleActive, LifecycleSoftDeleted, LifecyclePurgeEligible:
		return true
	}
	return false
}

func CanTransitionLifecycle(from, to Lifecycle) bool {
	for _, next := range lifecycleNext[from] {
		if next == to {
			return true
		}
	}
	return false
}
