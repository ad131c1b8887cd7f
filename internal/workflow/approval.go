package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okothdev/device-order-store/internal/models"
)

// ItemDevice is an order item's device as seen under lock at decision time.
type ItemDevice struct {
	DeviceID int64
	Name     string
	Status   string
}

// Claim is another open order's hold on one of the same devices.
type Claim struct {
	DeviceID int64
	OrderID  int64
	StaffID  *int64
}

type ConflictKind int

const (
	ConflictNone ConflictKind = iota
	// ConflictSold: a device on the order was already sold elsewhere.
	ConflictSold
	// ConflictClaimed: a device is held by another open order assigned to a
	// different staff member.
	ConflictClaimed
)

type ApprovalDecision struct {
	Outcome  Status
	Conflict ConflictKind
	Reason   string
}

// DecideApproval implements the admin approval decision point. Conflicts are
// business outcomes, not errors: the order auto-rejects with a reason instead
// of failing the request. assignedStaff is the order's own staff, used to
// tell a harmless self-claim apart from a double booking.
func DecideApproval(items []ItemDevice, claims []Claim, assignedStaff *int64) ApprovalDecision {
	var soldNames []string
	for _, it := range items {
		if it.Status == models.DeviceStatusSold {
			soldNames = append(soldNames, it.Name)
		}
	}
	if len(soldNames) > 0 {
		sort.Strings(soldNames)
		return ApprovalDecision{
			Outcome:  StatusRejected,
			Conflict: ConflictSold,
			Reason:   fmt.Sprintf("device(s) already sold: %s", strings.Join(soldNames, ", ")),
		}
	}

	for _, c := range claims {
		if sameStaff(c.StaffID, assignedStaff) {
			continue
		}
		return ApprovalDecision{
			Outcome:  StatusRejected,
			Conflict: ConflictClaimed,
			Reason:   fmt.Sprintf("device %d is claimed by open order #%d assigned to different staff", c.DeviceID, c.OrderID),
		}
	}

	return ApprovalDecision{Outcome: StatusApproved}
}

func sameStaff(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SameDeviceSet reports whether two orders reference an identical set of
// devices, regardless of item order. Used by the duplicate-order guard at
// checkout.
func SameDeviceSet(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int64(nil), a...)
	bs := append([]int64(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// AddressMatches is the staff auto-assignment predicate. The source system
// compared addresses with raw equality in some revisions and not others; the
// policy here is trim plus case-insensitive equality, and empty never matches.
func AddressMatches(staffAddr, deliveryAddr string) bool {
	staffAddr = strings.TrimSpace(staffAddr)
	deliveryAddr = strings.TrimSpace(deliveryAddr)
	if staffAddr == "" || deliveryAddr == "" {
		return false
	}
	return strings.EqualFold(staffAddr, deliveryAddr)
}
