package workflow

import "fmt"

// Draft is a notification the caller must persist in the same transaction as
// the status change it announces. Losing a notification never desynchronizes
// order or device state; the drafts are informational fan-out only.
type Draft struct {
	RecipientID   int64
	RecipientType string
	Message       string
	Link          string
	Kind          string
}

const (
	RecipientAdmin    = "admin"
	RecipientStaff    = "staff"
	RecipientCustomer = "customer"
)

const (
	KindAssignment   = "assignment"
	KindAwaiting     = "awaiting_approval"
	KindApproval     = "approval"
	KindRejection    = "rejection"
	KindCancellation = "cancellation"
	KindCompletion   = "completion"
	KindFailure      = "failure"
)

func staffLink(orderID int64) string    { return fmt.Sprintf("/staff/orders/%d", orderID) }
func adminLink(orderID int64) string    { return fmt.Sprintf("/admin/orders/%d", orderID) }
func customerLink(orderID int64) string { return fmt.Sprintf("/orders/%d", orderID) }

// AssignmentDraft informs the auto-assigned staff member of a fresh order.
func AssignmentDraft(staffID, orderID int64, customerName string) Draft {
	return Draft{
		RecipientID:   staffID,
		RecipientType: RecipientStaff,
		Message:       fmt.Sprintf("Order #%d from %s has been assigned to you.", orderID, customerName),
		Link:          staffLink(orderID),
		Kind:          KindAssignment,
	}
}

// AwaitingDrafts fans out to every admin when staff flags an order ready for
// review.
func AwaitingDrafts(adminIDs []int64, orderID int64) []Draft {
	drafts := make([]Draft, 0, len(adminIDs))
	for _, id := range adminIDs {
		drafts = append(drafts, Draft{
			RecipientID:   id,
			RecipientType: RecipientAdmin,
			Message:       fmt.Sprintf("Order #%d is awaiting approval.", orderID),
			Link:          adminLink(orderID),
			Kind:          KindAwaiting,
		})
	}
	return drafts
}

// ApprovalDrafts notifies the assigned staff (if any) and the customer.
func ApprovalDrafts(staffID *int64, customerID, orderID int64) []Draft {
	var drafts []Draft
	if staffID != nil {
		drafts = append(drafts, Draft{
			RecipientID:   *staffID,
			RecipientType: RecipientStaff,
			Message:       fmt.Sprintf("Order #%d has been approved. The devices are reserved for delivery.", orderID),
			Link:          staffLink(orderID),
			Kind:          KindApproval,
		})
	}
	drafts = append(drafts, Draft{
		RecipientID:   customerID,
		RecipientType: RecipientCustomer,
		Message:       fmt.Sprintf("Your order #%d has been approved.", orderID),
		Link:          customerLink(orderID),
		Kind:          KindApproval,
	})
	return drafts
}

// RejectionDrafts carries the conflict reason to the assigned staff and the
// customer.
func RejectionDrafts(staffID *int64, customerID, orderID int64, reason string) []Draft {
	var drafts []Draft
	if staffID != nil {
		drafts = append(drafts, Draft{
			RecipientID:   *staffID,
			RecipientType: RecipientStaff,
			Message:       fmt.Sprintf("Order #%d was rejected: %s", orderID, reason),
			Link:          staffLink(orderID),
			Kind:          KindRejection,
		})
	}
	drafts = append(drafts, Draft{
		RecipientID:   customerID,
		RecipientType: RecipientCustomer,
		Message:       fmt.Sprintf("Your order #%d could not be fulfilled: %s", orderID, reason),
		Link:          customerLink(orderID),
		Kind:          KindRejection,
	})
	return drafts
}

func CancellationDrafts(staffID *int64, customerID, orderID int64, reason string) []Draft {
	var drafts []Draft
	if staffID != nil {
		drafts = append(drafts, Draft{
			RecipientID:   *staffID,
			RecipientType: RecipientStaff,
			Message:       fmt.Sprintf("Order #%d was cancelled: %s", orderID, reason),
			Link:          staffLink(orderID),
			Kind:          KindCancellation,
		})
	}
	drafts = append(drafts, Draft{
		RecipientID:   customerID,
		RecipientType: RecipientCustomer,
		Message:       fmt.Sprintf("Your order #%d was cancelled: %s", orderID, reason),
		Link:          customerLink(orderID),
		Kind:          KindCancellation,
	})
	return drafts
}

// CompletionDrafts notifies every admin and the customer after staff reports
// a successful delivery.
func CompletionDrafts(adminIDs []int64, customerID, orderID int64) []Draft {
	drafts := make([]Draft, 0, len(adminIDs)+1)
	for _, id := range adminIDs {
		drafts = append(drafts, Draft{
			RecipientID:   id,
			RecipientType: RecipientAdmin,
			Message:       fmt.Sprintf("Order #%d has been completed.", orderID),
			Link:          adminLink(orderID),
			Kind:          KindCompletion,
		})
	}
	drafts = append(drafts, Draft{
		RecipientID:   customerID,
		RecipientType: RecipientCustomer,
		Message:       fmt.Sprintf("Your order #%d has been delivered. Thank you for shopping with us!", orderID),
		Link:          customerLink(orderID),
		Kind:          KindCompletion,
	})
	return drafts
}

func FailureDrafts(adminIDs []int64, customerID, orderID int64, reason string) []Draft {
	drafts := make([]Draft, 0, len(adminIDs)+1)
	for _, id := range adminIDs {
		drafts = append(drafts, Draft{
			RecipientID:   id,
			RecipientType: RecipientAdmin,
			Message:       fmt.Sprintf("Order #%d failed delivery: %s", orderID, reason),
			Link:          adminLink(orderID),
			Kind:          KindFailure,
		})
	}
	drafts = append(drafts, Draft{
		RecipientID:   customerID,
		RecipientType: RecipientCustomer,
		Message:       fmt.Sprintf("Delivery of your order #%d failed: %s", orderID, reason),
		Link:          customerLink(orderID),
		Kind:          KindFailure,
	})
	return drafts
}
