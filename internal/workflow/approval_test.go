package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okothdev/device-order-store/internal/models"
)

func int64p(v int64) *int64 { return &v }

func TestDecideApproval_NoConflicts(t *testing.T) {
	items := []ItemDevice{
		{DeviceID: 1, Name: "Samsung A54", Status: models.DeviceStatusAvailable},
		{DeviceID: 2, Name: "Tecno Spark", Status: models.DeviceStatusAvailable},
	}

	d := DecideApproval(items, nil, int64p(7))
	assert.Equal(t, StatusApproved, d.Outcome)
	assert.Equal(t, ConflictNone, d.Conflict)
	assert.Empty(t, d.Reason)
}

func TestDecideApproval_SoldDevice(t *testing.T) {
	items := []ItemDevice{
		{DeviceID: 1, Name: "Samsung A54", Status: models.DeviceStatusSold},
		{DeviceID: 2, Name: "Tecno Spark", Status: models.DeviceStatusAvailable},
	}

	d := DecideApproval(items, nil, int64p(7))
	require.Equal(t, StatusRejected, d.Outcome)
	assert.Equal(t, ConflictSold, d.Conflict)
	assert.Contains(t, d.Reason, "Samsung A54")
}

func TestDecideApproval_SoldDeviceNamesSorted(t *testing.T) {
	items := []ItemDevice{
		{DeviceID: 2, Name: "Tecno Spark", Status: models.DeviceStatusSold},
		{DeviceID: 1, Name: "Samsung A54", Status: models.DeviceStatusSold},
	}

	d := DecideApproval(items, nil, nil)
	require.Equal(t, ConflictSold, d.Conflict)
	assert.Equal(t, "device(s) already sold: Samsung A54, Tecno Spark", d.Reason)
}

func TestDecideApproval_ClaimByDifferentStaff(t *testing.T) {
	items := []ItemDevice{
		{DeviceID: 1, Name: "Samsung A54", Status: models.DeviceStatusAvailable},
	}
	claims := []Claim{
		{DeviceID: 1, OrderID: 42, StaffID: int64p(9)},
	}

	d := DecideApproval(items, claims, int64p(7))
	require.Equal(t, StatusRejected, d.Outcome)
	assert.Equal(t, ConflictClaimed, d.Conflict)
	assert.Contains(t, d.Reason, "order #42")
}

func TestDecideApproval_ClaimBySameStaffIsFine(t *testing.T) {
	items := []ItemDevice{
		{DeviceID: 1, Name: "Samsung A54", Status: models.DeviceStatusAvailable},
	}
	claims := []Claim{
		{DeviceID: 1, OrderID: 42, StaffID: int64p(7)},
	}

	d := DecideApproval(items, claims, int64p(7))
	assert.Equal(t, StatusApproved, d.Outcome)
}

func TestDecideApproval_SoldWinsOverClaim(t *testing.T) {
	// Both conflict classes present: the sold conflict is reported.
	items := []ItemDevice{
		{DeviceID: 1, Name: "Samsung A54", Status: models.DeviceStatusSold},
	}
	claims := []Claim{
		{DeviceID: 1, OrderID: 42, StaffID: int64p(9)},
	}

	d := DecideApproval(items, claims, int64p(7))
	assert.Equal(t, ConflictSold, d.Conflict)
}

func TestSameDeviceSet(t *testing.T) {
	assert.True(t, SameDeviceSet([]int64{1, 2}, []int64{2, 1}))
	assert.True(t, SameDeviceSet(nil, nil))
	assert.False(t, SameDeviceSet([]int64{1, 2}, []int64{1, 3}))
	assert.False(t, SameDeviceSet([]int64{1, 2}, []int64{1, 2, 3}))
	assert.False(t, SameDeviceSet([]int64{1}, nil))
}

func TestAddressMatches(t *testing.T) {
	assert.True(t, AddressMatches("Shop A", "Shop A"))
	assert.True(t, AddressMatches("  Shop A ", "shop a"))
	assert.False(t, AddressMatches("Shop A", "Shop B"))
	assert.False(t, AddressMatches("", "Shop A"))
	assert.False(t, AddressMatches("Shop A", ""))
	assert.False(t, AddressMatches("   ", "   "))
}

func TestValidIMEI(t *testing.T) {
	assert.True(t, ValidIMEI("356938035643809"))
	assert.False(t, ValidIMEI("35693803564380"))   // 14 digits
	assert.False(t, ValidIMEI("3569380356438090")) // 16 digits
	assert.False(t, ValidIMEI("35693803564380a"))
	assert.False(t, ValidIMEI(""))
}

func TestDraftFanOut(t *testing.T) {
	drafts := AwaitingDrafts([]int64{1, 2, 3}, 10)
	require.Len(t, drafts, 3)
	for _, d := range drafts {
		assert.Equal(t, RecipientAdmin, d.RecipientType)
		assert.Equal(t, KindAwaiting, d.Kind)
		assert.Equal(t, "/admin/orders/10", d.Link)
	}

	approval := ApprovalDrafts(int64p(5), 8, 10)
	require.Len(t, approval, 2)
	assert.Equal(t, RecipientStaff, approval[0].RecipientType)
	assert.Equal(t, int64(5), approval[0].RecipientID)
	assert.Equal(t, RecipientCustomer, approval[1].RecipientType)
	assert.Equal(t, "/orders/10", approval[1].Link)

	// No assigned staff: customer only.
	approval = ApprovalDrafts(nil, 8, 10)
	require.Len(t, approval, 1)
	assert.Equal(t, RecipientCustomer, approval[0].RecipientType)

	failure := FailureDrafts([]int64{1}, 8, 10, "customer unreachable")
	require.Len(t, failure, 2)
	assert.Contains(t, failure[0].Message, "customer unreachable")
	assert.Contains(t, failure[1].Message, "customer unreachable")
}
