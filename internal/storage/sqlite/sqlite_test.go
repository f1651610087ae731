package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedTenant creates a user, a house and a tenancy linking them.
func seedTenant(t *testing.T, store *SQLiteStore, houseNumber, rent string) *models.Tenant {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Username: "user-" + houseNumber, FirstName: "Amina", LastName: "Otieno", Role: models.RoleTenant, PasswordHash: "x"}
	require.NoError(t, store.CreateUser(ctx, user))

	house := &models.House{HouseNumber: houseNumber, HouseType: models.HouseTwoBedroom, RentAmount: amount(rent)}
	require.NoError(t, store.CreateHouse(ctx, house))

	tenant := &models.Tenant{
		UserID:        user.ID,
		HouseID:       house.ID,
		MoveInDate:    models.MustDate("2024-01-01"),
		ContractStart: models.MustDate("2024-01-01"),
		ContractEnd:   models.MustDate("2024-12-31"),
	}
	require.NoError(t, store.CreateTenant(ctx, tenant))
	return tenant
}

func TestHouses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	house := &models.House{HouseNumber: "B2", HouseType: models.HouseBedsitter, RentAmount: amount("7500.50"), Location: "Block B"}
	require.NoError(t, store.CreateHouse(ctx, house))
	assert.NotEmpty(t, house.ID)
	assert.Equal(t, models.HouseVacant, house.Status)

	got, err := store.GetHouse(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, "B2", got.HouseNumber)
	assert.True(t, got.RentAmount.Equal(amount("7500.50")))

	err = store.CreateHouse(ctx, &models.House{HouseNumber: "B2", HouseType: models.HouseBedsitter, RentAmount: amount("1")})
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, store.SetHouseStatus(ctx, house.ID, models.HouseOccupied))
	occupied, err := store.ListHouses(ctx, storage.HouseFilter{Status: models.HouseOccupied})
	require.NoError(t, err)
	require.Len(t, occupied, 1)

	vacant, err := store.ListHouses(ctx, storage.HouseFilter{Status: models.HouseVacant})
	require.NoError(t, err)
	assert.Empty(t, vacant)

	_, err = store.GetHouse(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.SetHouseStatus(ctx, "missing", models.HouseVacant), storage.ErrNotFound)
}

func TestTenants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tenant := seedTenant(t, store, "A1", "10000")

	got, err := store.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amina Otieno", got.Name)
	require.NotNil(t, got.House)
	assert.Equal(t, "A1", got.House.HouseNumber)
	assert.True(t, got.Rent().Equal(amount("10000")))
	assert.Equal(t, "2024-12-31", got.ContractEnd.String())

	byUser, err := store.GetTenantByUser(ctx, tenant.UserID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, byUser.ID)

	require.NoError(t, store.SetTenantStatus(ctx, tenant.ID, models.TenantExpiring))
	all, err := store.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.TenantExpiring, all[0].Status)

	require.NoError(t, store.DeleteHouse(ctx, tenant.HouseID))
	homeless, err := store.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, homeless.House)
	assert.True(t, homeless.Rent().IsZero())

	require.NoError(t, store.DeleteTenant(ctx, tenant.ID))
	_, err = store.GetTenant(ctx, tenant.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestContracts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store, "A1", "10000")
	other := seedTenant(t, store, "A2", "8000")

	old := &models.Contract{
		TenantID:    tenant.ID,
		HouseID:     tenant.HouseID,
		StartDate:   models.MustDate("2023-01-01"),
		EndDate:     models.MustDate("2023-12-31"),
		MonthlyRent: amount("9500.50"),
		DepositPaid: amount("9500.50"),
	}
	current := &models.Contract{
		TenantID:    tenant.ID,
		HouseID:     tenant.HouseID,
		StartDate:   models.MustDate("2024-01-01"),
		EndDate:     models.MustDate("2024-12-31"),
		MonthlyRent: amount("10000"),
	}
	require.NoError(t, store.CreateContract(ctx, old))
	require.NoError(t, store.CreateContract(ctx, current))
	require.NoError(t, store.CreateContract(ctx, &models.Contract{
		TenantID:    other.ID,
		HouseID:     other.HouseID,
		StartDate:   models.MustDate("2024-03-01"),
		EndDate:     models.MustDate("2025-02-28"),
		MonthlyRent: amount("8000"),
	}))

	got, err := store.GetContract(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amina Otieno", got.TenantName)
	assert.Equal(t, "A1", got.HouseNumber)
	assert.Equal(t, "2023-01-01", got.StartDate.String())
	assert.True(t, got.MonthlyRent.Equal(amount("9500.50")))
	assert.True(t, got.DepositPaid.Equal(amount("9500.50")))
	assert.False(t, got.CreatedAt.IsZero())

	mine, err := store.ListContracts(ctx, storage.ContractFilter{TenantID: tenant.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, current.ID, mine[0].ID)
	assert.Equal(t, old.ID, mine[1].ID)

	byHouse, err := store.ListContracts(ctx, storage.ContractFilter{HouseID: other.HouseID})
	require.NoError(t, err)
	require.Len(t, byHouse, 1)
	assert.Equal(t, "A2", byHouse[0].HouseNumber)

	all, err := store.ListContracts(ctx, storage.ContractFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.DeleteContract(ctx, old.ID))
	_, err = store.GetContract(ctx, old.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.DeleteContract(ctx, old.ID), storage.ErrNotFound)

	require.NoError(t, store.DeleteTenant(ctx, tenant.ID))
	all, err = store.ListContracts(ctx, storage.ContractFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1, "deleting a tenancy removes its contracts")
}

func TestBillsAndPayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store, "A1", "10000")

	feb := &models.Bill{TenantID: tenant.ID, BillType: models.ChargeWater, Amount: amount("300"), MonthFor: models.MustDate("2024-02-01")}
	jan := &models.Bill{TenantID: tenant.ID, BillType: models.ChargeWater, Amount: amount("250.75"), MonthFor: models.MustDate("2024-01-01")}
	require.NoError(t, store.CreateBill(ctx, feb))
	require.NoError(t, store.CreateBill(ctx, jan))

	bills, err := store.ListBills(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, jan.ID, bills[0].ID, "oldest month first")
	assert.True(t, bills[0].Amount.Equal(amount("250.75")))
	assert.False(t, bills[0].Paid)

	payment := &models.Payment{
		TenantID:        tenant.ID,
		Amount:          amount("550.75"),
		PaymentType:     models.ChargeWater,
		PaymentMethod:   models.MethodMpesa,
		ReferenceNumber: "QWE123",
		PaymentDate:     models.MustDate("2024-02-10"),
		MonthFor:        models.MustDate("2024-02-01"),
	}
	require.NoError(t, store.CreatePayment(ctx, payment))

	payments, err := store.ListPayments(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.False(t, payments[0].Verified)
	assert.Equal(t, models.MethodMpesa, payments[0].PaymentMethod)

	all, err := store.ListBills(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.GetPayment(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func payAll(p models.Payment, unpaid []models.Bill) []string {
	var ids []string
	for _, b := range unpaid {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestVerifyPayment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store, "A1", "10000")

	bill := &models.Bill{TenantID: tenant.ID, BillType: models.ChargeRent, Amount: amount("10000"), MonthFor: models.MustDate("2024-01-01")}
	require.NoError(t, store.CreateBill(ctx, bill))
	payment := &models.Payment{TenantID: tenant.ID, Amount: amount("10000"), PaymentType: models.ChargeRent,
		PaymentMethod: models.MethodBank, PaymentDate: models.MustDate("2024-01-05"), MonthFor: models.MustDate("2024-01-01")}
	require.NoError(t, store.CreatePayment(ctx, payment))

	at := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	verified, covered, err := store.VerifyPayment(ctx, payment.ID, "admin-1", at, payAll)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, "admin-1", verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)
	assert.True(t, verified.VerifiedAt.Equal(at))
	assert.Equal(t, []string{bill.ID}, covered)

	paid, err := store.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, payment.ID, paid.PaidBy)

	_, _, err = store.VerifyPayment(ctx, payment.ID, "admin-1", at, payAll)
	assert.ErrorIs(t, err, storage.ErrAlreadyVerified)

	_, _, err = store.VerifyPayment(ctx, "missing", "admin-1", at, payAll)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	reloaded, err := store.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Verified, "verification is never undone")
}

func TestVerifyPaymentConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store, "A1", "10000")

	payment := &models.Payment{TenantID: tenant.ID, Amount: amount("500"), PaymentType: models.ChargeWater,
		PaymentMethod: models.MethodCash, PaymentDate: models.MustDate("2024-01-05"), MonthFor: models.MustDate("2024-01-01")}
	require.NoError(t, store.CreatePayment(ctx, payment))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.VerifyPayment(ctx, payment.ID, "admin", time.Now(), payAll)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, storage.ErrAlreadyVerified):
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, already)
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pending := &models.User{Username: "newtenant", Role: models.RoleTenant, PasswordHash: "h", ApprovalStatus: models.ApprovalPending, HouseNumber: "A7"}
	require.NoError(t, store.CreateUser(ctx, pending))
	tech := &models.User{Username: "fixit", Role: models.RoleTechnician, PasswordHash: "h"}
	require.NoError(t, store.CreateUser(ctx, tech))

	err := store.CreateUser(ctx, &models.User{Username: "fixit", Role: models.RoleTechnician, PasswordHash: "h"})
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := store.GetUserByUsername(ctx, "newtenant")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTenant, got.Role)
	assert.Equal(t, models.ApprovalPending, got.ApprovalStatus)
	assert.Equal(t, "A7", got.HouseNumber)

	list, err := store.ListUsers(ctx, storage.UserFilter{Approval: models.ApprovalPending})
	require.NoError(t, err)
	require.Len(t, list, 1)

	techs, err := store.ListUsers(ctx, storage.UserFilter{Role: models.RoleTechnician})
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, tech.ID, techs[0].ID)

	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetApproval(ctx, pending.ID, models.ApprovalApproved, tech.ID, at, ""))
	approved, err := store.GetUser(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.ApprovalStatus)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(at))

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNotifications(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &models.User{Username: "reader", Role: models.RoleTenant, PasswordHash: "h"}
	require.NoError(t, store.CreateUser(ctx, user))

	first := &models.Notification{RecipientID: user.ID, Message: "first"}
	second := &models.Notification{RecipientID: user.ID, Message: "second"}
	require.NoError(t, store.CreateNotification(ctx, first))
	require.NoError(t, store.CreateNotification(ctx, second))

	require.NoError(t, store.MarkNotificationRead(ctx, first.ID))

	unread, err := store.ListNotifications(ctx, user.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Message)

	all, err := store.ListNotifications(ctx, user.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Message, "newest first")

	assert.ErrorIs(t, store.MarkNotificationRead(ctx, "missing"), storage.ErrNotFound)
}

func TestMaintenance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, store, "C3", "9000")

	first := &models.MaintenanceRequest{HouseID: tenant.HouseID, HouseNumber: "C3", ReportedBy: tenant.UserID, Description: "Leaking tap", Category: models.CategoryPlumbing}
	second := &models.MaintenanceRequest{HouseID: tenant.HouseID, HouseNumber: "C3", ReportedBy: tenant.UserID, Description: "Broken socket"}
	require.NoError(t, store.CreateMaintenance(ctx, first))
	require.NoError(t, store.CreateMaintenance(ctx, second))

	assert.Equal(t, "MR-001", first.RequestNumber)
	assert.Equal(t, "MR-002", second.RequestNumber)
	assert.Equal(t, models.MaintenanceNew, second.Status)
	assert.Equal(t, models.CategoryGeneral, second.Category)

	tech := &models.User{Username: "tech", Role: models.RoleTechnician, PasswordHash: "h"}
	require.NoError(t, store.CreateUser(ctx, tech))

	now := time.Now().UTC().Truncate(time.Second)
	first.AssignedTo = tech.ID
	first.Status = models.MaintenanceCompleted
	first.AssignedAt = &now
	first.CompletedAt = &now
	first.ActualCost = decimal.NewNullDecimal(amount("1200"))
	require.NoError(t, store.UpdateMaintenance(ctx, first))

	assigned, err := store.ListMaintenance(ctx, storage.MaintenanceFilter{AssignedTo: tech.ID})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "MR-001", assigned[0].RequestNumber)
	assert.True(t, assigned[0].Cost().Equal(amount("1200")))
	require.NotNil(t, assigned[0].CompletedAt)

	mine, err := store.ListMaintenance(ctx, storage.MaintenanceFilter{ReportedBy: tenant.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "MR-002", mine[0].RequestNumber, "newest first")
	assert.False(t, mine[0].EstimatedCost.Valid)
}
