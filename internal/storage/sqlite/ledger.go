package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/storage"
)

const billColumns = `id, tenant_id, bill_type, amount, month_for, description, paid, paid_at, paid_by_payment, created_at`

const paymentColumns = `id, tenant_id, amount, payment_type, payment_method, reference_number,
 payment_date, month_for, is_verified, verified_at, verified_by, created_at`

func scanBill(row scanner) (models.Bill, error) {
	var (
		b       models.Bill
		paidAt  sql.NullInt64
		paidBy  sql.NullString
		created int64
	)
	if err := row.Scan(&b.ID, &b.TenantID, &b.BillType, &b.Amount, &b.MonthFor, &b.Description,
		&b.Paid, &paidAt, &paidBy, &created); err != nil {
		return b, err
	}
	b.PaidAt = fromNullUnix(paidAt)
	b.PaidBy = paidBy.String
	b.CreatedAt = fromUnix(created)
	return b, nil
}

func scanPayment(row scanner) (models.Payment, error) {
	var (
		p          models.Payment
		verifiedAt sql.NullInt64
		verifiedBy sql.NullString
		created    int64
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.Amount, &p.PaymentType, &p.PaymentMethod, &p.ReferenceNumber,
		&p.PaymentDate, &p.MonthFor, &p.Verified, &verifiedAt, &verifiedBy, &created); err != nil {
		return p, err
	}
	p.VerifiedAt = fromNullUnix(verifiedAt)
	p.VerifiedBy = verifiedBy.String
	p.CreatedAt = fromUnix(created)
	return p, nil
}

// CreateBill persists a new unpaid bill.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	stamp(&bill.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.TenantID, bill.BillType, bill.Amount.String(), bill.MonthFor, bill.Description,
		bill.Paid, nullUnix(bill.PaidAt), nullString(bill.PaidBy), bill.CreatedAt.Unix(),
	)
	if err != nil {
		return mapError(err, "insert bill")
	}
	return nil
}

// GetBill retrieves a bill by ID.
func (s *SQLiteStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	b, err := scanBill(s.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get bill")
	}
	return &b, nil
}

// ListBills returns bills oldest first.
func (s *SQLiteStore) ListBills(ctx context.Context, tenantID string) ([]models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills`
	var args []any
	if tenantID != "" {
		query += ` WHERE tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` ORDER BY month_for, created_at, rowid`

	return queryBills(ctx, s.db, query, args...)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryBills(ctx context.Context, q querier, query string, args ...any) ([]models.Bill, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list bills")
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, mapError(err, "scan bill")
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate bills")
	}
	return bills, nil
}

// CreatePayment persists a new unverified payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	stamp(&payment.CreatedAt)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.TenantID, payment.Amount.String(), payment.PaymentType, payment.PaymentMethod,
		payment.ReferenceNumber, payment.PaymentDate, payment.MonthFor, payment.Verified,
		nullUnix(payment.VerifiedAt), nullString(payment.VerifiedBy), payment.CreatedAt.Unix(),
	)
	if err != nil {
		return mapError(err, "insert payment")
	}
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *SQLiteStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, "get payment")
	}
	return &p, nil
}

// ListPayments returns payments oldest first.
func (s *SQLiteStore) ListPayments(ctx context.Context, tenantID string) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	var args []any
	if tenantID != "" {
		query += ` WHERE tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` ORDER BY month_for, created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list payments")
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapError(err, "scan payment")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate payments")
	}
	return payments, nil
}

// VerifyPayment flips a payment to verified and marks the bills policy selects
// as paid, in one transaction.
//
// The verified flag is flipped with a conditional UPDATE, so of two concurrent
// verifications exactly one succeeds and the other sees ErrAlreadyVerified.
func (s *SQLiteStore) VerifyPayment(ctx context.Context, id, verifiedBy string, at time.Time, policy storage.AllocationPolicy) (*models.Payment, []string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET is_verified = 1, verified_at = ?, verified_by = ? WHERE id = ? AND is_verified = 0`,
		at.Unix(), nullString(verifiedBy), id,
	)
	if err != nil {
		return nil, nil, mapError(err, "verify payment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM payments WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return nil, nil, mapError(err, "verify payment")
		}
		return nil, nil, fmt.Errorf("verify payment %s: %w", id, storage.ErrAlreadyVerified)
	}

	payment, err := scanPayment(tx.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		return nil, nil, mapError(err, "reload payment")
	}

	unpaid, err := queryBills(ctx, tx,
		`SELECT `+billColumns+` FROM bills WHERE tenant_id = ? AND paid = 0 ORDER BY month_for, created_at, rowid`,
		payment.TenantID,
	)
	if err != nil {
		return nil, nil, err
	}

	var covered []string
	if policy != nil {
		covered = policy(payment, unpaid)
	}

	for _, billID := range covered {
		res, err := tx.ExecContext(ctx,
			`UPDATE bills SET paid = 1, paid_at = ?, paid_by_payment = ? WHERE id = ? AND tenant_id = ? AND paid = 0`,
			at.Unix(), payment.ID, billID, payment.TenantID,
		)
		if err != nil {
			return nil, nil, mapError(err, "mark bill paid")
		}
		if err := expectOne(res, "mark bill paid"); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &payment, covered, nil
}
