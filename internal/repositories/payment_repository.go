package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "medspa/internal/config"
	intdb "medspa/internal/db"
	"medspa/internal/domain"
	"medspa/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const paymentColumns = `id,
	client_id,
	amount,
	subtotal,
	discount_amount,
	tax_amount,
	tips,
	commission,
	total,
	payment_method,
	status,
	transaction_id,
	COALESCE(idempotency_key,''),
	COALESCE(stripe_payment_intent_id,''),
	COALESCE(last_error,''),
	COALESCE(notes,''),
	COALESCE(created_by,0),
	created_at,
	updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (models.Payment, error) {
	var (
		p      models.Payment
		method string
		status string
	)
	if err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.Amount,
		&p.Subtotal,
		&p.DiscountAmount,
		&p.TaxAmount,
		&p.Tips,
		&p.Commission,
		&p.Total,
		&method,
		&status,
		&p.TransactionID,
		&p.IdempotencyKey,
		&p.StripePaymentIntentID,
		&p.LastError,
		&p.Notes,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return models.Payment{}, err
	}
	p.PaymentMethod = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)
	return p, nil
}

// Create inserts the payment and all of its items in one transaction and
// fills in the generated ids.
func (r PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p == nil {
		return fmt.Errorf("payment is nil")
	}
	return intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO payments (
				client_id, amount, subtotal, discount_amount, tax_amount, tips, commission, total,
				payment_method, status, transaction_id, idempotency_key, notes, created_by,
				created_at, updated_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`,
			p.ClientID, p.Amount, p.Subtotal, p.DiscountAmount, p.TaxAmount, p.Tips, p.Commission, p.Total,
			string(p.PaymentMethod), string(p.Status), p.TransactionID,
			intdb.NullIfEmpty(p.IdempotencyKey), p.Notes, intdb.NullIfZero(p.CreatedBy),
		)
		if err != nil {
			if isDuplicateKey(err) {
				return domain.ConflictError{Resource: "payment", Msg: "duplicate transaction or idempotency key", Err: err}
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("payment id: %w", err)
		}
		p.ID = id

		for i := range p.Items {
			it := &p.Items[i]
			it.PaymentID = id
			res, err := tx.ExecContext(ctx, `
				INSERT INTO payment_items (payment_id, item_type, item_id, item_name, price, quantity, subtotal)
				VALUES (?,?,?,?,?,?,?)`,
				id, string(it.ItemType), it.ItemID, it.ItemName, it.Price, it.Quantity, it.Subtotal,
			)
			if err != nil {
				return fmt.Errorf("insert payment item %d: %w", i, err)
			}
			if itemID, err := res.LastInsertId(); err == nil {
				it.ID = itemID
			}
		}
		return nil
	})
}

func (r PaymentRepository) getOne(ctx context.Context, where string, arg any) (models.Payment, error) {
	db := r.db()
	if db == nil {
		return models.Payment{}, fmt.Errorf("db not available")
	}
	row := db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE `+where+` LIMIT 1`, arg)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
		}
		return models.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// GetByID fetches a payment without items.
func (r PaymentRepository) GetByID(ctx context.Context, id int64) (models.Payment, error) {
	if id <= 0 {
		return models.Payment{}, domain.ValidationError{Field: "id", Msg: "invalid id"}
	}
	return r.getOne(ctx, "id=?", id)
}

func (r PaymentRepository) GetByTransactionID(ctx context.Context, txnID string) (models.Payment, error) {
	return r.getOne(ctx, "transaction_id=?", strings.TrimSpace(txnID))
}

func (r PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (models.Payment, error) {
	return r.getOne(ctx, "idempotency_key=?", key)
}

func (r PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (models.Payment, error) {
	return r.getOne(ctx, "stripe_payment_intent_id=?", intentID)
}

// GetWithItems fetches a payment and its line items.
func (r PaymentRepository) GetWithItems(ctx context.Context, id int64) (models.Payment, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Payment{}, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return models.Payment{}, err
	}
	p.Items = items
	return p, nil
}

func (r PaymentRepository) ListItems(ctx context.Context, paymentID int64) ([]models.PaymentItem, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, payment_id, item_type, item_id, item_name, price, quantity, subtotal
		FROM payment_items
		WHERE payment_id=?
		ORDER BY id`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment items: %w", err)
	}
	defer rows.Close()

	out := []models.PaymentItem{}
	for rows.Next() {
		var (
			it       models.PaymentItem
			itemType string
		)
		if err := rows.Scan(&it.ID, &it.PaymentID, &itemType, &it.ItemID, &it.ItemName, &it.Price, &it.Quantity, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan payment item: %w", err)
		}
		it.ItemType = models.ItemType(itemType)
		out = append(out, it)
	}
	return out, rows.Err()
}

// List returns one page of payments (newest first) and the total match count.
func (r PaymentRepository) List(ctx context.Context, f models.PaymentFilter, page domain.Pagination) ([]models.Payment, int, error) {
	db := r.db()
	page = page.Normalize()

	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(f.Status))
	}
	if f.PaymentMethod != "" {
		where = append(where, "payment_method=?")
		args = append(args, string(f.PaymentMethod))
	}
	if f.ClientID > 0 {
		where = append(where, "client_id=?")
		args = append(args, f.ClientID)
	}
	if f.From != nil {
		where = append(where, "created_at>=?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "created_at<?")
		args = append(args, *f.To)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	pageArgs := append(append([]any{}, args...), page.PageSize, page.Offset())
	rows, err := db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments`+clause+` ORDER BY id DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves a payment from one status to another. It reports false
// when the row was not in the expected status (someone else got there first).
func (r PaymentRepository) UpdateStatus(ctx context.Context, id int64, from, to models.PaymentStatus, lastError string) (bool, error) {
	res, err := r.db().ExecContext(ctx, `
		UPDATE payments SET status=?, last_error=?, updated_at=NOW()
		WHERE id=? AND status=?`,
		string(to), intdb.NullIfEmpty(lastError), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	return n > 0, nil
}

// SetIntent records the provider intent id (and any error from creating it).
func (r PaymentRepository) SetIntent(ctx context.Context, id int64, intentID, lastError string) error {
	_, err := r.db().ExecContext(ctx, `
		UPDATE payments
		SET stripe_payment_intent_id=COALESCE(?, stripe_payment_intent_id), last_error=?, updated_at=NOW()
		WHERE id=?`,
		intdb.NullIfEmpty(intentID), intdb.NullIfEmpty(lastError), id,
	)
	if err != nil {
		return fmt.Errorf("set payment intent: %w", err)
	}
	return nil
}

// Delete removes a payment and its items.
func (r PaymentRepository) Delete(ctx context.Context, id int64) error {
	return intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM payment_items WHERE payment_id=?`, id); err != nil {
			return fmt.Errorf("delete payment items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id=?`, id)
		if err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.NotFoundError{Resource: "payment"}
		}
		return nil
	})
}

const mysqlErrDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlErrDuplicateEntry
	}
	return false
}
