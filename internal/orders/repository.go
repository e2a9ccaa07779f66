package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/orderflow/internal/platform/db"
	"github.com/orderflow/orderflow/internal/shared"
)

// Repository defines persistence for both order types. Status updates are
// conditional writes: they match the expected prior status so that of two
// racing transitions at most one succeeds.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	CreateSalesOrder(ctx context.Context, order SalesOrder) error
	// GetSalesOrder fetches by id, optionally narrowed to a creator. A record
	// excluded by the scope reads as absent.
	GetSalesOrder(ctx context.Context, id uuid.UUID, createdBy *int64) (*SalesOrder, error)
	ListSalesOrders(ctx context.Context, createdBy *int64) ([]SalesOrderWithCreator, error)
	UpdateSalesOrderFields(ctx context.Context, order SalesOrder) (bool, error)
	UpdateSalesOrderStatus(ctx context.Context, id uuid.UUID, from, to SalesOrderStatus) (bool, error)
	DeleteSalesOrder(ctx context.Context, id uuid.UUID, createdBy int64) (bool, error)

	CreatePurchaseOrder(ctx context.Context, order PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, vendorID int64) ([]PurchaseOrderWithSalesOrder, error)
	UpdatePurchaseOrderStatus(ctx context.Context, id uuid.UUID, vendorID int64, from, to PurchaseOrderStatus) (bool, error)
	DeletePurchaseOrdersBySalesOrder(ctx context.Context, salesOrderID uuid.UUID) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return translateTxError(db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	}))
}

// translateTxError surfaces a transaction that lost to a concurrent writer
// under RepeatableRead as the retryable conflict error.
func translateTxError(err error) error {
	if err != nil && isSerializationFailure(err) {
		return shared.ErrConflict
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

const salesOrderColumns = `id, customer_name, sp, cp, profit, profit_percentage, status, created_by, created_at, updated_at`

func (r *repository) CreateSalesOrder(ctx context.Context, order SalesOrder) error {
	_, err := r.db.Exec(ctx, `INSERT INTO sales_orders (`+salesOrderColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID, order.CustomerName, order.SP, order.CP, order.Profit, order.ProfitPercentage,
		string(order.Status), order.CreatedBy, order.CreatedAt, order.UpdatedAt)
	return err
}

func (r *repository) GetSalesOrder(ctx context.Context, id uuid.UUID, createdBy *int64) (*SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders WHERE id = $1`
	args := []any{id}
	if createdBy != nil {
		query += ` AND created_by = $2`
		args = append(args, *createdBy)
	}
	return scanSalesOrder(r.db.QueryRow(ctx, query, args...))
}

func (r *repository) ListSalesOrders(ctx context.Context, createdBy *int64) ([]SalesOrderWithCreator, error) {
	query := `SELECT so.id, so.customer_name, so.sp, so.cp, so.profit, so.profit_percentage,
       so.status, so.created_by, so.created_at, so.updated_at, u.name, u.email
FROM sales_orders so
JOIN users u ON u.id = so.created_by`
	args := []any{}
	if createdBy != nil {
		query += ` WHERE so.created_by = $1`
		args = append(args, *createdBy)
	}
	query += ` ORDER BY so.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SalesOrderWithCreator
	for rows.Next() {
		var item SalesOrderWithCreator
		var status string
		if err := rows.Scan(&item.ID, &item.CustomerName, &item.SP, &item.CP, &item.Profit,
			&item.ProfitPercentage, &status, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt,
			&item.CreatorName, &item.CreatorEmail); err != nil {
			return nil, err
		}
		item.Status = SalesOrderStatus(status)
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *repository) UpdateSalesOrderFields(ctx context.Context, order SalesOrder) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE sales_orders
SET customer_name = $2, sp = $3, cp = $4, profit = $5, profit_percentage = $6, updated_at = $7
WHERE id = $1`,
		order.ID, order.CustomerName, order.SP, order.CP, order.Profit, order.ProfitPercentage, order.UpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) UpdateSalesOrderStatus(ctx context.Context, id uuid.UUID, from, to SalesOrderStatus) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE sales_orders SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) DeleteSalesOrder(ctx context.Context, id uuid.UUID, createdBy int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1 AND created_by = $2`, id, createdBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const purchaseOrderColumns = `id, sales_order_id, vendor_id, status, created_at, updated_at`

func (r *repository) CreatePurchaseOrder(ctx context.Context, order PurchaseOrder) error {
	_, err := r.db.Exec(ctx, `INSERT INTO purchase_orders (`+purchaseOrderColumns+`)
VALUES ($1, $2, $3, $4, $5, $6)`,
		order.ID, order.SalesOrderID, order.VendorID, string(order.Status), order.CreatedAt, order.UpdatedAt)
	return err
}

func (r *repository) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id)
	var po PurchaseOrder
	var status string
	err := row.Scan(&po.ID, &po.SalesOrderID, &po.VendorID, &status, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	po.Status = PurchaseOrderStatus(status)
	return &po, nil
}

func (r *repository) ListPurchaseOrders(ctx context.Context, vendorID int64) ([]PurchaseOrderWithSalesOrder, error) {
	rows, err := r.db.Query(ctx, `SELECT po.id, po.sales_order_id, po.vendor_id, po.status, po.created_at, po.updated_at,
       so.id, so.customer_name, so.sp, so.cp, so.profit, so.profit_percentage, so.status, so.created_by, so.created_at, so.updated_at
FROM purchase_orders po
JOIN sales_orders so ON so.id = po.sales_order_id
WHERE po.vendor_id = $1
ORDER BY po.created_at DESC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PurchaseOrderWithSalesOrder
	for rows.Next() {
		var item PurchaseOrderWithSalesOrder
		var poStatus, soStatus string
		if err := rows.Scan(&item.ID, &item.SalesOrderID, &item.VendorID, &poStatus, &item.CreatedAt, &item.UpdatedAt,
			&item.SalesOrder.ID, &item.SalesOrder.CustomerName, &item.SalesOrder.SP, &item.SalesOrder.CP,
			&item.SalesOrder.Profit, &item.SalesOrder.ProfitPercentage, &soStatus,
			&item.SalesOrder.CreatedBy, &item.SalesOrder.CreatedAt, &item.SalesOrder.UpdatedAt); err != nil {
			return nil, err
		}
		item.Status = PurchaseOrderStatus(poStatus)
		item.SalesOrder.Status = SalesOrderStatus(soStatus)
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *repository) UpdatePurchaseOrderStatus(ctx context.Context, id uuid.UUID, vendorID int64, from, to PurchaseOrderStatus) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE purchase_orders SET status = $4, updated_at = NOW()
WHERE id = $1 AND vendor_id = $2 AND status = $3`, id, vendorID, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) DeletePurchaseOrdersBySalesOrder(ctx context.Context, salesOrderID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM purchase_orders WHERE sales_order_id = $1`, salesOrderID)
	return err
}

func scanSalesOrder(row pgx.Row) (*SalesOrder, error) {
	var so SalesOrder
	var status string
	err := row.Scan(&so.ID, &so.CustomerName, &so.SP, &so.CP, &so.Profit, &so.ProfitPercentage,
		&status, &so.CreatedBy, &so.CreatedAt, &so.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	so.Status = SalesOrderStatus(status)
	return &so, nil
}
