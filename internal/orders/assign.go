package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/orderflow/internal/shared"
)

// ErrNoVendorAvailable is returned when approval cannot assign a vendor.
// A purchase order is never created without one.
var ErrNoVendorAvailable = fmt.Errorf("%w: no active vendor available", shared.ErrValidation)

// VendorAssigner selects the vendor responsible for fulfilling a newly
// created purchase order.
type VendorAssigner interface {
	NextVendor(ctx context.Context) (int64, error)
}

// LeastLoadedAssigner picks the active vendor with the fewest open
// purchase orders, ties broken by lowest user id.
type LeastLoadedAssigner struct {
	pool *pgxpool.Pool
}

// NewLeastLoadedAssigner constructs a LeastLoadedAssigner.
func NewLeastLoadedAssigner(pool *pgxpool.Pool) *LeastLoadedAssigner {
	return &LeastLoadedAssigner{pool: pool}
}

// NextVendor returns the id of the vendor to assign.
func (a *LeastLoadedAssigner) NextVendor(ctx context.Context) (int64, error) {
	row := a.pool.QueryRow(ctx, `SELECT u.id
FROM users u
LEFT JOIN purchase_orders po ON po.vendor_id = u.id AND po.status <> 'Delivered'
WHERE u.role = 'vendor' AND u.is_active
GROUP BY u.id
ORDER BY COUNT(po.id) ASC, u.id ASC
LIMIT 1`)

	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoVendorAvailable
		}
		return 0, err
	}
	return id, nil
}
