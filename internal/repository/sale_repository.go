package repository

import (
	"context"
	"database/sql"
	"fmt"

	"resale-store/internal/domain"

	"github.com/google/uuid"
)

// SaleRepository persists committed sales.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Sale, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Sale, error)
	// DeleteByProduct removes a product's sale records; used only by the
	// administrative SOLD -> AVAILABLE override.
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
	UpdateDelivery(ctx context.Context, orderID uuid.UUID, status domain.DeliveryStatus, trackingNumber string) error
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a SaleRepository over postgres.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `order_id, product_id, buyer_id, buyer_name, buyer_email, buyer_phone,
	buyer_address, amount, payment_method, delivery_status, tracking_number, created_at`

func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	query := fmt.Sprintf(`INSERT INTO sales (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, saleColumns)

	var tracking sql.NullString
	if sale.TrackingNumber != "" {
		tracking = sql.NullString{String: sale.TrackingNumber, Valid: true}
	}

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		sale.OrderID, sale.ProductID,
		sale.Buyer.ID, sale.Buyer.Name, sale.Buyer.Email, sale.Buyer.Phone, sale.Buyer.Address,
		sale.Amount, sale.PaymentMethod, sale.DeliveryStatus, tracking, sale.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

func (r *saleRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE order_id = $1`, saleColumns)

	sale, err := scanSale(q(ctx, r.db).QueryRowContext(ctx, query, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	return sale, nil
}

func (r *saleRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE product_id = $1 ORDER BY created_at`, saleColumns)

	rows, err := q(ctx, r.db).QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	return sales, nil
}

func (r *saleRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	query := `DELETE FROM sales WHERE product_id = $1`
	if _, err := q(ctx, r.db).ExecContext(ctx, query, productID); err != nil {
		return fmt.Errorf("failed to delete sales: %w", err)
	}
	return nil
}

func (r *saleRepository) UpdateDelivery(ctx context.Context, orderID uuid.UUID, status domain.DeliveryStatus, trackingNumber string) error {
	query := `UPDATE sales SET delivery_status = $2, tracking_number = $3 WHERE order_id = $1`

	var tracking sql.NullString
	if trackingNumber != "" {
		tracking = sql.NullString{String: trackingNumber, Valid: true}
	}

	result, err := q(ctx, r.db).ExecContext(ctx, query, orderID, status, tracking)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	var (
		s        domain.Sale
		tracking sql.NullString
	)

	err := row.Scan(
		&s.OrderID, &s.ProductID,
		&s.Buyer.ID, &s.Buyer.Name, &s.Buyer.Email, &s.Buyer.Phone, &s.Buyer.Address,
		&s.Amount, &s.PaymentMethod, &s.DeliveryStatus, &tracking, &s.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	s.TrackingNumber = tracking.String
	return &s, nil
}
