package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"resale-store/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository is the single entry point for product state. All
// mutations go through UpdateAtomic or a WithTx/GetForUpdate pair so that
// concurrent flows touching the same product are linearized on its row.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) error
	UpdateAtomic(ctx context.Context, id uuid.UUID, mutate func(p *domain.Product) error) (*domain.Product, error)
	ListReservedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	ListAuctionsDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type productRepository struct {
	db     *sql.DB
	offers OfferRepository
}

// NewProductRepository creates a ProductRepository over postgres. The offer
// repository is used to hydrate a product's offers on reads.
func NewProductRepository(db *sql.DB, offers OfferRepository) ProductRepository {
	return &productRepository{db: db, offers: offers}
}

const productColumns = `id, name, description, price, status,
	holder_id, holder_email, reserved_at,
	auction_start_price, auction_current_bid, auction_bidder_id, auction_bidder_email,
	auction_start_time, auction_end_time,
	created_at, updated_at`

// Create inserts a new product listing.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := fmt.Sprintf(`INSERT INTO products (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`, productColumns)

	_, err := q(ctx, r.db).ExecContext(ctx, query, productArgs(product)...)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product and its offers in insertion order.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(q(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	offers, err := r.offers.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Offers = offers

	return product, nil
}

// WithTx runs fn inside a single transaction shared by all repositories.
func (r *productRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

// GetForUpdate loads a product under a row lock. Offers are not hydrated;
// flows that need them read through the offer repository in the same tx.
func (r *productRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 FOR UPDATE`, productColumns)

	product, err := scanProduct(q(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return product, nil
}

// Save writes back a product row previously loaded with GetForUpdate.
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products SET
		name = $2, description = $3, price = $4, status = $5,
		holder_id = $6, holder_email = $7, reserved_at = $8,
		auction_start_price = $9, auction_current_bid = $10,
		auction_bidder_id = $11, auction_bidder_email = $12,
		auction_start_time = $13, auction_end_time = $14,
		created_at = $15, updated_at = $16
		WHERE id = $1`

	result, err := q(ctx, r.db).ExecContext(ctx, query, productArgs(product)...)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// UpdateAtomic applies mutate to the product under a row lock and persists
// the result. A mutator error aborts the transaction with no state change.
func (r *productRepository) UpdateAtomic(ctx context.Context, id uuid.UUID, mutate func(p *domain.Product) error) (*domain.Product, error) {
	var out *domain.Product
	err := r.WithTx(ctx, func(txCtx context.Context) error {
		product, err := r.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := mutate(product); err != nil {
			return err
		}
		if err := r.Save(txCtx, product); err != nil {
			return err
		}
		out = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListReservedBefore returns ids of products whose reservation predates the
// cutoff, for the expiry sweep.
func (r *productRepository) ListReservedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	query := `SELECT id FROM products WHERE status = 'RESERVED' AND reserved_at <= $1`
	return r.listIDs(ctx, query, cutoff)
}

// ListAuctionsDue returns ids of unsold auction products past their end time
// that drew a bid. Auctions nobody bid on stay AVAILABLE, which is already
// their settled state, so the sweep never needs to revisit them.
func (r *productRepository) ListAuctionsDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `SELECT id FROM products
		WHERE auction_end_time IS NOT NULL AND auction_end_time <= $1
			AND auction_bidder_id IS NOT NULL AND status <> 'SOLD'`
	return r.listIDs(ctx, query, now)
}

func (r *productRepository) listIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return ids, nil
}

func productArgs(p *domain.Product) []any {
	var (
		holderID, holderEmail sql.NullString
		reservedAt            sql.NullTime

		startPrice, currentBid sql.NullFloat64
		bidderID, bidderEmail  sql.NullString
		startTime, endTime     sql.NullTime
	)

	if p.Reservation != nil {
		holderID = sql.NullString{String: p.Reservation.HolderID, Valid: true}
		holderEmail = sql.NullString{String: p.Reservation.HolderEmail, Valid: true}
		reservedAt = sql.NullTime{Time: p.Reservation.ReservedAt, Valid: true}
	}
	if p.Auction != nil {
		startPrice = sql.NullFloat64{Float64: p.Auction.StartPrice, Valid: true}
		currentBid = sql.NullFloat64{Float64: p.Auction.CurrentBid, Valid: true}
		if p.Auction.HighestBidderID != "" {
			bidderID = sql.NullString{String: p.Auction.HighestBidderID, Valid: true}
			bidderEmail = sql.NullString{String: p.Auction.HighestBidderEmail, Valid: true}
		}
		startTime = sql.NullTime{Time: p.Auction.StartTime, Valid: true}
		endTime = sql.NullTime{Time: p.Auction.EndTime, Valid: true}
	}

	return []any{
		p.ID, p.Name, p.Description, p.Price, p.Status,
		holderID, holderEmail, reservedAt,
		startPrice, currentBid, bidderID, bidderEmail, startTime, endTime,
		p.CreatedAt, p.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                     domain.Product
		holderID, holderEmail sql.NullString
		reservedAt            sql.NullTime

		startPrice, currentBid sql.NullFloat64
		bidderID, bidderEmail  sql.NullString
		startTime, endTime     sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Status,
		&holderID, &holderEmail, &reservedAt,
		&startPrice, &currentBid, &bidderID, &bidderEmail, &startTime, &endTime,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reservedAt.Valid {
		p.Reservation = &domain.Reservation{
			HolderID:    holderID.String,
			HolderEmail: holderEmail.String,
			ReservedAt:  reservedAt.Time,
		}
	}
	if startPrice.Valid {
		p.Auction = &domain.Auction{
			StartPrice:         startPrice.Float64,
			CurrentBid:         currentBid.Float64,
			HighestBidderID:    bidderID.String,
			HighestBidderEmail: bidderEmail.String,
			StartTime:          startTime.Time,
			EndTime:            endTime.Time,
		}
	}

	return &p, nil
}
