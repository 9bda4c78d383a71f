package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"resale-store/internal/domain"

	"github.com/google/uuid"
)

// OfferRepository persists price offers. Status transitions that assert or
// release a hold run inside the product row's transaction via WithTx on the
// product repository.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	Save(ctx context.Context, offer *domain.Offer) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Offer, error)
	// FindActiveAccepted returns the product's ACCEPTED, unpaid offer whose
	// acceptance is newer than the cutoff, or nil when no such hold exists.
	FindActiveAccepted(ctx context.Context, productID uuid.UUID, acceptedAfter time.Time) (*domain.Offer, error)
	// ListExpiredAccepted returns ACCEPTED, unpaid offers accepted at or
	// before the cutoff, for the expiry sweep.
	ListExpiredAccepted(ctx context.Context, cutoff time.Time) ([]*domain.Offer, error)
	// ExpireForProduct marks the product's ACCEPTED and COMPLETED offers
	// EXPIRED; used by the administrative override to clear linkage.
	ExpireForProduct(ctx context.Context, productID uuid.UUID) error
}

type offerRepository struct {
	db *sql.DB
}

// NewOfferRepository creates an OfferRepository over postgres.
func NewOfferRepository(db *sql.DB) OfferRepository {
	return &offerRepository{db: db}
}

const offerColumns = `id, product_id, buyer_id, buyer_email, offered_price, message, status,
	created_at, accepted_at, paid_at`

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := fmt.Sprintf(`INSERT INTO offers (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, offerColumns)

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		offer.ID, offer.ProductID, offer.BuyerID, offer.BuyerEmail,
		offer.OfferedPrice, offer.Message, offer.Status,
		offer.CreatedAt, nullTime(offer.AcceptedAt), nullTime(offer.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *offerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)

	offer, err := scanOffer(q(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) Save(ctx context.Context, offer *domain.Offer) error {
	query := `UPDATE offers SET status = $2, accepted_at = $3, paid_at = $4 WHERE id = $1`

	result, err := q(ctx, r.db).ExecContext(ctx, query,
		offer.ID, offer.Status, nullTime(offer.AcceptedAt), nullTime(offer.PaidAt))
	if err != nil {
		return fmt.Errorf("failed to save offer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrOfferNotFound
	}
	return nil
}

func (r *offerRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE product_id = $1 ORDER BY created_at, id`, offerColumns)
	return r.list(ctx, query, productID)
}

func (r *offerRepository) FindActiveAccepted(ctx context.Context, productID uuid.UUID, acceptedAfter time.Time) (*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers
		WHERE product_id = $1 AND status = 'ACCEPTED' AND paid_at IS NULL AND accepted_at > $2
		ORDER BY accepted_at DESC
		LIMIT 1`, offerColumns)

	offer, err := scanOffer(q(ctx, r.db).QueryRowContext(ctx, query, productID, acceptedAfter))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find accepted offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) ListExpiredAccepted(ctx context.Context, cutoff time.Time) ([]*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers
		WHERE status = 'ACCEPTED' AND paid_at IS NULL AND accepted_at <= $1`, offerColumns)
	return r.list(ctx, query, cutoff)
}

func (r *offerRepository) ExpireForProduct(ctx context.Context, productID uuid.UUID) error {
	query := `UPDATE offers SET status = 'EXPIRED'
		WHERE product_id = $1 AND status IN ('ACCEPTED', 'COMPLETED')`

	if _, err := q(ctx, r.db).ExecContext(ctx, query, productID); err != nil {
		return fmt.Errorf("failed to expire offers: %w", err)
	}
	return nil
}

func (r *offerRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Offer, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := []*domain.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}
	return offers, nil
}

func scanOffer(row rowScanner) (*domain.Offer, error) {
	var (
		o                  domain.Offer
		acceptedAt, paidAt sql.NullTime
	)

	err := row.Scan(
		&o.ID, &o.ProductID, &o.BuyerID, &o.BuyerEmail,
		&o.OfferedPrice, &o.Message, &o.Status,
		&o.CreatedAt, &acceptedAt, &paidAt,
	)
	if err != nil {
		return nil, err
	}

	if acceptedAt.Valid {
		t := acceptedAt.Time
		o.AcceptedAt = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
