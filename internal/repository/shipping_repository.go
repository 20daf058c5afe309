package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zapline/campaign-dispatch/internal/models"
)

// ShippingRepository is the shipping ledger: one row per dispatch attempt,
// inserted before the provider call and marked delivered only on confirmed
// acceptance.
type ShippingRepository interface {
	// Create inserts a ledger row for a (campaign, recipient) pair. The pair
	// is the idempotency key: when a row already exists from an earlier
	// attempt, created is false and the recipient must not be re-sent.
	Create(ctx context.Context, shipping *models.CampaignShipping) (created bool, err error)
	MarkDelivered(ctx context.Context, id int64, at time.Time) error
}

// shippingRepository implements ShippingRepository using PostgreSQL
type shippingRepository struct {
	db *sql.DB
}

// NewShippingRepository creates a new shipping repository
func NewShippingRepository(db *sql.DB) ShippingRepository {
	return &shippingRepository{db: db}
}

// Create inserts a shipping record, deduplicating on the unique
// (campaign_id, contact_list_item_id) index.
func (r *shippingRepository) Create(ctx context.Context, shipping *models.CampaignShipping) (bool, error) {
	query := `
		INSERT INTO campaign_shippings (campaign_id, contact_list_item_id, number, message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (campaign_id, contact_list_item_id) DO NOTHING
		RETURNING id, created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		shipping.CampaignID,
		shipping.ContactListItemID,
		shipping.Number,
		shipping.Message,
	).Scan(&shipping.ID, &shipping.CreatedAt)

	if err == sql.ErrNoRows {
		// Conflict: a row from a previous attempt already covers this pair.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create shipping record: %w", err)
	}

	return true, nil
}

// MarkDelivered stamps the delivery time after provider acceptance. The row
// is never mutated again afterwards.
func (r *shippingRepository) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE campaign_shippings
		SET delivery_at = $1
		WHERE id = $2 AND delivery_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark shipping delivered: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("undelivered shipping record with ID %d not found", id))
	}

	return nil
}
