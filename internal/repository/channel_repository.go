package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zapline/campaign-dispatch/internal/models"
)

// ChannelRepository reads the tenant's connected messaging channel, the
// precondition for dispatching any of the tenant's campaigns.
type ChannelRepository interface {
	// GetConnected returns a connected channel for the company, or an
	// ErrNotFound-wrapping error when the tenant has none.
	GetConnected(ctx context.Context, companyID int64) (*models.Channel, error)
}

// channelRepository implements ChannelRepository using PostgreSQL
type channelRepository struct {
	db *sql.DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *sql.DB) ChannelRepository {
	return &channelRepository{db: db}
}

// GetConnected retrieves a connected channel for a company
func (r *channelRepository) GetConnected(ctx context.Context, companyID int64) (*models.Channel, error) {
	query := `
		SELECT id, company_id, status
		FROM whatsapps
		WHERE company_id = $1 AND status = $2
		LIMIT 1`

	channel := &models.Channel{}
	err := r.db.QueryRowContext(ctx, query, companyID, models.ChannelStatusConnected).Scan(
		&channel.ID,
		&channel.CompanyID,
		&channel.Status,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("no connected channel for company %d", companyID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connected channel: %w", err)
	}

	return channel, nil
}
