package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zapline/campaign-dispatch/internal/models"
)

// CampaignRepository defines the data access the dispatch engine needs over
// the campaigns table. The engine is the sole writer to campaign status for
// campaigns it has claimed.
type CampaignRepository interface {
	// ListDue returns campaigns in scheduled status whose scheduled_at is at
	// or before now, ordered by scheduled_at, capped at limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error)
	// Claim atomically moves a campaign from scheduled to processing and
	// reports whether this caller won the claim. A false result means a
	// concurrent invocation already owns the campaign (or it is no longer
	// scheduled) and it must be skipped.
	Claim(ctx context.Context, id int64) (bool, error)
	// MarkCompleted and MarkFailed move a campaign from processing to its
	// terminal status. Like Claim, they are conditional: ok is false when
	// the campaign is no longer in processing, meaning this invocation lost
	// ownership (a stale-claim sweep released it and another run finished
	// it) and the terminal state must not be overwritten.
	MarkCompleted(ctx context.Context, id int64, at time.Time) (ok bool, err error)
	MarkFailed(ctx context.Context, id int64, at time.Time) (ok bool, err error)
	// ReleaseStale returns campaigns stuck in processing longer than the
	// staleness threshold to scheduled so a later run can reclaim them.
	ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// campaignRepository implements CampaignRepository using PostgreSQL
type campaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, company_id, status, scheduled_at, completed_at,
		COALESCE(message1, ''), COALESCE(message2, ''), COALESCE(message3, ''),
		COALESCE(message4, ''), COALESCE(message5, ''),
		COALESCE(media_path, ''), COALESCE(media_name, ''), contact_list_id`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	err := row.Scan(
		&campaign.ID,
		&campaign.CompanyID,
		&campaign.Status,
		&campaign.ScheduledAt,
		&campaign.CompletedAt,
		&campaign.Message1,
		&campaign.Message2,
		&campaign.Message3,
		&campaign.Message4,
		&campaign.Message5,
		&campaign.MediaPath,
		&campaign.MediaName,
		&campaign.ContactListID,
	)
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// ListDue retrieves scheduled campaigns due for dispatch
func (r *campaignRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.CampaignStatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due campaigns: %w", err)
	}

	return campaigns, nil
}

// Claim performs the optimistic scheduled → processing transition. The
// conditional update plus affected-row check is what closes the race between
// two overlapping invocations scanning the same scheduled campaign.
func (r *campaignRepository) Claim(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, models.CampaignStatusProcessing, id, models.CampaignStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to claim campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// MarkCompleted transitions a campaign to its terminal completed status
func (r *campaignRepository) MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	return r.finish(ctx, id, models.CampaignStatusCompleted, at)
}

// MarkFailed transitions a campaign to its terminal failed status
func (r *campaignRepository) MarkFailed(ctx context.Context, id int64, at time.Time) (bool, error) {
	return r.finish(ctx, id, models.CampaignStatusFailed, at)
}

// finish sets a terminal status; completed_at is set iff the campaign is
// completed or failed. The status guard mirrors Claim: terminal statuses
// are never re-entered, so an invocation that lost its claim to the stale
// sweep cannot flip a campaign another run already finished.
func (r *campaignRepository) finish(ctx context.Context, id int64, status string, at time.Time) (bool, error) {
	query := `
		UPDATE campaigns
		SET status = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, status, at, id, models.CampaignStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to update campaign status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// ReleaseStale reverts campaigns abandoned mid-processing by a killed
// invocation so they become claimable again.
func (r *campaignRepository) ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < $3`

	result, err := r.db.ExecContext(ctx, query, models.CampaignStatusScheduled, models.CampaignStatusProcessing, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to release stale campaigns: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
