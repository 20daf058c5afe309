package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/zapline/campaign-dispatch/internal/composer"
	"github.com/zapline/campaign-dispatch/internal/models"
	"github.com/zapline/campaign-dispatch/internal/provider"
	"github.com/zapline/campaign-dispatch/internal/repository"
)

// DefaultBatchLimit bounds how many due campaigns one invocation claims.
const DefaultBatchLimit = 10

// Summary aggregates the outcome of one dispatch run across all campaigns
// in the batch.
type Summary struct {
	Success       bool     `json:"success"`
	Processed     int      `json:"processed"`
	Failed        int      `json:"failed"`
	TotalMessages int      `json:"totalMessages"`
	Errors        []string `json:"errors"`
}

// Options holds dispatch engine tuning.
type Options struct {
	// StaleClaimAfter is how long a campaign may sit in processing before a
	// run treats the claim as abandoned and releases it. Zero disables the
	// sweep.
	StaleClaimAfter time.Duration
}

// Engine scans for due campaigns, claims them, and fans each one out to its
// recipients through the provider, recording every attempt in the shipping
// ledger. The engine holds no state between invocations; an external
// scheduler calls RunOnce on a fixed cadence.
type Engine struct {
	campaignRepo repository.CampaignRepository
	contactRepo  repository.ContactListRepository
	shippingRepo repository.ShippingRepository
	channelRepo  repository.ChannelRepository
	sender       provider.Client
	composer     composer.Composer
	limiter      *rate.Limiter
	opts         Options
	logger       *slog.Logger
}

// New creates a dispatch engine. The limiter paces provider traffic: the
// engine waits on it once per recipient, so the limiter, not the loop shape,
// is the throughput control.
func New(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactListRepository,
	shippingRepo repository.ShippingRepository,
	channelRepo repository.ChannelRepository,
	sender provider.Client,
	messageComposer composer.Composer,
	limiter *rate.Limiter,
	opts Options,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		campaignRepo: campaignRepo,
		contactRepo:  contactRepo,
		shippingRepo: shippingRepo,
		channelRepo:  channelRepo,
		sender:       sender,
		composer:     messageComposer,
		limiter:      limiter,
		opts:         opts,
		logger:       logger,
	}
}

// RunOnce claims up to batchLimit due campaigns and dispatches them
// sequentially. Failures are absorbed at the narrowest scope that preserves
// forward progress: a bad recipient never fails its campaign, a failed
// campaign never fails the batch. Only an unreachable database turns the
// whole summary unsuccessful.
func (e *Engine) RunOnce(ctx context.Context, batchLimit int) *Summary {
	if batchLimit <= 0 {
		batchLimit = DefaultBatchLimit
	}

	summary := &Summary{Success: true, Errors: []string{}}
	now := time.Now().UTC()

	if e.opts.StaleClaimAfter > 0 {
		released, err := e.campaignRepo.ReleaseStale(ctx, now.Add(-e.opts.StaleClaimAfter))
		if err != nil {
			e.logger.Error("failed to release stale claims", slog.String("error", err.Error()))
		} else if released > 0 {
			e.logger.Warn("released stale campaign claims", slog.Int64("count", released))
		}
	}

	campaigns, err := e.campaignRepo.ListDue(ctx, now, batchLimit)
	if err != nil {
		e.logger.Error("failed to scan due campaigns", slog.String("error", err.Error()))
		summary.Success = false
		summary.Errors = append(summary.Errors, fmt.Sprintf("scan failed: %v", err))
		return summary
	}

	e.logger.Info("dispatch run started",
		slog.Int("due_campaigns", len(campaigns)),
		slog.Int("batch_limit", batchLimit),
	)

	for _, campaign := range campaigns {
		if err := ctx.Err(); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("run interrupted: %v", err))
			break
		}

		claimed, err := e.campaignRepo.Claim(ctx, campaign.ID)
		if err != nil {
			e.logger.Error("failed to claim campaign",
				slog.Int64("campaign_id", campaign.ID),
				slog.String("error", err.Error()),
			)
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("campaign %d: claim failed: %v", campaign.ID, err))
			continue
		}
		if !claimed {
			// Another invocation owns it; re-running against a processing
			// campaign is a no-op.
			e.logger.Info("campaign already claimed, skipping", slog.Int64("campaign_id", campaign.ID))
			continue
		}

		e.processCampaign(ctx, campaign, summary)
	}

	e.logger.Info("dispatch run finished",
		slog.Int("processed", summary.Processed),
		slog.Int("failed", summary.Failed),
		slog.Int("total_messages", summary.TotalMessages),
	)

	return summary
}

// processCampaign drives one claimed campaign to a terminal status.
func (e *Engine) processCampaign(ctx context.Context, campaign *models.Campaign, summary *Summary) {
	channel, err := e.channelRepo.GetConnected(ctx, campaign.CompanyID)
	if err != nil {
		e.logger.Warn("no connected channel for campaign",
			slog.Int64("campaign_id", campaign.ID),
			slog.Int64("company_id", campaign.CompanyID),
			slog.String("error", err.Error()),
		)
		e.failCampaign(ctx, campaign.ID, summary, fmt.Sprintf("campaign %d: no connected channel", campaign.ID))
		return
	}

	contacts, err := e.contactRepo.ListItems(ctx, campaign.ContactListID)
	if err != nil {
		e.logger.Error("failed to resolve recipients",
			slog.Int64("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
		e.failCampaign(ctx, campaign.ID, summary, fmt.Sprintf("campaign %d: recipient resolution failed: %v", campaign.ID, err))
		return
	}

	// An empty recipient list is a valid, successful campaign.
	if len(contacts) == 0 {
		e.logger.Info("campaign has no recipients",
			slog.Int64("campaign_id", campaign.ID),
		)
		e.completeCampaign(ctx, campaign.ID, summary)
		return
	}

	e.logger.Info("dispatching campaign",
		slog.Int64("campaign_id", campaign.ID),
		slog.Int64("channel_id", channel.ID),
		slog.Int("recipients", len(contacts)),
	)

	for _, contact := range contacts {
		ok, fatal := e.dispatchRecipient(ctx, campaign, contact, summary)
		if errors.Is(fatal, context.Canceled) || errors.Is(fatal, context.DeadlineExceeded) {
			// Shutdown mid-campaign: leave the claim in place so the stale
			// sweep returns the campaign to scheduled instead of terminally
			// failing work that can be resumed.
			e.logger.Warn("dispatch interrupted, leaving claim for stale sweep",
				slog.Int64("campaign_id", campaign.ID),
			)
			summary.Errors = append(summary.Errors, fmt.Sprintf("campaign %d: dispatch interrupted: %v", campaign.ID, fatal))
			return
		}
		if fatal != nil {
			// Ledger write failure: abort remaining recipients, fail the
			// campaign, keep going with the rest of the batch.
			e.failCampaign(ctx, campaign.ID, summary, fmt.Sprintf("campaign %d: %v", campaign.ID, fatal))
			return
		}
		if ok {
			summary.TotalMessages++
		}
	}

	// Partial recipient failures do not fail the campaign.
	e.completeCampaign(ctx, campaign.ID, summary)
}

// dispatchRecipient records and sends one message. The returned fatal error
// aborts the campaign; any other failure is confined to this recipient.
func (e *Engine) dispatchRecipient(ctx context.Context, campaign *models.Campaign, contact *models.ContactListItem, summary *Summary) (sent bool, fatal error) {
	message := e.composer.Compose(campaign, contact)

	if message == "" && !campaign.HasMedia() {
		e.logger.Warn("recipient skipped: campaign has no message variants and no media",
			slog.Int64("campaign_id", campaign.ID),
			slog.Int64("contact_id", contact.ID),
		)
		summary.Errors = append(summary.Errors,
			fmt.Sprintf("campaign %d: contact %d skipped: no message variants and no media", campaign.ID, contact.ID))
		return false, nil
	}

	shipping := &models.CampaignShipping{
		CampaignID:        campaign.ID,
		ContactListItemID: contact.ID,
		Number:            contact.Number,
		Message:           message,
	}

	created, err := e.shippingRepo.Create(ctx, shipping)
	if err != nil {
		return false, fmt.Errorf("ledger write failed: %w", err)
	}
	if !created {
		// A row from an earlier attempt covers this pair; do not re-send.
		e.logger.Info("shipping record already exists, skipping send",
			slog.Int64("campaign_id", campaign.ID),
			slog.Int64("contact_id", contact.ID),
		)
		return false, nil
	}

	// One pause per recipient, regardless of outcome.
	if err := e.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("pacing wait interrupted for contact %d: %w", contact.ID, err)
	}

	if campaign.HasMedia() {
		err = e.sender.SendDocument(ctx, contact.Number, campaign.MediaPath, message, campaign.MediaFileName())
	} else {
		err = e.sender.SendText(ctx, contact.Number, message)
	}
	if err != nil {
		// Best effort, no retry: the ledger row stays undelivered and a
		// later reconciliation pass resolves the unknown outcome.
		e.logger.Warn("send failed",
			slog.Int64("campaign_id", campaign.ID),
			slog.Int64("contact_id", contact.ID),
			slog.String("number", contact.Number),
			slog.String("error", err.Error()),
		)
		return false, nil
	}

	if err := e.shippingRepo.MarkDelivered(ctx, shipping.ID, time.Now().UTC()); err != nil {
		// The send was accepted; a missing delivery stamp degrades to the
		// same unknown outcome an undelivered row already means.
		e.logger.Error("failed to mark shipping delivered",
			slog.Int64("shipping_id", shipping.ID),
			slog.String("error", err.Error()),
		)
	}

	return true, nil
}

func (e *Engine) completeCampaign(ctx context.Context, campaignID int64, summary *Summary) {
	ok, err := e.campaignRepo.MarkCompleted(ctx, campaignID, time.Now().UTC())
	if err != nil {
		e.logger.Error("failed to mark campaign completed",
			slog.Int64("campaign_id", campaignID),
			slog.String("error", err.Error()),
		)
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("campaign %d: completion update failed: %v", campaignID, err))
		return
	}
	if !ok {
		// The campaign left processing under us: the stale sweep released
		// the claim and another run finished it. Its terminal state stands.
		e.logger.Warn("lost claim before completion, leaving terminal state untouched",
			slog.Int64("campaign_id", campaignID),
		)
		return
	}

	summary.Processed++
	e.logger.Info("campaign completed", slog.Int64("campaign_id", campaignID))
}

func (e *Engine) failCampaign(ctx context.Context, campaignID int64, summary *Summary, reason string) {
	ok, err := e.campaignRepo.MarkFailed(ctx, campaignID, time.Now().UTC())
	if err != nil {
		e.logger.Error("failed to mark campaign failed",
			slog.Int64("campaign_id", campaignID),
			slog.String("error", err.Error()),
		)
	}
	if err == nil && !ok {
		e.logger.Warn("lost claim before failure, leaving terminal state untouched",
			slog.Int64("campaign_id", campaignID),
		)
		return
	}

	summary.Failed++
	summary.Errors = append(summary.Errors, reason)
}
