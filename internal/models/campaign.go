package models

import "time"

// Campaign status constants
const (
	CampaignStatusScheduled  = "scheduled"
	CampaignStatusProcessing = "processing"
	CampaignStatusCompleted  = "completed"
	CampaignStatusFailed     = "failed"
)

// Campaign represents a scheduled broadcast definition: up to five message
// variants, an optional media attachment and a bound contact list.
type Campaign struct {
	ID            int64      `json:"id"`
	CompanyID     int64      `json:"company_id"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Message1      string     `json:"message1"`
	Message2      string     `json:"message2"`
	Message3      string     `json:"message3"`
	Message4      string     `json:"message4"`
	Message5      string     `json:"message5"`
	MediaPath     string     `json:"media_path,omitempty"`
	MediaName     string     `json:"media_name,omitempty"`
	ContactListID int64      `json:"contact_list_id"`
}

// Variants returns the non-empty message bodies among message1..message5,
// in declaration order. Any subset may be empty.
func (c *Campaign) Variants() []string {
	variants := make([]string, 0, 5)
	for _, m := range []string{c.Message1, c.Message2, c.Message3, c.Message4, c.Message5} {
		if m != "" {
			variants = append(variants, m)
		}
	}
	return variants
}

// HasMedia reports whether the campaign carries a media attachment.
func (c *Campaign) HasMedia() bool {
	return c.MediaPath != ""
}

// MediaFileName returns the attachment filename, defaulting to "file" when
// the campaign has media but no stored name.
func (c *Campaign) MediaFileName() string {
	if c.MediaName != "" {
		return c.MediaName
	}
	return "file"
}

// IsValidCampaignStatus checks if the campaign status is valid
func IsValidCampaignStatus(status string) bool {
	switch status {
	case CampaignStatusScheduled, CampaignStatusProcessing, CampaignStatusCompleted, CampaignStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminalCampaignStatus reports whether a status can never be left.
func IsTerminalCampaignStatus(status string) bool {
	return status == CampaignStatusCompleted || status == CampaignStatusFailed
}

// CanTransitionCampaign reports whether a campaign may move from one status
// to another. Transitions are monotonic: scheduled → processing → completed,
// and failed is reachable from any non-terminal status. No state is ever
// re-entered once left.
func CanTransitionCampaign(from, to string) bool {
	if IsTerminalCampaignStatus(from) {
		return false
	}
	switch to {
	case CampaignStatusProcessing:
		return from == CampaignStatusScheduled
	case CampaignStatusCompleted:
		return from == CampaignStatusProcessing
	case CampaignStatusFailed:
		return from == CampaignStatusScheduled || from == CampaignStatusProcessing
	default:
		return false
	}
}
