package models

import "time"

// CampaignShipping is one ledger entry: a persisted attempt to deliver a
// composed message to one recipient. The row is inserted before the provider
// call; DeliveryAt is set only on confirmed provider acceptance. A row that is
// never marked delivered means an in-flight or failed send, an unknown
// outcome for a later reconciliation pass to resolve.
type CampaignShipping struct {
	ID                int64      `json:"id"`
	CampaignID        int64      `json:"campaign_id"`
	ContactListItemID int64      `json:"contact_list_item_id"`
	Number            string     `json:"number"`
	Message           string     `json:"message"`
	DeliveryAt        *time.Time `json:"delivery_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
