package models

// ChannelStatusConnected is the status value a tenant's messaging channel
// must hold before any campaign of that tenant can be dispatched.
const ChannelStatusConnected = "CONNECTED"

// Channel is a company-scoped connection to the external messaging network.
// Read-only precondition source for dispatch.
type Channel struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Status    string `json:"status"`
}
