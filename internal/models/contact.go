package models

// ContactListItem is one recipient of a campaign's bound contact list.
// Contact lists are owned by the list-management subsystem and are read-only
// to the dispatch engine.
type ContactListItem struct {
	ID            int64  `json:"id"`
	ContactListID int64  `json:"contact_list_id"`
	Name          string `json:"name"`
	Number        string `json:"number"`
	Email         string `json:"email,omitempty"`
}
