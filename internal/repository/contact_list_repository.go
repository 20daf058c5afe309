package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zapline/campaign-dispatch/internal/models"
)

// ContactListRepository resolves a campaign's bound recipient list. Pure
// read: contact lists belong to the list-management subsystem.
type ContactListRepository interface {
	// ListItems returns the recipients of a contact list in list order. An
	// absent or empty list yields an empty slice, never an error; empty
	// campaigns are a normal condition.
	ListItems(ctx context.Context, contactListID int64) ([]*models.ContactListItem, error)
}

// contactListRepository implements ContactListRepository using PostgreSQL
type contactListRepository struct {
	db *sql.DB
}

// NewContactListRepository creates a new contact list repository
func NewContactListRepository(db *sql.DB) ContactListRepository {
	return &contactListRepository{db: db}
}

// ListItems retrieves all items of a contact list
func (r *contactListRepository) ListItems(ctx context.Context, contactListID int64) ([]*models.ContactListItem, error) {
	query := `
		SELECT id, contact_list_id, name, number, COALESCE(email, '')
		FROM contact_list_items
		WHERE contact_list_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, contactListID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact list items: %w", err)
	}
	defer rows.Close()

	items := []*models.ContactListItem{}
	for rows.Next() {
		item := &models.ContactListItem{}
		err := rows.Scan(
			&item.ID,
			&item.ContactListID,
			&item.Name,
			&item.Number,
			&item.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact list item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact list items: %w", err)
	}

	return items, nil
}
