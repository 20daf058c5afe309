package composer

import (
	"math/rand"
	"regexp"
	"time"

	"github.com/zapline/campaign-dispatch/internal/models"
)

// Composer builds the final message text for one recipient of a campaign.
type Composer interface {
	Compose(campaign *models.Campaign, contact *models.ContactListItem) string
}

// placeholder binds a pattern to the contact field that replaces it.
// Substitution is case-insensitive and applies to every occurrence;
// placeholders not listed here are left verbatim.
type placeholder struct {
	pattern *regexp.Regexp
	value   func(*models.ContactListItem) string
}

type composer struct {
	placeholders []placeholder
	rng          *rand.Rand
}

// New creates a composer with a time-seeded variant picker.
func New() Composer {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates a composer with the given random source, so variant
// selection can be made deterministic in tests.
func NewWithRand(rng *rand.Rand) Composer {
	name := func(c *models.ContactListItem) string { return c.Name }
	number := func(c *models.ContactListItem) string { return c.Number }

	return &composer{
		rng: rng,
		placeholders: []placeholder{
			{regexp.MustCompile(`(?i)\{nome\}`), name},
			{regexp.MustCompile(`(?i)\{name\}`), name},
			{regexp.MustCompile(`(?i)\{numero\}`), number},
			{regexp.MustCompile(`(?i)\{number\}`), number},
		},
	}
}

// Compose picks one variant uniformly at random for this recipient and
// substitutes the recipient's fields into it. The per-recipient pick spreads
// traffic across variants. A campaign with no non-empty variants composes to
// the empty string; the engine decides whether a media-only send remains
// possible.
func (s *composer) Compose(campaign *models.Campaign, contact *models.ContactListItem) string {
	variants := campaign.Variants()
	if len(variants) == 0 {
		return ""
	}

	message := variants[s.rng.Intn(len(variants))]
	for _, p := range s.placeholders {
		message = p.pattern.ReplaceAllString(message, p.value(contact))
	}

	return message
}
