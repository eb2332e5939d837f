// Package profile holds the read-only catalog of doctor personas.
package profile

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/domain"
	"github.com/vitalcall/consult/internal/shared"
)

// Catalog maps profile ids to personas. It is immutable after New.
type Catalog struct {
	ids      []string
	profiles map[string]domain.Profile
}

// New builds a catalog from configuration, keeping configuration order.
func New(entries []config.ProfileConfig) *Catalog {
	c := &Catalog{profiles: make(map[string]domain.Profile, len(entries))}
	for _, e := range entries {
		if _, dup := c.profiles[e.ID]; !dup {
			c.ids = append(c.ids, e.ID)
		}
		c.profiles[e.ID] = domain.Profile{ID: e.ID, AgentName: e.AgentName, AvatarID: e.AvatarID}
	}
	return c
}

// Resolve returns the profile for id or a not-found error naming the valid ids.
func (c *Catalog) Resolve(id string) (domain.Profile, error) {
	p, ok := c.profiles[id]
	if !ok {
		return domain.Profile{}, shared.NotFound(fmt.Sprintf("Unknown profile '%s'. Use one of [%s].", id, strings.Join(c.ids, ", ")))
	}
	return p, nil
}

// IDs returns the profile ids in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// List returns every profile in catalog order.
func (c *Catalog) List() []domain.Profile {
	return lo.Map(c.ids, func(id string, _ int) domain.Profile { return c.profiles[id] })
}
