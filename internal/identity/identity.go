// Package identity resolves display identities (username, avatar) for
// leaderboard rendering. Decoration only: a missing identity falls back to a
// generated placeholder and never fails a page.
package identity

import (
	"context"
	"fmt"
)

// Identity is a user's display decoration.
type Identity struct {
	UserID      string
	DisplayName string
	AvatarURL   string
}

// Provider resolves identities for a batch of user ids. Implementations may
// return a partial map; absent ids get a placeholder.
type Provider interface {
	Resolve(ctx context.Context, userIDs []string) (map[string]Identity, error)
}

// Placeholder builds the fallback identity for a user with no resolvable
// display data.
func Placeholder(userID string) Identity {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return Identity{
		UserID:      userID,
		DisplayName: fmt.Sprintf("player-%s", short),
	}
}

// Static is a fixed-map Provider, used in tests and single-tenant setups.
type Static struct {
	Identities map[string]Identity
}

var _ Provider = (*Static)(nil)

func (s *Static) Resolve(_ context.Context, userIDs []string) (map[string]Identity, error) {
	out := make(map[string]Identity, len(userIDs))
	for _, id := range userIDs {
		if ident, ok := s.Identities[id]; ok {
			out[id] = ident
		}
	}
	return out, nil
}
