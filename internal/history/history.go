// Package history keeps the recent and popular query lists that the
// discovery view shows before the user has typed anything.
package history

import (
	"context"
	"strings"
)

// RecentNamespace is the fixed storage namespace for recent searches.
const RecentNamespace = "recent-searches"

// DefaultRecentLimit caps the recent-searches list.
const DefaultRecentLimit = 5

// RecentStore persists per-user recent searches, most recent first.
type RecentStore interface {
	// Recent returns the stored list, most recent first.
	Recent(ctx context.Context, user string) ([]string, error)

	// Push records query as the most recent search and returns the new list.
	Push(ctx context.Context, user, query string) ([]string, error)

	// Clear removes every recent search of user.
	Clear(ctx context.Context, user string) error
}

// PopularStore counts submitted queries across users.
type PopularStore interface {
	// Record counts one submission of query.
	Record(ctx context.Context, query string) error

	// Top returns up to n queries, most submitted first.
	Top(ctx context.Context, n int) ([]string, error)
}

// Push returns list with query moved to the front. Entries are compared
// trimmed and case-insensitively; the newest spelling wins. The result never
// exceeds limit entries. Blank queries leave the list unchanged.
func Push(list []string, query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	out := make([]string, 0, limit)
	out = append(out, query)
	for _, q := range list {
		if len(out) == limit {
			break
		}
		if strings.EqualFold(strings.TrimSpace(q), query) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// MergePopular returns counted queries followed by the static list, without
// duplicates, capped at limit.
func MergePopular(counted, static []string, limit int) []string {
	seen := make(map[string]struct{}, len(counted)+len(static))
	out := make([]string, 0, limit)
	for _, list := range [][]string{counted, static} {
		for _, q := range list {
			if len(out) == limit {
				return out
			}
			key := strings.ToLower(strings.TrimSpace(q))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(q))
		}
	}
	return out
}

// NormalizeQuery is the key popular counts are grouped by.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
