// Package service implements the application's operations over the repositories.
package service

import (
	"context"

	"threads/internal/notifications"
)

// Page size bounds for paginated reads.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery pages and filters a user or community listing.
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
	// SortAsc orders by creation time oldest first; the default is newest first.
	SortAsc bool
}

// pageBounds normalises a page request and returns page, size and offset.
func pageBounds(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size, (page - 1) * size
}

// hasNext reports whether more results follow a page that started at offset.
func hasNext(total int64, offset, returned int) bool {
	return total > int64(offset+returned)
}

type noopRevalidator struct{}

func (noopRevalidator) RevalidatePath(context.Context, string) {}

func orNoop(r notifications.Revalidator) notifications.Revalidator {
	if r == nil {
		return noopRevalidator{}
	}
	return r
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
