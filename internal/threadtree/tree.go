// Package threadtree enumerates the replies beneath a thread.
package threadtree

import (
	"context"
	"fmt"

	"threads/internal/models"
)

// ChildrenFunc returns the direct replies of every thread in parentIDs.
type ChildrenFunc func(ctx context.Context, parentIDs []string) ([]*models.Thread, error)

// Descendants walks the reply tree below rootID breadth first, one store
// round trip per depth level. Every descendant is returned exactly once;
// a thread reached again through a malformed parent chain is skipped.
func Descendants(ctx context.Context, rootID string, children ChildrenFunc) ([]*models.Thread, error) {
	visited := map[string]struct{}{rootID: {}}
	var out []*models.Thread

	frontier := []string{rootID}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := children(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to load replies: %w", err)
		}

		next := make([]string, 0, len(batch))
		for _, t := range batch {
			if _, seen := visited[t.ID]; seen {
				continue
			}
			visited[t.ID] = struct{}{}
			out = append(out, t)
			next = append(next, t.ID)
		}
		frontier = next
	}

	return out, nil
}

// Index maps a parent id to its direct replies, in input order.
type Index map[string][]*models.Thread

// BuildIndex groups threads by their parent id. Top-level threads are ignored.
func BuildIndex(threads []*models.Thread) Index {
	idx := make(Index)
	for _, t := range threads {
		if t.IsTopLevel() {
			continue
		}
		idx[*t.ParentID] = append(idx[*t.ParentID], t)
	}
	return idx
}

// Walk visits the descendants of rootID in idx depth first, calling fn with
// each thread and its depth below the root (direct replies are depth 1).
// Returning false from fn skips the thread's own replies.
func (idx Index) Walk(rootID string, fn func(t *models.Thread, depth int) bool) {
	visited := map[string]struct{}{rootID: {}}

	type item struct {
		t     *models.Thread
		depth int
	}
	var stack []item
	push := func(parentID string, depth int) {
		kids := idx[parentID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, item{kids[i], depth})
		}
	}

	push(rootID, 1)
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[it.t.ID]; seen {
			continue
		}
		visited[it.t.ID] = struct{}{}
		if fn(it.t, it.depth) {
			push(it.t.ID, it.depth+1)
		}
	}
}

// IDs returns the ids of threads in order.
func IDs(threads []*models.Thread) []string {
	ids := make([]string, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}
	return ids
}
