package service

import (
	"context"
	"fmt"

	"threads/internal/models"
	"threads/internal/repository"

	"golang.org/x/sync/errgroup"
)

// populator resolves thread references into views.
type populator struct {
	store *repository.Store
}

// views projects threads with depth levels of children resolved through each
// thread's children list. Authors and communities are loaded in one batch
// each, concurrently. References to records that no longer exist are dropped.
func (p populator) views(ctx context.Context, threads []*models.Thread, depth int) ([]*models.ThreadView, error) {
	byID := make(map[string]*models.Thread, len(threads))
	all := append([]*models.Thread(nil), threads...)

	level := threads
	for d := 0; d < depth && len(level) > 0; d++ {
		var childIDs []string
		for _, t := range level {
			childIDs = append(childIDs, t.Children...)
		}
		childIDs = distinct(childIDs)
		if len(childIDs) == 0 {
			break
		}

		children, err := p.store.Threads.GetByIDs(ctx, childIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load replies: %w", err)
		}
		for _, c := range children {
			byID[c.ID] = c
		}
		all = append(all, children...)
		level = children
	}

	var authorIDs, communityIDs []string
	for _, t := range all {
		authorIDs = append(authorIDs, t.AuthorID)
		if t.CommunityID != nil {
			communityIDs = append(communityIDs, *t.CommunityID)
		}
	}

	var (
		users       map[string]*models.User
		communities map[string]*models.Community
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = p.users(gctx, distinct(authorIDs))
		return err
	})
	g.Go(func() error {
		var err error
		communities, err = p.communities(gctx, distinct(communityIDs))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var build func(t *models.Thread, remaining int) *models.ThreadView
	build = func(t *models.Thread, remaining int) *models.ThreadView {
		v := &models.ThreadView{
			ID:        t.ID,
			Text:      t.Text,
			Author:    users[t.AuthorID].Summary(),
			Children:  []*models.ThreadView{},
			CreatedAt: t.CreatedAt,
		}
		if t.ParentID != nil {
			v.ParentID = *t.ParentID
		}
		if t.CommunityID != nil {
			v.Community = communities[*t.CommunityID].Summary()
		}
		if remaining > 0 {
			for _, cid := range t.Children {
				if c, ok := byID[cid]; ok {
					v.Children = append(v.Children, build(c, remaining-1))
				}
			}
		}
		return v
	}

	out := make([]*models.ThreadView, 0, len(threads))
	for _, t := range threads {
		out = append(out, build(t, depth))
	}
	return out, nil
}

func (p populator) users(ctx context.Context, ids []string) (map[string]*models.User, error) {
	list, err := p.store.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}
	m := make(map[string]*models.User, len(list))
	for _, u := range list {
		m[u.ID] = u
	}
	return m, nil
}

func (p populator) communities(ctx context.Context, ids []string) (map[string]*models.Community, error) {
	list, err := p.store.Communities.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load communities: %w", err)
	}
	m := make(map[string]*models.Community, len(list))
	for _, c := range list {
		m[c.ID] = c
	}
	return m, nil
}

// inOrder returns the threads of ids that exist, in ids order.
func (p populator) inOrder(ctx context.Context, ids []string) ([]*models.Thread, error) {
	threads, err := p.store.Threads.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Thread, len(threads))
	for _, t := range threads {
		byID[t.ID] = t
	}
	out := make([]*models.Thread, 0, len(threads))
	for _, id := range distinct(ids) {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
