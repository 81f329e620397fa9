package service

import (
	"context"
	"fmt"

	"threads/internal/models"
	"threads/internal/notifications"
	"threads/internal/repository"
	"threads/internal/validation"
)

type CommunityService struct {
	store       *repository.Store
	revalidator notifications.Revalidator
	imageHosts  []string
	populate    populator
}

type UpsertCommunityInput struct {
	ExternalID string
	Username   string
	Name       string
	Bio        string
	Image      string
	// CreatorExternalID identifies the creating user by auth id.
	CreatorExternalID string
	Path              string
}

type AddMemberInput struct {
	CommunityExternalID string
	UserExternalID      string
	Path                string
}

func NewCommunityService(store *repository.Store, revalidator notifications.Revalidator, imageHosts []string) *CommunityService {
	return &CommunityService{
		store:       store,
		revalidator: orNoop(revalidator),
		imageHosts:  imageHosts,
		populate:    populator{store: store},
	}
}

// UpsertCommunity creates or updates a community. The creator joins it.
func (s *CommunityService) UpsertCommunity(ctx context.Context, in UpsertCommunityInput) (*models.Community, error) {
	if in.ExternalID == "" {
		return nil, models.NewValidationError("Community id is required")
	}
	username, err := validation.Username(in.Username)
	if err != nil {
		return nil, err
	}
	name, err := validation.Name(in.Name)
	if err != nil {
		return nil, err
	}
	bio, err := validation.Bio(in.Bio)
	if err != nil {
		return nil, err
	}
	image, err := validation.ImageURL(in.Image, s.imageHosts)
	if err != nil {
		return nil, err
	}

	creator, err := s.store.Users.GetByExternalID(ctx, in.CreatorExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert community: %w", err)
	}

	var community *models.Community
	err = s.store.InTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		var err error
		community, err = tx.Communities.Upsert(ctx, &models.Community{
			ExternalID: in.ExternalID,
			Username:   username,
			Name:       name,
			Bio:        bio,
			Image:      image,
			CreatedBy:  creator.ID,
		})
		if err != nil {
			return err
		}
		if err := tx.Communities.AppendMember(ctx, community.ID, creator.ID); err != nil {
			return err
		}
		return tx.Users.AppendCommunity(ctx, creator.ID, community.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert community: %w", err)
	}

	community.Members = appendOnce(community.Members, creator.ID)
	s.revalidator.RevalidatePath(ctx, in.Path)
	return community, nil
}

// AddMember joins a user to a community. Joining twice is a no-op.
func (s *CommunityService) AddMember(ctx context.Context, in AddMemberInput) (*models.Community, error) {
	community, err := s.store.Communities.GetByExternalID(ctx, in.CommunityExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	user, err := s.store.Users.GetByExternalID(ctx, in.UserExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Communities.AppendMember(ctx, community.ID, user.ID); err != nil {
			return err
		}
		return tx.Users.AppendCommunity(ctx, user.ID, community.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	community.Members = appendOnce(community.Members, user.ID)
	s.revalidator.RevalidatePath(ctx, in.Path)
	return community, nil
}

// FetchCommunityPosts returns the community with its threads, each with one level of replies.
func (s *CommunityService) FetchCommunityPosts(ctx context.Context, externalID string) (*models.CommunityThreads, error) {
	community, err := s.store.Communities.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch community posts: %w", err)
	}

	threads, err := s.populate.inOrder(ctx, community.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch community posts: %w", err)
	}
	views, err := s.populate.views(ctx, threads, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch community posts: %w", err)
	}
	return &models.CommunityThreads{Community: community, Threads: views}, nil
}

func (s *CommunityService) FetchCommunities(ctx context.Context, q ListQuery) (*models.Page[*models.Community], error) {
	_, size, offset := pageBounds(q.Page, q.PageSize)

	communities, total, err := s.store.Communities.Search(ctx, repository.SearchQuery{
		Term:      q.Search,
		Offset:    offset,
		Limit:     size,
		Ascending: q.SortAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch communities: %w", err)
	}
	return &models.Page[*models.Community]{Items: communities, IsNext: hasNext(total, offset, len(communities))}, nil
}

func appendOnce(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
