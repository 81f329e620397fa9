package service

import (
	"context"
	"fmt"

	"threads/internal/models"
	"threads/internal/notifications"
	"threads/internal/repository"
	"threads/internal/validation"
)

type UserService struct {
	store       *repository.Store
	revalidator notifications.Revalidator
	imageHosts  []string
	populate    populator
}

type UpdateUserInput struct {
	ExternalID string
	Username   string
	Name       string
	Bio        string
	Image      string
	Path       string
}

type FetchUsersInput struct {
	// ExcludeExternalID is usually the caller.
	ExcludeExternalID string
	ListQuery
}

func NewUserService(store *repository.Store, revalidator notifications.Revalidator, imageHosts []string) *UserService {
	return &UserService{
		store:       store,
		revalidator: orNoop(revalidator),
		imageHosts:  imageHosts,
		populate:    populator{store: store},
	}
}

// UpdateUser creates or updates the profile owned by in.ExternalID and marks it onboarded.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if in.ExternalID == "" {
		return nil, models.NewValidationError("User id is required")
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

	user, err := s.store.Users.Upsert(ctx, &models.User{
		ExternalID: in.ExternalID,
		Username:   username,
		Name:       name,
		Bio:        bio,
		Image:      image,
		Onboarded:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.revalidator.RevalidatePath(ctx, in.Path)
	return user, nil
}

func (s *UserService) FetchUser(ctx context.Context, externalID string) (*models.User, error) {
	user, err := s.store.Users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// FetchUserPosts returns the user with their threads, each with one level of replies.
func (s *UserService) FetchUserPosts(ctx context.Context, externalID string) (*models.UserThreads, error) {
	user, err := s.store.Users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user posts: %w", err)
	}

	threads, err := s.populate.inOrder(ctx, user.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user posts: %w", err)
	}
	views, err := s.populate.views(ctx, threads, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user posts: %w", err)
	}
	return &models.UserThreads{User: user, Threads: views}, nil
}

func (s *UserService) FetchUsers(ctx context.Context, in FetchUsersInput) (*models.Page[*models.User], error) {
	_, size, offset := pageBounds(in.Page, in.PageSize)

	users, total, err := s.store.Users.Search(ctx, repository.SearchQuery{
		Term:              in.Search,
		ExcludeExternalID: in.ExcludeExternalID,
		Offset:            offset,
		Limit:             size,
		Ascending:         in.SortAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return &models.Page[*models.User]{Items: users, IsNext: hasNext(total, offset, len(users))}, nil
}
