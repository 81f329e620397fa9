// Package seed creates demo data for development. Records are written through
// the services so every reference list stays consistent on any backend.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"threads/internal/models"
	"threads/internal/repository"
	"threads/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds domain entities and persists them through the services.
type Factory struct {
	users       *service.UserService
	threads     *service.ThreadService
	communities *service.CommunityService
	// suffix keeps generated usernames unique within a run
	next int
}

// NewFactory creates a Factory over store. A non-zero seed makes generated
// content repeatable.
func NewFactory(store *repository.Store, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	return &Factory{
		users:       service.NewUserService(store, nil, nil),
		threads:     service.NewThreadService(store, nil, nil),
		communities: service.NewCommunityService(store, nil, nil),
	}
}

// CreateUser onboards a user with a generated profile.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*service.UpdateUserInput)) (*models.User, error) {
	f.next++
	in := service.UpdateUserInput{
		ExternalID: "user_" + strings.ReplaceAll(gofakeit.UUID(), "-", ""),
		Username:   Username(gofakeit.Username(), f.next),
		Name:       gofakeit.Name(),
		Bio:        gofakeit.Sentence(12),
	}
	for _, override := range overrides {
		override(&in)
	}
	return f.users.UpdateUser(ctx, in)
}

// CreateCommunity creates a community owned by creator.
func (f *Factory) CreateCommunity(ctx context.Context, creator *models.User) (*models.Community, error) {
	f.next++
	name := gofakeit.Company()
	if len(name) > 50 {
		name = name[:50]
	}
	return f.communities.UpsertCommunity(ctx, service.UpsertCommunityInput{
		ExternalID:        "org_" + strings.ReplaceAll(gofakeit.UUID(), "-", ""),
		Username:          Username(name, f.next),
		Name:              name,
		Bio:               gofakeit.Sentence(10),
		CreatorExternalID: creator.ExternalID,
	})
}

// JoinCommunity adds user to community.
func (f *Factory) JoinCommunity(ctx context.Context, community *models.Community, user *models.User) error {
	_, err := f.communities.AddMember(ctx, service.AddMemberInput{
		CommunityExternalID: community.ExternalID,
		UserExternalID:      user.ExternalID,
	})
	return err
}

// CreatePost creates a top-level thread, optionally under community.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, community *models.Community) (*models.Thread, error) {
	in := service.CreateThreadInput{
		Text:     gofakeit.Paragraph(1, 3, 8, "\n"),
		AuthorID: author.ID,
	}
	if community != nil {
		in.CommunityID = community.ExternalID
	}
	return f.threads.CreateThread(ctx, in)
}

// CreateReply replies to parent as author.
func (f *Factory) CreateReply(ctx context.Context, parent *models.Thread, author *models.User) (*models.Thread, error) {
	return f.threads.AddComment(ctx, service.AddCommentInput{
		ThreadID: parent.ID,
		Text:     gofakeit.Sentence(gofakeit.Number(4, 16)),
		AuthorID: author.ID,
	})
}

// Username turns raw into a valid username ending in n.
func Username(raw string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	suffix := fmt.Sprintf("_%d", n)
	base := b.String()
	if len(base) < 3 {
		base = "user"
	}
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}
