// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"dajtovon/internal/models"
	"dajtovon/internal/reaction"
	"dajtovon/internal/repository"
	"dajtovon/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Dajtovon-Seed-1"

// Categories content is spread across.
var Categories = []string{"hiking", "travel", "food", "music", "tech", "books", "photography"}

// FactoryOptions tune how entities are generated.
type FactoryOptions struct {
	// DryRun builds entities without writing them.
	DryRun bool
	// MaxDays bounds how far back content creation times are spread.
	MaxDays int
	// SkipBcrypt stores DefaultPassword unhashed for fast local seeding.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them. Reactions and comments go
// through the services so that seeded recipients get their notifications.
type Factory struct {
	db        *gorm.DB
	opts      FactoryOptions
	rng       *rand.Rand
	reactions *service.ReactionService
	comments  *service.CommentService
	dryRunN   int
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)

	contentRepo := repository.NewContentRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	notifier := service.NewNotificationService(repository.NewNotificationRepository(db), nil, 0, 0)
	locks := service.NewKeyedMutex()

	return &Factory{
		db:   db,
		opts: opts,
		// #nosec G404: acceptable for seeding
		rng:       rand.New(rand.NewSource(seed)),
		reactions: service.NewReactionService(contentRepo, commentRepo, reactionRepo, notifier, locks, 0),
		comments:  service.NewCommentService(commentRepo, contentRepo, notifier, locks, 0),
	}
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return DefaultPassword
	}
	return string(hashed)
}

// CreateUser constructs and persists a sample user. Optional overrides may
// modify the generated user before it is saved.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	name := strings.ToLower(gofakeit.Username())
	user := &models.User{
		Username: fmt.Sprintf("%s%d", name, gofakeit.Number(100, 999)),
		Email:    fmt.Sprintf("%s.%d@%s", name, gofakeit.Number(1000, 9999), gofakeit.DomainName()),
		Password: f.password(),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.dryRunN++
		user.ID = uint(f.dryRunN)
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildContent constructs a content item authored by author without
// persisting it. CreatedAt is spread over the last MaxDays days.
func (f *Factory) BuildContent(author *models.User, overrides ...func(*models.Content)) *models.Content {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute

	content := &models.Content{
		ID:        uuid.NewString(),
		Author:    author.Username,
		Topic:     strings.TrimSuffix(gofakeit.Sentence(5), "."),
		Body:      gofakeit.Paragraph(1, 3, 8, "\n"),
		Category:  Categories[f.rng.Intn(len(Categories))],
		CreatedAt: time.Now().Add(-back),
	}
	for _, override := range overrides {
		override(content)
	}
	return content
}

// CreateContentBatch persists contents in a single insert.
func (f *Factory) CreateContentBatch(ctx context.Context, contents []*models.Content) error {
	if len(contents) == 0 {
		return nil
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateContentBatch: %d items", len(contents))
		return nil
	}
	return f.db.WithContext(ctx).Create(&contents).Error
}

// CreateComment adds a comment by author under content, notifying the
// content's author.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, content *models.Content) (*models.Comment, error) {
	text := gofakeit.Sentence(8 + f.rng.Intn(8))
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateComment: %s on %s", author.Username, content.ID)
		return &models.Comment{ID: uuid.NewString(), ContentID: content.ID, Author: author.Username, Text: text}, nil
	}
	return f.comments.CreateComment(ctx, service.CreateCommentInput{
		Author:    author.Username,
		ContentID: content.ID,
		Text:      text,
	})
}

// React applies action by actor to content, or to commentID under it when set.
func (f *Factory) React(ctx context.Context, actor *models.User, content *models.Content, commentID string, action reaction.Action) (*service.ReactResult, error) {
	if f.opts.DryRun {
		log.Printf("[dry-run] React: %s %s %s", actor.Username, action, content.ID)
		return &service.ReactResult{}, nil
	}
	return f.reactions.React(ctx, service.ReactInput{
		Actor:     actor.Username,
		ContentID: content.ID,
		CommentID: commentID,
		Action:    action,
	})
}

// RandomReaction picks like roughly three times out of four.
func (f *Factory) RandomReaction() reaction.Action {
	if f.rng.Intn(4) == 0 {
		return reaction.Dislike
	}
	return reaction.Like
}

// Pick returns up to n distinct users other than exclude, in random order.
func (f *Factory) Pick(users []*models.User, n int, exclude string) []*models.User {
	out := make([]*models.User, 0, n)
	for _, i := range f.rng.Perm(len(users)) {
		if len(out) == n {
			break
		}
		if users[i].Username == exclude {
			continue
		}
		out = append(out, users[i])
	}
	return out
}
