package seed

import (
	"context"
	"fmt"
	"log"

	"dajtovon/internal/database"
	"dajtovon/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers            int
	NumContent          int
	CommentsPerContent  int
	ReactionsPerContent int
	ShouldClean         bool
	Factory             FactoryOptions
}

// Summary reports what a seed run wrote.
type Summary struct {
	Users         int
	Content       int
	Comments      int
	Reactions     int
	Notifications int64
}

// Seed fills db with users, content, comments and reactions. Comments and
// reactions are applied through the services, so the resulting notifications
// are the ones real traffic would have produced.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("seeding %d users and %d content items", opts.NumUsers, opts.NumContent)

	if opts.ShouldClean && !opts.Factory.DryRun {
		if err := ClearData(ctx, db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f := NewFactory(db, opts.Factory)
	sum := &Summary{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			log.Printf("failed to create user: %v", err)
			continue
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	contents := make([]*models.Content, 0, opts.NumContent)
	for i := 0; i < opts.NumContent; i++ {
		contents = append(contents, f.BuildContent(users[i%len(users)]))
	}
	if err := f.CreateContentBatch(ctx, contents); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	sum.Content = len(contents)

	for _, c := range contents {
		for _, u := range f.Pick(users, opts.CommentsPerContent, "") {
			comment, err := f.CreateComment(ctx, u, c)
			if err != nil {
				return nil, fmt.Errorf("comment on %s: %w", c.ID, err)
			}
			sum.Comments++

			// Some comments collect a reaction of their own.
			for _, r := range f.Pick(users, 1, u.Username) {
				if _, err := f.React(ctx, r, c, comment.ID, f.RandomReaction()); err != nil {
					return nil, fmt.Errorf("react to comment %s: %w", comment.ID, err)
				}
				sum.Reactions++
			}
		}
		for _, u := range f.Pick(users, opts.ReactionsPerContent, c.Author) {
			if _, err := f.React(ctx, u, c, "", f.RandomReaction()); err != nil {
				return nil, fmt.Errorf("react to %s: %w", c.ID, err)
			}
			sum.Reactions++
		}
	}

	if !opts.Factory.DryRun {
		if err := db.WithContext(ctx).Model(&models.Notification{}).Count(&sum.Notifications).Error; err != nil {
			return nil, err
		}
	}

	log.Printf("seeded %d users, %d content, %d comments, %d reactions, %d notifications",
		sum.Users, sum.Content, sum.Comments, sum.Reactions, sum.Notifications)
	return sum, nil
}

// ClearData removes every row of every schema-managed table, dependents first.
func ClearData(ctx context.Context, db *gorm.DB) error {
	log.Println("clearing existing data")
	all := database.PersistentModels()
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
