// Command main runs the database seeder for dajtovon.
package main

import (
	"context"
	"flag"
	"log"

	"dajtovon/internal/config"
	"dajtovon/internal/database"
	"dajtovon/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numContent := flag.Int("content", 200, "Number of content items to create")
	comments := flag.Int("comments", 3, "Comments per content item")
	reactions := flag.Int("reactions", 8, "Reactions per content item")
	maxDays := flag.Int("days", 90, "Spread content creation over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt and store the seed password unhashed")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d content, clean=%v", *numUsers, *numContent, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	_, err = seed.Seed(context.Background(), db, seed.Options{
		NumUsers:            *numUsers,
		NumContent:          *numContent,
		CommentsPerContent:  *comments,
		ReactionsPerContent: *reactions,
		ShouldClean:         *shouldClean,
		Factory: seed.FactoryOptions{
			DryRun:     *dryRun,
			MaxDays:    *maxDays,
			SkipBcrypt: *fast,
		},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done. Every seeded account has the password: %s", seed.DefaultPassword)
}
