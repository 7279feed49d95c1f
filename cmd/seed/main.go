// Package main provides a tool to seed the database with demo data.
//
// It creates a demo user with a reading goal and a shelf of books in
// various states, useful for exercising the stats and dashboard endpoints
// against realistic data.
//
// Usage:
//
//	DATA_PATH=~/shelfmark go run ./cmd/seed
//	DATA_PATH=~/shelfmark go run ./cmd/seed --username reader --password bookworm1
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/auth"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

type seedBook struct {
	title     string
	author    string
	genre     string
	pageCount int
	status    domain.Status
	page      int
	rating    int
	comment   string
}

var shelf = []seedBook{
	{"The Dispossessed", "Ursula K. Le Guin", "Science Fiction", 387, domain.StatusRead, 387, 5, "An ambiguous utopia, still sharp fifty years on."},
	{"Piranesi", "Susanna Clarke", "Fantasy", 245, domain.StatusRead, 245, 4, "The House is kind."},
	{"Thinking, Fast and Slow", "Daniel Kahneman", "Psychology", 499, domain.StatusReading, 212, 0, ""},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction", 304, domain.StatusReading, 45, 0, ""},
	{"A Memory Called Empire", "Arkady Martine", "Science Fiction", 462, domain.StatusToRead, 0, 0, ""},
	{"Braiding Sweetgrass", "Robin Wall Kimmerer", "Nature", 390, domain.StatusToRead, 0, 0, ""},
	{"The Name of the Rose", "Umberto Eco", "Mystery", 536, domain.StatusToRead, 0, 0, ""},
}

func main() {
	username := flag.String("username", "demo", "Username for the demo account")
	password := flag.String("password", "demo-password", "Password for the demo account")
	yearlyGoal := flag.Int("goal", 24, "Yearly reading goal for the demo account")
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/shelfmark")
	}
	dbPath := dataPath + "/db"

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := store.New(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	user, err := ensureUser(ctx, s, *username, *password, *yearlyGoal)
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}
	fmt.Printf("Demo user ready: %s (%s)\n", user.Username, user.ID)

	books := service.NewBookService(s, nil, nil, logger)

	created := 0
	for _, b := range shelf {
		book, err := books.Create(ctx, user.ID, service.CreateBookRequest{
			Title:     b.title,
			Author:    b.author,
			Genre:     b.genre,
			PageCount: b.pageCount,
			Status:    string(b.status),
		})
		if err != nil {
			log.Printf("Skipping %q: %v", b.title, err)
			continue
		}

		if b.status == domain.StatusReading && b.page > 0 {
			if _, err := books.UpdateProgress(ctx, user.ID, book.ID, b.page); err != nil {
				log.Printf("Failed to set progress for %q: %v", b.title, err)
			}
		}
		if b.rating > 0 {
			_, err := books.AddReview(ctx, user.ID, book.ID, service.ReviewRequest{
				Rating:  b.rating,
				Comment: b.comment,
			})
			if err != nil {
				log.Printf("Failed to add review for %q: %v", b.title, err)
			}
		}

		created++
		fmt.Printf("  + %s — %s [%s]\n", b.title, b.author, b.status)
	}

	stats := service.NewStatsService(s, logger)
	finished, err := stats.SyncGoalCounter(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to sync goal counter: %v", err)
	}

	fmt.Printf("\nSeeded %d books, %d finished this year (goal %d)\n", created, finished, *yearlyGoal)
}

// ensureUser creates the demo account, or reuses it if the username is taken.
func ensureUser(ctx context.Context, s *store.Store, username, password string, yearlyGoal int) (*domain.User, error) {
	if existing, err := s.GetUserByUsername(ctx, username); err == nil {
		return existing, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           id.MustGenerate("user"),
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		Email:        username + "@shelfmark.local",
		PasswordHash: hash,
		ReadingGoal:  domain.ReadingGoal{Yearly: yearlyGoal},
	}

	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
