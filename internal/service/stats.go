package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// StatsService aggregates reading statistics over a user's catalogue.
// All aggregations stream the user's books straight off the store index
// rather than materializing the full list.
type StatsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(store *store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
	}
}

// topGenresLimit caps the genre breakdown.
const topGenresLimit = 5

// monthlyCompletionsLimit caps the months returned, newest first.
const monthlyCompletionsLimit = 12

// GenreCount is one genre bucket in the breakdown.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// MonthlyCompletion counts books finished in one calendar month.
type MonthlyCompletion struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// GoalProgress is the yearly goal alongside its reconciled counter.
type GoalProgress struct {
	Yearly     int `json:"yearly"`
	Current    int `json:"current"`
	Percentage int `json:"percentage"`
}

// Overview is the combined statistics payload.
type Overview struct {
	TotalBooks         int                 `json:"totalBooks"`
	StatusBreakdown    map[string]int      `json:"statusBreakdown"`
	TopGenres          []GenreCount        `json:"topGenres"`
	MonthlyCompletions []MonthlyCompletion `json:"monthlyCompletions"`
	Goal               GoalProgress        `json:"goal"`
}

// Dashboard is the landing-page payload: what the user is reading now,
// what they touched last, and how the goal is going.
type Dashboard struct {
	RecentBooks      []*domain.Book `json:"recentBooks"`
	CurrentlyReading []*domain.Book `json:"currentlyReading"`
	TotalBooks       int            `json:"totalBooks"`
	Goal             GoalProgress   `json:"goal"`
}

// StatusBreakdown counts the user's books per status. Statuses with no
// books report zero.
func (s *StatsService) StatusBreakdown(ctx context.Context, userID string) (map[string]int, error) {
	breakdown := map[string]int{
		string(domain.StatusToRead):  0,
		string(domain.StatusReading): 0,
		string(domain.StatusRead):    0,
	}

	err := s.store.ForEachUserBook(ctx, userID, func(book *domain.Book) error {
		breakdown[string(book.Status)]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}

	return breakdown, nil
}

// TopGenres returns the most common genres, descending by count. Ties keep
// the order in which the genres were first seen.
func (s *StatsService) TopGenres(ctx context.Context, userID string, limit int) ([]GenreCount, error) {
	if limit <= 0 {
		limit = topGenresLimit
	}

	counts := make(map[string]int)
	var order []string

	err := s.store.ForEachUserBook(ctx, userID, func(book *domain.Book) error {
		if book.Genre == "" {
			return nil
		}
		if _, seen := counts[book.Genre]; !seen {
			order = append(order, book.Genre)
		}
		counts[book.Genre]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("top genres: %w", err)
	}

	genres := make([]GenreCount, 0, len(order))
	for _, genre := range order {
		genres = append(genres, GenreCount{Genre: genre, Count: counts[genre]})
	}
	slices.SortStableFunc(genres, func(a, b GenreCount) int {
		return b.Count - a.Count
	})

	if len(genres) > limit {
		genres = genres[:limit]
	}
	return genres, nil
}

// MonthlyCompletions groups finished books by calendar month of their
// finish date, newest month first. Read books missing a finish date are
// skipped rather than guessed at.
func (s *StatsService) MonthlyCompletions(ctx context.Context, userID string, limit int) ([]MonthlyCompletion, error) {
	if limit <= 0 {
		limit = monthlyCompletionsLimit
	}

	type monthKey struct {
		year  int
		month int
	}
	counts := make(map[monthKey]int)

	err := s.store.ForEachUserBook(ctx, userID, func(book *domain.Book) error {
		if book.Status != domain.StatusRead || book.DateFinished == nil {
			return nil
		}
		finished := book.DateFinished.UTC()
		counts[monthKey{finished.Year(), int(finished.Month())}]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("monthly completions: %w", err)
	}

	months := make([]MonthlyCompletion, 0, len(counts))
	for key, count := range counts {
		months = append(months, MonthlyCompletion{Year: key.year, Month: key.month, Count: count})
	}
	slices.SortFunc(months, func(a, b MonthlyCompletion) int {
		if a.Year != b.Year {
			return b.Year - a.Year
		}
		return b.Month - a.Month
	})

	if len(months) > limit {
		months = months[:limit]
	}
	return months, nil
}

// SyncGoalCounter recomputes the goal counter from the books actually
// finished this year and overwrites the stored value. Year boundaries are
// evaluated in UTC so every caller agrees on which year a finish falls in.
// Idempotent; safe to run before any counter-dependent read.
func (s *StatsService) SyncGoalCounter(ctx context.Context, userID string) (int, error) {
	year := time.Now().UTC().Year()

	var count int
	err := s.store.ForEachUserBook(ctx, userID, func(book *domain.Book) error {
		if book.FinishedIn(year) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count finished books: %w", err)
	}

	if err := s.store.SetReadingGoalCurrent(ctx, userID, count); err != nil {
		return 0, fmt.Errorf("sync goal counter: %w", err)
	}

	return count, nil
}

// Overview returns the combined statistics payload. The goal counter is
// reconciled first so the response never shows a stale count.
func (s *StatsService) Overview(ctx context.Context, userID string) (*Overview, error) {
	current, err := s.SyncGoalCounter(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	breakdown, err := s.StatusBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}

	genres, err := s.TopGenres(ctx, userID, topGenresLimit)
	if err != nil {
		return nil, err
	}

	months, err := s.MonthlyCompletions(ctx, userID, monthlyCompletionsLimit)
	if err != nil {
		return nil, err
	}

	var total int
	for _, count := range breakdown {
		total += count
	}

	return &Overview{
		TotalBooks:         total,
		StatusBreakdown:    breakdown,
		TopGenres:          genres,
		MonthlyCompletions: months,
		Goal:               goalProgress(user.ReadingGoal.Yearly, current),
	}, nil
}

// dashboardRecentLimit caps the recent-books strip.
const dashboardRecentLimit = 5

// Dashboard returns the landing-page payload.
func (s *StatsService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	current, err := s.SyncGoalCounter(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var (
		all     []*domain.Book
		reading []*domain.Book
	)
	err = s.store.ForEachUserBook(ctx, userID, func(book *domain.Book) error {
		all = append(all, book)
		if book.Status == domain.StatusReading {
			reading = append(reading, book)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	slices.SortFunc(all, func(a, b *domain.Book) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	recent := all
	if len(recent) > dashboardRecentLimit {
		recent = recent[:dashboardRecentLimit]
	}

	return &Dashboard{
		RecentBooks:      recent,
		CurrentlyReading: reading,
		TotalBooks:       len(all),
		Goal:             goalProgress(user.ReadingGoal.Yearly, current),
	}, nil
}

// goalProgress derives the display percentage, capped at 100.
func goalProgress(yearly, current int) GoalProgress {
	progress := GoalProgress{Yearly: yearly, Current: current}
	if yearly > 0 {
		progress.Percentage = min(current*100/yearly, 100)
	}
	return progress
}
