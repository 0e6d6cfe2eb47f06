package meals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rghsoftware/mealsync/internal/models"
	"github.com/rghsoftware/mealsync/internal/store"
	"github.com/rghsoftware/mealsync/internal/syncrepo"
)

// Service logs meals with before/after energy levels through the sync
// repository.
type Service struct {
	repo *syncrepo.Repository[models.MealLog, *models.MealLog]
	rows *store.MealStore
	now  func() time.Time
}

func NewService(repo *syncrepo.Repository[models.MealLog, *models.MealLog], rows *store.MealStore) *Service {
	return &Service{repo: repo, rows: rows, now: time.Now}
}

// LogInput is the user-supplied part of a meal log.
type LogInput struct {
	MealType     models.MealType
	Name         string
	EnergyBefore *int
	EnergyAfter  *int
	Notes        string
	LoggedAt     int64 // zero means now
}

func (in *LogInput) validate() error {
	if !in.MealType.IsValid() {
		return fmt.Errorf("invalid meal type %q", in.MealType)
	}
	if in.Name == "" {
		return fmt.Errorf("meal name is required")
	}
	for _, lv := range []*int{in.EnergyBefore, in.EnergyAfter} {
		if lv != nil && (*lv < 1 || *lv > 5) {
			return fmt.Errorf("energy level must be in 1..5, got %d", *lv)
		}
	}
	return nil
}

// Log records a meal.
func (s *Service) Log(ctx context.Context, in LogInput) (*models.MealLog, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	loggedAt := in.LoggedAt
	if loggedAt == 0 {
		loggedAt = s.now().Unix()
	}
	m := &models.MealLog{
		SyncMeta:     models.SyncMeta{ID: uuid.New().String()},
		MealType:     in.MealType,
		Name:         in.Name,
		EnergyBefore: in.EnergyBefore,
		EnergyAfter:  in.EnergyAfter,
		Notes:        in.Notes,
		LoggedAt:     loggedAt,
	}
	return s.repo.Write(ctx, m)
}

// SetEnergyAfter records the post-meal energy level on an existing log.
func (s *Service) SetEnergyAfter(ctx context.Context, id string, level int) (*models.MealLog, error) {
	if level < 1 || level > 5 {
		return nil, fmt.Errorf("energy level must be in 1..5, got %d", level)
	}
	m, err := s.repo.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	m.EnergyAfter = &level
	return s.repo.Write(ctx, m)
}

// ListByDay returns the meals logged on the calendar day containing t.
func (s *Service) ListByDay(t time.Time) ([]*models.MealLog, error) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1)
	return s.rows.LoggedBetween(start.Unix(), end.Unix())
}

// EnergyDelta averages the energy change (after minus before) across the
// meals logged on one day. The second return is the number of meals that
// carried both readings.
func (s *Service) EnergyDelta(t time.Time) (float64, int, error) {
	logs, err := s.ListByDay(t)
	if err != nil {
		return 0, 0, err
	}
	var sum, n int
	for _, m := range logs {
		if m.EnergyBefore != nil && m.EnergyAfter != nil {
			sum += *m.EnergyAfter - *m.EnergyBefore
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

// Delete removes a meal log.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
