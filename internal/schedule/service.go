package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rghsoftware/mealsync/internal/models"
	"github.com/rghsoftware/mealsync/internal/syncrepo"
)

// Service is the user-facing reminder API: it persists reminder definitions
// through the sync repository and keeps the derived notification schedule in
// step. Every create or edit re-derives the full schedule from scratch.
type Service struct {
	repo   *syncrepo.Repository[models.MealReminder, *models.MealReminder]
	engine *Engine
}

func NewService(repo *syncrepo.Repository[models.MealReminder, *models.MealReminder], engine *Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// ReminderInput is the user-editable part of a reminder.
type ReminderInput struct {
	Name            string
	ScheduledTime   models.TimeOfDay
	PreAlertMinutes int
	Enabled         bool
	DaysOfWeek      []time.Weekday
}

func (in *ReminderInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("reminder name is required")
	}
	if in.PreAlertMinutes < 0 {
		return fmt.Errorf("pre-alert minutes must not be negative")
	}
	for _, d := range in.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid day of week %d", d)
		}
	}
	return nil
}

// Create stores a new reminder and installs its notification schedule.
func (s *Service) Create(ctx context.Context, in ReminderInput) (*models.MealReminder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	r := &models.MealReminder{
		SyncMeta:        models.SyncMeta{ID: uuid.New().String()},
		Name:            in.Name,
		ScheduledTime:   in.ScheduledTime,
		PreAlertMinutes: in.PreAlertMinutes,
		Enabled:         in.Enabled,
		DaysOfWeek:      in.DaysOfWeek,
	}
	written, err := s.repo.Write(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Install(written); err != nil {
		return nil, err
	}
	return written, nil
}

// Update replaces a reminder's definition and fully re-derives its schedule.
func (s *Service) Update(ctx context.Context, id string, in ReminderInput) (*models.MealReminder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	r, err := s.repo.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	r.Name = in.Name
	r.ScheduledTime = in.ScheduledTime
	r.PreAlertMinutes = in.PreAlertMinutes
	r.Enabled = in.Enabled
	r.DaysOfWeek = in.DaysOfWeek

	written, err := s.repo.Write(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Install(written); err != nil {
		return nil, err
	}
	return written, nil
}

// Delete removes a reminder and cancels everything it had scheduled.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.engine.Remove(id)
	return nil
}

// Get returns one reminder, preferring the server copy when reachable.
func (s *Service) Get(ctx context.Context, id string) (*models.MealReminder, error) {
	return s.repo.Read(ctx, id)
}
