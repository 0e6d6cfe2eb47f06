package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rghsoftware/mealsync/internal/models"
	"github.com/rghsoftware/mealsync/internal/store"
	"github.com/rghsoftware/mealsync/internal/syncrepo"
)

// Service runs the cooking-session state machine over the sync repository.
// State transitions act on the local copy: a transition is a foreground user
// action and must never wait on (or be overruled by) the network.
type Service struct {
	sessions *syncrepo.Repository[models.CookingSession, *models.CookingSession]
	steps    *syncrepo.Repository[models.StepCompletion, *models.StepCompletion]
	stepRows *store.StepStore
	timers   *TimerManager
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(
	sessions *syncrepo.Repository[models.CookingSession, *models.CookingSession],
	steps *syncrepo.Repository[models.StepCompletion, *models.StepCompletion],
	stepRows *store.StepStore,
	timers *TimerManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		steps:    steps,
		stepRows: stepRows,
		timers:   timers,
		logger:   logger,
		now:      time.Now,
	}
}

// StartOptions carries the optional fields of Start.
type StartOptions struct {
	BreakdownID *string
	EnergyLevel *int
}

// Start creates a new active session at step zero.
func (s *Service) Start(ctx context.Context, recipeID string, totalSteps int, opts StartOptions) (*models.CookingSession, error) {
	if recipeID == "" {
		return nil, fmt.Errorf("recipe id is required")
	}
	now := s.now().Unix()
	sess := &models.CookingSession{
		SyncMeta:         models.SyncMeta{ID: uuid.New().String()},
		RecipeID:         recipeID,
		BreakdownID:      opts.BreakdownID,
		Status:           models.SessionActive,
		CurrentStepIndex: 0,
		TotalSteps:       totalSteps,
		EnergyLevel:      opts.EnergyLevel,
		StartedAt:        now,
	}
	return s.sessions.Write(ctx, sess)
}

// Get returns the session, preferring the server copy when reachable.
func (s *Service) Get(ctx context.Context, id string) (*models.CookingSession, error) {
	return s.sessions.Read(ctx, id)
}

// Pause suspends an active session.
func (s *Service) Pause(ctx context.Context, id string) (*models.CookingSession, error) {
	sess, err := s.sessions.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionActive {
		return nil, &InvalidTransitionError{Entity: "session", ID: id, From: string(sess.Status), Op: "pause"}
	}
	pausedAt := s.now().Unix()
	sess.Status = models.SessionPaused
	sess.PausedAt = &pausedAt
	return s.sessions.Write(ctx, sess)
}

// Resume reactivates a paused session and accounts the pause interval.
// The pause total only ever grows, and only here and on terminal
// transitions out of paused.
func (s *Service) Resume(ctx context.Context, id string) (*models.CookingSession, error) {
	sess, err := s.sessions.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionPaused {
		return nil, &InvalidTransitionError{Entity: "session", ID: id, From: string(sess.Status), Op: "resume"}
	}
	resumedAt := s.now().Unix()
	sess.Status = models.SessionActive
	sess.ResumedAt = &resumedAt
	if sess.PausedAt != nil {
		sess.TotalPauseDurationSeconds += resumedAt - *sess.PausedAt
	}
	return s.sessions.Write(ctx, sess)
}

// CompleteStepOptions carries the optional fields of CompleteStep.
type CompleteStepOptions struct {
	TimeTakenSeconds *int64
	Skipped          bool
	Notes            string
}

// CompleteStep records a step completion. Idempotent per (session, step): a
// duplicate completion replaces the earlier record, keeping the latest notes.
// CurrentStepIndex advances only when the completed step is the current one.
func (s *Service) CompleteStep(ctx context.Context, sessionID string, stepIndex int, opts CompleteStepOptions) (*models.StepCompletion, error) {
	sess, err := s.sessions.ReadLocal(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, &InvalidTransitionError{Entity: "session", ID: sessionID, From: string(sess.Status), Op: "complete step"}
	}
	if stepIndex < 0 || (sess.TotalSteps > 0 && stepIndex >= sess.TotalSteps) {
		return nil, fmt.Errorf("step index %d out of range [0, %d)", stepIndex, sess.TotalSteps)
	}

	// Reuse the existing record's ID so a repeat completion replaces
	// rather than appends, locally and remotely.
	completion := &models.StepCompletion{
		SyncMeta:  models.SyncMeta{ID: uuid.New().String()},
		SessionID: sessionID,
		StepIndex: stepIndex,
	}
	if existing, err := s.stepRows.GetByStep(sessionID, stepIndex); err != nil {
		return nil, err
	} else if existing != nil {
		completion.SyncMeta = existing.SyncMeta
	}
	completion.TimeTakenSeconds = opts.TimeTakenSeconds
	completion.Skipped = opts.Skipped
	completion.Notes = opts.Notes

	written, err := s.steps.Write(ctx, completion)
	if err != nil {
		return nil, err
	}

	if stepIndex == sess.CurrentStepIndex {
		sess.CurrentStepIndex++
		if _, err := s.sessions.Write(ctx, sess); err != nil {
			return nil, err
		}
	}
	return written, nil
}

// Complete finishes the session. Valid from active or paused; force-cancels
// every still-running child timer.
func (s *Service) Complete(ctx context.Context, id string) (*models.CookingSession, error) {
	return s.finish(ctx, id, models.SessionCompleted, "complete")
}

// Abandon ends the session without finishing. Valid from active or paused;
// force-cancels every still-running child timer.
func (s *Service) Abandon(ctx context.Context, id string) (*models.CookingSession, error) {
	return s.finish(ctx, id, models.SessionAbandoned, "abandon")
}

func (s *Service) finish(ctx context.Context, id string, status models.SessionStatus, op string) (*models.CookingSession, error) {
	sess, err := s.sessions.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionActive && sess.Status != models.SessionPaused {
		return nil, &InvalidTransitionError{Entity: "session", ID: id, From: string(sess.Status), Op: op}
	}

	now := s.now().Unix()
	if sess.Status == models.SessionPaused && sess.PausedAt != nil {
		// Terminal transition out of paused closes the open pause interval.
		sess.TotalPauseDurationSeconds += now - *sess.PausedAt
	}
	sess.Status = status
	if status == models.SessionCompleted {
		sess.CompletedAt = &now
	} else {
		sess.AbandonedAt = &now
	}

	written, err := s.sessions.Write(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := s.timers.CancelForSession(ctx, id); err != nil {
		s.logger.Error("failed to cancel session timers", "session_id", id, "error", err)
	}
	return written, nil
}

// Delete removes the session; child timers and step completions go with it.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// Steps returns the recorded completions for a session in step order.
func (s *Service) Steps(sessionID string) ([]*models.StepCompletion, error) {
	return s.stepRows.BySession(sessionID)
}

// ActiveElapsed reports how long the session has actively cooked so far.
func (s *Service) ActiveElapsed(id string) (time.Duration, error) {
	sess, err := s.sessions.ReadLocal(id)
	if err != nil {
		return 0, err
	}
	return sess.ActiveElapsed(s.now()), nil
}
