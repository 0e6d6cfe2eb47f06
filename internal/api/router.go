package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rghsoftware/mealsync/internal/models"
	"github.com/rghsoftware/mealsync/internal/store"
)

// NewRouter creates the chi router for the companion backend: bearer-token
// authenticated JSON CRUD per entity collection over the server's store.
func NewRouter(db *store.DB, apiKey string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Ping(); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		newResource[models.CookingSession, *models.CookingSession](store.NewSessionStore(db)).
			mount(r, models.CollectionSessions)
		newResource[models.CookingTimer, *models.CookingTimer](store.NewTimerStore(db)).
			mount(r, models.CollectionTimers)
		newResource[models.StepCompletion, *models.StepCompletion](store.NewStepStore(db)).
			mount(r, models.CollectionSteps)
		newResource[models.MealReminder, *models.MealReminder](store.NewReminderStore(db, logger)).
			mount(r, models.CollectionReminders)
		newResource[models.MealLog, *models.MealLog](store.NewMealStore(db)).
			mount(r, models.CollectionMeals)
		newResource[models.Room, *models.Room](store.NewRoomStore(db)).
			mount(r, models.CollectionRooms)
	})

	return r
}
