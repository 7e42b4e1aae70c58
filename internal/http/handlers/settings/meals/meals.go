// Package meals реализует HTTP-обработчик редактора расписания питания:
// полную замену списка приёмов пищи.
//
// Handler декодирует новое расписание, валидирует поля, вызывает бизнес-логику
// для проверки хронологии, сохранения и согласования триггеров.
//
// Нарушение хронологии возвращается с HTTP 422 и индексом конфликтующего
// элемента, запись в хранилище при этом не происходит.
package meals

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fitness-reminders/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/response"
	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
	"github.com/magabrotheeeer/fitness-reminders/internal/lib/timeslot"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// Handler обрабатывает запросы на замену расписания приёмов пищи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики замены расписания приёмов пищи.
type Service interface {
	SaveMealSchedule(ctx context.Context, username string, meals []models.MealTime) (*models.ReminderSettings, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает HTTP-запрос на замену расписания приёмов пищи.
//
// Выполняет:
// - Декодирование и валидацию нового расписания.
// - Вызов бизнес-логики для проверки хронологии, сохранения и согласования.
// - Формирование JSON-ответа с итоговыми настройками или ошибкой.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.meals"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("unauthorized request")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.DummyMealSchedule
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErrs))
			return
		}
		log.Error("failed to validate request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to validate request"))
		return
	}

	meals := make([]models.MealTime, 0, len(req.MealTimes))
	for _, m := range req.MealTimes {
		meals = append(meals, models.MealTime{Label: m.Label, Hour: m.Hour, Minute: m.Minute})
	}

	settings, err := h.service.SaveMealSchedule(r.Context(), username, meals)
	if err != nil {
		var conflict *timeslot.ConflictError
		if errors.As(err, &conflict) {
			log.Error("meal times conflict", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Response{
				Status: response.StatusError,
				Error:  conflict.Error(),
				Data:   map[string]any{"conflict_index": conflict.Index},
			})
			return
		}
		log.Error("failed to save meal schedule", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save meal schedule"))
		return
	}

	log.Info("success to update meal schedule", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"settings": settings,
	}))
}
