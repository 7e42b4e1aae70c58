// Package update реализует HTTP-обработчик для частичного обновления настроек
// напоминаний.
//
// Handler декодирует JSON-патч, валидирует поля, вызывает бизнес-логику
// для сохранения настроек и запуска согласования триггеров, после чего
// возвращает итоговые настройки в JSON-формате.
//
// Нарушение хронологии времён приёмов пищи возвращается с HTTP 422
// и индексом конфликтующего элемента.
package update

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

// Handler обрабатывает запросы на обновление настроек напоминаний.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики сохранения настроек.
type Service interface {
	SaveSettings(ctx context.Context, username string, patch models.DummySettingsPatch) (*models.ReminderSettings, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает HTTP-запрос на обновление настроек напоминаний.
//
// Выполняет:
// - Декодирование и валидацию JSON-патча.
// - Вызов бизнес-логики для сохранения и согласования.
// - Формирование JSON-ответа с итоговыми настройками или ошибкой.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.update"

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

	var patch models.DummySettingsPatch
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(patch); err != nil {
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

	settings, err := h.service.SaveSettings(r.Context(), username, patch)
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
		log.Error("failed to save reminder settings", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save reminder settings"))
		return
	}

	log.Info("success to update reminder settings", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"settings": settings,
	}))
}
