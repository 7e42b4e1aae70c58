// Package trial реализует HTTP-обработчик для запуска пробного периода.
//
// Handler вызывает бизнес-логику для открытия триального окна. Повторная
// попытка начать пробный период возвращает HTTP 409 Conflict.
package trial

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitness-reminders/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/response"
	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
	entitlementservice "github.com/magabrotheeeer/fitness-reminders/internal/services/entitlement"
)

// Handler обрабатывает запросы на запуск пробного периода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики запуска пробного периода.
type Service interface {
	StartTrial(ctx context.Context, username string) (*models.EntitlementRecord, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на запуск пробного периода.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.trial"

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

	record, err := h.service.StartTrial(r.Context(), username)
	if err != nil {
		if errors.Is(err, entitlementservice.ErrTrialAlreadyUsed) {
			log.Error("trial already used", slog.String("username", username))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("trial already used"))
			return
		}
		log.Error("failed to start trial", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not start trial"))
		return
	}

	log.Info("success to start trial", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"entitlement": record,
	}))
}
