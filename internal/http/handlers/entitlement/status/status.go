// Package status реализует HTTP-обработчик для чтения текущего статуса
// прав доступа.
//
// Handler извлекает имя пользователя из контекста и возвращает выведенный
// статус, остаток пробного периода и флаг премиум-доступа. Чтение не имеет
// побочных эффектов: запись в хранилище не изменяется.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitness-reminders/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/response"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// Handler обрабатывает запросы на чтение статуса прав доступа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения статуса.
type Service interface {
	GetView(ctx context.Context, username string) *models.EntitlementView
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на чтение статуса прав доступа.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.status"

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

	view := h.service.GetView(r.Context(), username)

	log.Info("success to read entitlement status",
		slog.String("username", username), slog.String("status", string(view.Status)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"entitlement": view,
	}))
}
