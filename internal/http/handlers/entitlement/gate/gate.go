// Package gate реализует HTTP-обработчик для отметки о просмотре экрана оплаты.
// Повторные вызовы безвредны: запись меняется только при первом просмотре.
package gate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fitness-reminders/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/response"
	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
)

// Handler обрабатывает запросы на отметку просмотра экрана оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отметки просмотра.
type Service interface {
	MarkGateSeen(ctx context.Context, username string) error
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на отметку просмотра экрана оплаты.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.gate"

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

	if err := h.service.MarkGateSeen(r.Context(), username); err != nil {
		log.Error("failed to mark gate as seen", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not mark gate as seen"))
		return
	}

	log.Info("success to mark gate as seen", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"has_seen_gate": true,
	}))
}
