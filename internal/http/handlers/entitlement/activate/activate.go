// Package activate реализует HTTP-обработчик для активации подписки.
//
// Handler декодирует необязательную дату окончания, вызывает бизнес-логику
// для открытия или продления подписки и возвращает обновлённую запись.
// Без явной даты подписка действует один календарный месяц.
package activate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fitness-reminders/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/response"
	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// Handler обрабатывает запросы на активацию подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики активации подписки.
type Service interface {
	Activate(ctx context.Context, username string, endDate *time.Time) (*models.EntitlementRecord, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает HTTP-запрос на активацию подписки.
//
// Выполняет:
// - Декодирование и валидацию необязательной даты окончания.
// - Вызов бизнес-логики для активации.
// - Формирование JSON-ответа с записью или ошибкой.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.activate"

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

	// Пустое тело допустимо: активация без явной даты окончания
	var req models.DummyActivate
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		req = models.DummyActivate{}
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

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			log.Error("failed to parse end date", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to parse end date"))
			return
		}
		endDate = &parsed
	}

	record, err := h.service.Activate(r.Context(), username, endDate)
	if err != nil {
		log.Error("failed to activate subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not activate subscription"))
		return
	}

	log.Info("success to activate subscription", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"entitlement": record,
	}))
}
