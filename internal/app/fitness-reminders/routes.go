// Package fitnessreminders предоставляет маршруты для основного приложения.
package fitnessreminders

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/entitlement/activate"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/entitlement/cancel"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/entitlement/gate"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/entitlement/status"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/entitlement/trial"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/health"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/notification/testsend"
	settingsget "github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/settings/get"
	settingsmeals "github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/settings/meals"
	settingsupdate "github.com/magabrotheeeer/fitness-reminders/internal/http/handlers/settings/update"
	"github.com/magabrotheeeer/fitness-reminders/internal/http/middlewarectx"
	jwtlib "github.com/magabrotheeeer/fitness-reminders/internal/lib/jwt"
	entitlementservice "github.com/magabrotheeeer/fitness-reminders/internal/services/entitlement"
	reminderservice "github.com/magabrotheeeer/fitness-reminders/internal/services/reminder"
	"github.com/magabrotheeeer/fitness-reminders/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	entitlementService *entitlementservice.Service,
	reminderService *reminderservice.Service,
	db *repository.Storage, jwtMaker jwtlib.Maker) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/settings", settingsget.New(logger, reminderService).ServeHTTP)
			r.Patch("/settings", settingsupdate.New(logger, reminderService).ServeHTTP)
			r.Put("/settings/meals", settingsmeals.New(logger, reminderService).ServeHTTP)
			r.Post("/notifications/test", testsend.New(logger, reminderService).ServeHTTP)

			r.Get("/entitlement", status.New(logger, entitlementService).ServeHTTP)
			r.Post("/entitlement/trial", trial.New(logger, entitlementService).ServeHTTP)
			r.Post("/entitlement/activate", activate.New(logger, entitlementService).ServeHTTP)
			r.Post("/entitlement/cancel", cancel.New(logger, entitlementService).ServeHTTP)
			r.Post("/entitlement/gate", gate.New(logger, entitlementService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
