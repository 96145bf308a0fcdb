package routes

import (
	"github.com/Dosada05/scrim-system/handlers"
	"github.com/Dosada05/scrim-system/middleware"
	"github.com/Dosada05/scrim-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes собирает все маршруты приложения на одном chi-роутере.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	scrimHandler *handlers.ScrimHandler,
	adminHandler *handlers.AdminHandler,
	metaHandler *handlers.MetaHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Публичные маршруты
	router.Get("/health", metaHandler.HealthCheck)
	router.Get("/meta/maps", metaHandler.GetMaps)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Live-доска скримов (авторизация - на уровне приложения-клиента)
	router.Get("/ws/board", webSocketHandler.ServeBoard)

	// Маршруты, требующие аутентификации
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(jwtSecret)))

		r.Get("/meta/ranks", metaHandler.GetRanks)

		r.Get("/users/profile", userHandler.GetProfile)
		r.Post("/users/tier-requests", userHandler.RequestTierUpgrade)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)
			r.Get("/my", teamHandler.GetMyTeam)
			r.Get("/{teamID}", teamHandler.GetTeamByID)
			r.Post("/{teamID}/members", teamHandler.AddMember)
			r.Post("/{teamID}/logo", teamHandler.UploadLogo)
		})

		r.Route("/scrims", func(r chi.Router) {
			r.Post("/", scrimHandler.CreateScrim)
			r.Get("/", scrimHandler.ListScrims)
			r.Get("/{scrimID}", scrimHandler.GetScrim)
			r.Post("/{scrimID}/close", scrimHandler.CloseScrim)
			r.Post("/{scrimID}/apply", scrimHandler.Apply)
			r.Post("/{scrimID}/resolve", scrimHandler.ResolveApplication)
		})

		// Админские маршруты модерации тиров
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(models.RoleAdmin)))

			r.Get("/tier-requests", adminHandler.ListPendingTierRequests)
			r.Post("/tier-requests/{requestID}/approve", adminHandler.ApproveTierRequest)
			r.Post("/tier-requests/{requestID}/reject", adminHandler.RejectTierRequest)
		})
	})
}
