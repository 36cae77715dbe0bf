package router

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"ride-backend/internal/config"
	"ride-backend/internal/handler"
	"ride-backend/pkg/middleware"
)

func SetupRoutes(
	r chi.Router,
	cfg *config.Config,
	auth *handler.AuthHandler,
	profile *handler.ProfileHandler,
	vehicle *handler.VehicleHandler,
	public *handler.PublicHandler,
	authMW *middleware.AuthMiddleware,
	rdb *redis.Client,
) chi.Router {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(rdb, 300, time.Minute, time.Minute, "global"))

	if _, err := os.Stat(cfg.UploadDir); os.IsNotExist(err) {
		_ = os.MkdirAll(cfg.UploadDir, 0755)
	}

	r.Route("/api", func(api chi.Router) {
		// ---------------- Public ----------------
		api.Group(func(pub chi.Router) {
			pub.Get("/health", handler.HandleHealth)
			pub.Get("/public/vehicles", public.HandleListVehicles)
			pub.Handle("/uploads/*", http.StripPrefix("/api/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
		})

		// ---------------- Auth flows ----------------
		api.Route("/auth", func(a chi.Router) {
			a.Use(middleware.RateLimiter(rdb, 20, time.Minute, 5*time.Minute, "auth"))

			a.Post("/verify/start", auth.HandleVerifyStart)
			a.Post("/verify/check", auth.HandleVerifyCheck)
			a.Post("/register-complete", auth.HandleRegisterComplete)
			a.Post("/login", auth.HandleLogin)
			a.Post("/reset-pin-complete", auth.HandleResetPINComplete)
			a.Post("/refresh", auth.HandleRefresh)

			a.Group(func(g chi.Router) {
				g.Use(authMW.Require)
				g.Get("/me", auth.HandleMe)
				g.Post("/email/verify/start", auth.HandleEmailVerifyStart)
				g.Post("/email/verify/check", auth.HandleEmailVerifyCheck)
			})
		})

		// ---------------- Profiles ----------------
		api.Route("/profile", func(p chi.Router) {
			p.Use(authMW.Require)
			p.Post("/update", profile.HandleUpdate)
			p.Get("/me", profile.HandleMe)
			p.Get("/{userID}", profile.HandleGet)
		})

		// ---------------- Vehicles ----------------
		api.Route("/vehicles", func(v chi.Router) {
			v.Use(authMW.Require)
			v.Post("/", vehicle.HandleCreate)
			v.Get("/user/{userID}", vehicle.HandleListByUser)
			v.Get("/{vehicleID}", vehicle.HandleGet)
			v.Put("/{vehicleID}", vehicle.HandleUpdate)
			v.Delete("/{vehicleID}", vehicle.HandleDelete)
		})
	})

	return r
}
