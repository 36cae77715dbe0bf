package main

import (
	"context"
	"log"
	"time"

	"ride-backend/internal/config"
	"ride-backend/internal/handler"
	"ride-backend/internal/rate"
	"ride-backend/internal/repository"
	"ride-backend/internal/router"
	"ride-backend/internal/server"
	"ride-backend/internal/service/notify"
	service "ride-backend/internal/service/otp"
	"ride-backend/internal/usecase"
	"ride-backend/pkg/cache"
	"ride-backend/pkg/id"
	"ride-backend/pkg/jwtutil"
	"ride-backend/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if err := config.RunMigrations(ctx, cfg); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	dbpool, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer dbpool.Close()

	c := cache.NewCache([]string{cfg.RedisAddr}, cfg.RedisPass, false)
	defer c.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
	defer rdb.Close()

	sf, err := id.NewSnowflake(1)
	if err != nil {
		log.Fatalf("snowflake: %v", err)
	}

	issuer := jwtutil.NewIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.PurposeTTL)

	smsCli := notify.NewSMSClient(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSUserID, cfg.SMSPassword, cfg.SMSSenderID)
	emailCli := notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	notifier := notify.NewSender(smsCli, emailCli)

	otpRepo := repository.NewOTPRepo(dbpool)
	limiter := rate.NewLimiter(c, cfg.OTP_Window, cfg.OTP_MaxPerWindow, cfg.OTP_Cooldown)
	otpSvc := service.NewOTPService(otpRepo, limiter, sf, notifier, c, cfg.OTP_TTL, cfg.OTPDevMode)

	// Hourly sweep of the OTP audit table; live codes expire in Redis on
	// their own.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := otpRepo.ExpireStale(context.Background(), time.Now()); err != nil {
				log.Printf("[OTP] Audit sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("[OTP] Audit sweep deactivated %d stale rows", n)
			}
		}
	}()

	userRepo := repository.NewUserRepository(dbpool)
	profileRepo := repository.NewProfileRepository(dbpool)
	vehicleRepo := repository.NewVehicleRepository(dbpool)

	authUC := usecase.NewAuthUsecase(userRepo, otpSvc, c, issuer, sf, cfg.PurposeTTL)
	profileUC := usecase.NewProfileUsecase(profileRepo)
	vehicleUC := usecase.NewVehicleUsecase(vehicleRepo, sf)

	authHandler := handler.NewAuthHandler(authUC, &cfg)
	profileHandler := handler.NewProfileHandler(profileUC, &cfg)
	vehicleHandler := handler.NewVehicleHandler(vehicleUC, &cfg)
	publicHandler := handler.NewPublicHandler(vehicleUC)

	authMW := middleware.NewAuthMiddleware(issuer)

	r := chi.NewRouter()
	router.SetupRoutes(r, &cfg, authHandler, profileHandler, vehicleHandler, publicHandler, authMW, rdb)

	if err := server.Run(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
