package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/booking"
	"github.com/akhilcoder7733/hotelgram/config"
	"github.com/akhilcoder7733/hotelgram/hotel"
	"github.com/akhilcoder7733/hotelgram/logging"
	"github.com/akhilcoder7733/hotelgram/metrics"
	"github.com/akhilcoder7733/hotelgram/notify"
	"github.com/akhilcoder7733/hotelgram/storage"
	"github.com/akhilcoder7733/hotelgram/task"
	"github.com/akhilcoder7733/hotelgram/user"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger, closer := logging.New(cfg.Logging)
	defer closer.Close()

	metrics.Register()

	db, err := storage.ConnectDB(cfg.Database.Path, logger, &hotel.Hotel{}, &user.User{}, &user.SessionRecord{}, &booking.Record{})
	if err != nil {
		logger.Fatal(err)
	}

	store, closeStore, err := sessionStore(cfg, db)
	if err != nil {
		logger.Fatal(err)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := newServer(cfg, db, store, task.Real{}, logger)
	app := srv.app()

	go func() {
		if err := srv.catalog.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("catalog load failed")
		}
	}()

	go srv.sweepFlows(ctx, time.Minute)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Warn("shutdown")
		}
	}()

	if err := app.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		logger.Fatal(err)
	}
}

func configPath() string {
	if p := os.Getenv("HOTELGRAM_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func sessionStore(cfg *config.Config, db *gorm.DB) (user.Store, func(), error) {
	switch cfg.Session.Driver {
	case "redis":
		client := storage.NewRedisClient(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := storage.Ping(ctx, client); err != nil {
			return nil, nil, err
		}
		return user.NewRedisStore(client), func() { _ = storage.CloseRedis(client) }, nil
	case "", "sql":
		return user.NewSQLStore(db), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
}

type server struct {
	cfg     *config.Config
	logger  *logrus.Logger
	catalog *hotel.Catalog
	auth    *user.Authenticator
	flows   *booking.Registry
	ledger  *booking.Ledger
	limiter *user.LoginLimiter
}

func newServer(cfg *config.Config, db *gorm.DB, store user.Store, clock task.Clock, logger *logrus.Logger, opts ...booking.GatewayOption) *server {
	catalog := hotel.NewCatalog(db, clock, cfg.Delays.Catalog, logger)
	auth := user.NewAuthenticator(db, store, user.NewTokens(cfg.Session.JWTSecret), clock, cfg.Delays.Login, cfg.Session.TTL, logger)
	ledger := booking.NewLedger(db)

	flows := booking.NewRegistry(&booking.Deps{
		Hotels:   catalog,
		Gateway:  booking.NewSimulatedGateway(clock, cfg.Delays.Payment, cfg.Payment, logger, opts...),
		Ledger:   ledger,
		Notifier: notify.New(cfg.App.Name, cfg.Mail, logger),
		Logger:   logger,
	})
	auth.OnSessionEnd(flows.Drop)

	return &server{
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		auth:    auth,
		flows:   flows,
		ledger:  ledger,
		limiter: user.NewLoginLimiter(cfg.RateLimit),
	}
}

// sweepFlows drops the booking flows of expired sessions until ctx ends.
func (s *server) sweepFlows(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.flows.Sweep(now); n > 0 {
				s.logger.WithFields(logrus.Fields{"path": "main", "flows": n}).Debug("dropped expired booking flows")
			}
		}
	}
}

func (s *server) app() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      s.cfg.App.Name,
		ErrorHandler: apperr.Handler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.App.CorsOrigin,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(logging.Requests(s.logger))

	app.Get("/metrics", metrics.Handler())
	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":        "ok",
			"catalogLoaded": s.catalog.Loaded(),
		})
	})

	api := app.Group("/api/v1")

	hotelRoutes(api.Group("/hotels"), hotel.NewHandler(s.catalog))
	s.userRoutes(api.Group("/users"), user.NewHandler(s.auth))
	s.bookingRoutes(api.Group("/bookings"), booking.NewHandler(s.flows, s.ledger))
	s.navRoutes(api.Group("/nav"))

	return app
}
