package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/support"
	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type stores struct {
	flights  repository.FlightRepository
	bookings repository.BookingRepository
	users    repository.UserRepository
	messages repository.MessageRepository
}

type notifier interface {
	booking.TicketNotifier
	users.VerificationNotifier
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer closeStores()

	var (
		flightCache flights.FlightCache
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		if err := redisCache.Client().Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, flight list cache will miss until it recovers")
		}
		flightCache = redisCache
		redisClient = redisCache.Client()
	}

	var (
		notify      notifier
		bookingOpts []booking.BookingServiceOption
	)
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unreachable, events will be dropped until it recovers")
		}
		notify = kafka.NewNotifier(producer, cfg.Kafka.NotificationsTopic)
		bookingOpts = append(bookingOpts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	} else if cfg.SMTP.Host != "" {
		notify = email.NewSender(cfg.SMTP, cfg.HTTP.PublicURL, log)
	} else {
		log.Warn("neither kafka nor smtp configured, tickets and verification emails are disabled")
	}
	if notify != nil {
		bookingOpts = append(bookingOpts, booking.WithTicketNotifier(notify))
	}

	flightService := flights.NewFlightService(st.flights, st.bookings, flightCache, log)
	bookingService := booking.NewBookingService(st.bookings, flightService, log, bookingOpts...)
	userService := users.NewUserService(st.users, notify, users.Options{
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
		BcryptCost: cfg.Auth.BcryptCost,
	}, log)
	supportService := support.NewSupportService(st.messages, log)

	limiterStore, err := api.NewLimiterStore(redisClient)
	if err != nil {
		log.Fatalf("rate limiter: %v", err)
	}
	router, err := api.NewRouter(cfg, limiterStore, api.Services{
		Flights:  flightService,
		Bookings: bookingService,
		Users:    userService,
		Support:  supportService,
	}, log)
	if err != nil {
		log.Fatalf("build router: %v", err)
	}

	if err := bootstrap.Run(ctx, cfg.HTTP, router, log); err != nil {
		log.Errorf("server error: %v", err)
	}
	bookingService.Wait()
	userService.Wait()
	log.Info("stopped")
}

func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (stores, func(), error) {
	if cfg.Storage.Driver == "memory" {
		log.Info("using in-memory storage")
		mem := repository.NewMemoryStore()
		return stores{
			flights:  mem.Flights(),
			bookings: mem.Bookings(),
			users:    mem.Users(),
			messages: mem.Messages(),
		}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return stores{}, nil, err
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, nil, err
	}
	log.WithField("host", cfg.Database.Host).Info("using postgres storage")
	return stores{
		flights:  repository.NewFlightRepository(pool),
		bookings: repository.NewBookingRepository(pool),
		users:    repository.NewUserRepository(pool),
		messages: repository.NewMessageRepository(pool),
	}, pool.Close, nil
}
