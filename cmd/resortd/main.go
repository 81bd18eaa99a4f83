package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	appaudit "resortbook/internal/app/audit"
	"resortbook/internal/app/handlers"
	"resortbook/internal/app/middleware"
	appoutbox "resortbook/internal/app/outbox"
	"resortbook/internal/app/services/reservation"
	"resortbook/internal/app/uow"
	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/infra/broker/kafka"
	"resortbook/internal/infra/config"
	mongostore "resortbook/internal/infra/db/mongo"
	"resortbook/internal/infra/fixtures"
	ginserver "resortbook/internal/infra/http/gin"
	"resortbook/internal/infra/inbox"
	"resortbook/internal/infra/obs"
	infraoutbox "resortbook/internal/infra/outbox"
	"resortbook/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	fixturesPath := cfg.RoomsFixtures
	if fixturesPath == "" {
		fixturesPath = fixtures.DefaultRoomsPath()
	}
	if n, err := fixtures.LoadRooms(ctx, fixturesPath, app.rooms, cfg.DefaultCurrency, time.Now(), logger); err != nil {
		logger.Warn("room fixtures load failed", "error", err, "path", fixturesPath)
	} else if n > 0 {
		logger.Info("room fixtures loaded", "count", n, "path", fixturesPath)
	}

	var background sync.WaitGroup
	for name, run := range app.workers {
		background.Add(1)
		go func(name string, run func(context.Context) error) {
			defer background.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "worker", name, "error", err)
			}
		}(name, run)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Probes: app.probes}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "room_lock", cfg.RoomLockMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
		background.Wait()
		os.Exit(1)
	}
	background.Wait()
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	rooms    rooms.Repository
	probes   []obs.Probe
	workers  map[string]func(ctx context.Context) error
	closers  []func(ctx context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("resource close failed", "error", err)
		}
	}
}

// storage is what a storage driver contributes to the wiring.
type storage struct {
	uowFactory  uow.UoWFactory
	rooms       rooms.Repository
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	audit       appaudit.Store
	locker      reservation.RoomLocker
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		workers: map[string]func(context.Context) error{},
	}

	var (
		st  storage
		err error
	)
	switch cfg.StorageDriver {
	case config.StorageMongo:
		st, err = app.mongoStorage(ctx, cfg, logger)
	default:
		st = app.memoryStorage(cfg, logger)
	}
	if err != nil {
		return nil, err
	}
	app.rooms = st.rooms

	service := &reservation.Service{
		Calculator: pricing.Calculator{},
		Locker:     st.locker,
		Logger:     logger.With("component", "reservation"),
	}
	buses := handlers.Build(handlers.Deps{
		UoWFactory:      st.uowFactory,
		Reservation:     service,
		Outbox:          st.outbox,
		Encoder:         appoutbox.JSONEventEncoder{IDGenerator: uuid.NewString},
		Idempotency:     st.idempotency,
		IdempotencyTTL:  cfg.IdempotencyTTL,
		Audit:           st.audit,
		PastCheckIn:     booking.PastCheckInPolicy{Reject: cfg.RejectPastCheckIn},
		DefaultCurrency: cfg.DefaultCurrency,
		Logger:          logger,
	})

	app.handlers = ginserver.Handlers{
		Rooms:        ginserver.RoomHandler{Queries: buses.Queries, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: buses.Queries, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Me:           ginserver.MeHandler{Queries: buses.Queries, Logger: logger},
		Admin:        ginserver.AdminHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
	}
	return app, nil
}

// memoryStorage keeps everything in process; outbox records reach the audit trail
// through a flush sink.
func (a *application) memoryStorage(cfg config.Config, logger *slog.Logger) storage {
	idempotency := memory.NewIdempotencyStore()
	idempotency.Retention = cfg.IdempotencyTTL

	roomsRepo := memory.NewRoomRepository()
	bookingsRepo := memory.NewBookingRepository()
	auditStore := memory.NewAuditStore()
	projector := &appaudit.Projector{Store: auditStore, Inbox: memory.NewInbox(), Logger: logger.With("component", "audit")}

	return storage{
		uowFactory:  memory.Factory{Rooms: roomsRepo, Bookings: bookingsRepo},
		rooms:       roomsRepo,
		outbox:      memory.NewOutbox(projector.ProjectRecord),
		idempotency: idempotency,
		audit:       auditStore,
		locker:      memory.NewRoomLocks(),
	}
}

func (a *application) mongoStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("connect mongo: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.probes = append(a.probes, obs.Probe{Name: "mongo", Check: client.Ping})
	if err := client.EnsureIndexes(ctx); err != nil {
		return storage{}, fmt.Errorf("mongo indexes: %w", err)
	}

	roomsRepo := mongostore.NewRoomRepository(client.DB)
	bookingsRepo := mongostore.NewBookingRepository(client.DB)
	auditStore := mongostore.NewAuditStore(client.DB)
	idempotency, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return storage{}, fmt.Errorf("idempotency store: %w", err)
	}
	outboxStore, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return storage{}, fmt.Errorf("outbox store: %w", err)
	}
	consumerName := cfg.KafkaConsumerGroup
	inboxStore, err := inbox.NewStore(ctx, client.DB, consumerName, 0)
	if err != nil {
		return storage{}, fmt.Errorf("inbox store: %w", err)
	}
	projector := &appaudit.Projector{Store: auditStore, Inbox: inboxStore, Logger: logger.With("component", "audit")}

	var locker reservation.RoomLocker = memory.NewRoomLocks()
	if cfg.RoomLockMode == config.LockMongo {
		locker = mongostore.NewRoomLeaseLocker(client.DB, cfg.RoomLockTTL)
	}

	var producer infraoutbox.Producer = inProcessPublisher{projector: projector}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return storage{}, fmt.Errorf("kafka producer: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return kafkaProducer.Close() })
		producer = kafkaProducer
		if cfg.AuditConsumerEnabled {
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, kafka.PayloadHandler(projector.Project), logger)
			if err != nil {
				return storage{}, fmt.Errorf("kafka consumer: %w", err)
			}
			a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
			topic := infraoutbox.TopicFor(cfg.KafkaTopicPrefix, "booking")
			a.workers["audit-consumer"] = func(ctx context.Context) error {
				return consumer.Run(ctx, []string{topic})
			}
		}
	}
	worker := &infraoutbox.Worker{
		Store:       outboxStore,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	a.workers["outbox"] = worker.Run

	return storage{
		uowFactory:  mongostore.Factory{DB: client.DB, RoomsRepo: roomsRepo, BookingsRepo: bookingsRepo},
		rooms:       roomsRepo,
		outbox:      outboxStore,
		idempotency: idempotency,
		audit:       auditStore,
		locker:      locker,
	}, nil
}

// inProcessPublisher feeds published events straight to the audit projector when no
// broker is configured.
type inProcessPublisher struct {
	projector *appaudit.Projector
}

func (p inProcessPublisher) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	return p.projector.Project(ctx, payload)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
