package main // entry point of the reservation API

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/mail"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/qr"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/router"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.NewFileLogger(cfg.LogDir, "reservation-service", logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Close()

	policy, err := config.LoadPolicy()
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("DATABASE", "connect: "+err.Error())
	}
	defer db.Close()
	if cfg.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("DATABASE", err.Error())
		}
		log.Info("DATABASE", "schema up to date")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("REDIS", "unreachable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	brokerCfg := config.LoadBrokerConfig()
	events, err := queue.NewPublisher(brokerCfg)
	if err != nil {
		log.Fatal("EVENTS", err.Error())
	}
	defer events.Close()
	log.Info("EVENTS", "publishing to "+brokerKind(brokerCfg))

	var mailer service.Mailer = mail.LogMailer{Log: log}
	if smtpCfg, ok := config.LoadSMTPConfig(); ok {
		mailer = mail.NewSMTPMailer(smtpCfg)
		log.Info("EMAIL", fmt.Sprintf("sending through %s:%d", smtpCfg.Host, smtpCfg.Port))
	}

	svc := service.New(repository.NewStore(db), policy,
		service.WithMailer(mailer),
		service.WithCodeRenderer(qr.NewRenderer()),
		service.WithEvents(events),
		service.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	sweeper := service.NewSweeper(svc, config.LoadSweeperConfig(), log)
	sweeper.OnProcessed(func(ctx context.Context, job string, n int) {
		if job != service.JobOverdue {
			return
		}
		if err := router.PurgeCached(ctx, cache); err != nil {
			log.Warn("CACHE", "purge after no-show sweep: "+err.Error())
		}
	})
	sweeper.Start(ctx)

	// the audit consumer only makes sense when events go to RabbitMQ
	if kind := brokerKind(brokerCfg); kind == "rabbitmq" {
		consumer := queue.NewAuditConsumer(brokerCfg.AMQPURL, brokerCfg.Queue, cfg.AuditLog, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("EVENTS", "audit consumer stopped: "+err.Error())
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(log))
	router.Register(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Limiter:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     cache,
		Health:    handler.Health(db),
		Staff:     handler.NewStaffHandler(svc, log),
		Public:    handler.NewPublicHandler(svc, log),
		Customer:  handler.NewCustomerHandler(svc, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("SERVER", fmt.Sprintf("listening on %s (env=%s)", addr, cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("SERVER", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("SERVER", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("SERVER", "shutdown: "+err.Error())
	}
	sweeper.Stop()
}

func brokerKind(cfg queue.BrokerConfig) string {
	switch k := strings.ToLower(cfg.Kind); k {
	case "", "amqp":
		return "rabbitmq"
	default:
		return k
	}
}
