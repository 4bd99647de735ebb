// Command rentald hosts one rental contract instance behind an HTTP API.
//
//	@title			rentald API
//	@version		1.0
//	@description	Rental payment automation: escrowed funds, an oracle date check and exactly-once rent per qualifying date.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	_ "github.com/tbourn/rentald/docs"
	"github.com/tbourn/rentald/internal/config"
	"github.com/tbourn/rentald/internal/datecache"
	"github.com/tbourn/rentald/internal/events"
	httpapi "github.com/tbourn/rentald/internal/http"
	"github.com/tbourn/rentald/internal/ledger"
	"github.com/tbourn/rentald/internal/observability"
	"github.com/tbourn/rentald/internal/payment"
	"github.com/tbourn/rentald/internal/repo"
	"github.com/tbourn/rentald/internal/resilience"
	"github.com/tbourn/rentald/internal/services"
	"github.com/tbourn/rentald/internal/sysutil"
)

// version is set with -ldflags "-X main.version=...".
var version string

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("rentald stopped")
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	ver := sysutil.Version(os.Getenv("RENTALD_VERSION"), version)
	log.Info().
		Str("version", ver).
		Str("contract", cfg.Contract.Address).
		Str("owner", cfg.Contract.Owner).
		Str("oracle", cfg.Oracle.Address).
		Msg("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver, cfg.Contract.Address)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	dates, err := datecache.New(db, cfg.Contract.DateCacheBytes)
	if err != nil {
		return fmt.Errorf("date cache: %w", err)
	}
	defer dates.Close()

	pub, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("event publisher close")
		}
	}()

	engine := payment.NewEngine(ledger.New(), cfg.Contract.Qualifying)
	svc, err := services.NewRentalService(ctx, db, dates, engine, pub, services.Options{
		Address:        cfg.Contract.Address,
		Owner:          cfg.Contract.Owner,
		FeeToken:       cfg.Contract.FeeToken,
		Oracle:         cfg.Oracle.Address,
		Responders:     cfg.Oracle.Responders,
		JobID:          cfg.Oracle.JobID,
		Fee:            cfg.Oracle.Fee,
		RequestTTL:     cfg.Oracle.RequestTTL,
		InitialRent:    cfg.Contract.InitialRent,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})
	if err != nil {
		return fmt.Errorf("contract: %w", err)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		w := &services.ExpiryWorker{Service: svc, Interval: cfg.Oracle.ExpirySweep}
		return w.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// newPublisher connects to NATS when configured and wraps it in a circuit
// breaker; without NATS_URL events are only kept in the database.
func newPublisher(ctx context.Context, cfg config.EventsConfig) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		log.Info().Msg("NATS_URL not set; event publishing disabled")
		return events.Nop{}, nil
	}
	nc, err := events.ConnectNATS(ctx, cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	b := resilience.NewBreaker(cfg.BreakerFailures, cfg.BreakerCooldown)
	b.OnStateChange = func(s resilience.State) {
		observability.BreakerState.Set(float64(s))
		log.Warn().Str("state", s.String()).Msg("event publisher breaker")
	}
	return events.NewGuarded(nc, b), nil
}
