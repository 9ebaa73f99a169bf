package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/server"
	"github.com/jonathan/talent-pipeline/internal/server/ratelimit"
	"github.com/jonathan/talent-pipeline/internal/types"
)

const shutdownTimeout = 30 * time.Second

var (
	servePort   int
	serveMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the offer, job description, application
and resume screening endpoints. With --memory the server runs against an
in-memory store seeded with one admin, one requester and one recruiter.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Use an in-memory store instead of Postgres")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(!serveMemory); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, serveMemory)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("failed to release resources", zap.Error(err))
		}
	}()

	jwtService := server.NewJWTService(&cfg.JWT)
	if serveMemory {
		if err := seedStaff(ctx, a.store, jwtService, log); err != nil {
			return err
		}
	}

	srv := server.New(server.Config{
		Port:             cfg.Port,
		ScreeningTimeout: cfg.ScreeningTimeout,
		RateLimit:        ratelimit.DefaultConfig(cfg.RateLimitEnabled),
	}, a.manager, a.screener, jwtService, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// seedStaff creates one user per staff role in a fresh in-memory store and
// logs a token for each so the API can be exercised immediately.
func seedStaff(ctx context.Context, store db.Store, jwtService *server.JWTService, log *zap.Logger) error {
	staff := []types.User{
		{Name: "Admin", Email: "admin@example.com", Role: types.RoleAdmin},
		{Name: "Requester", Email: "rmg@example.com", Role: types.RoleRMG},
		{Name: "Recruiter", Email: "hr@example.com", Role: types.RoleHR},
	}
	for i := range staff {
		u := &staff[i]
		u.ID = uuid.New()
		if err := store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("failed to seed %s user: %w", u.Role, err)
		}
		token, err := jwtService.GenerateToken(u.ID, u.Role)
		if err != nil {
			return err
		}
		log.Info("seeded user",
			zap.String("role", string(u.Role)),
			zap.String("user_id", u.ID.String()),
			zap.String("token", token),
		)
	}
	return nil
}
