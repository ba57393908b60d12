package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	// Starts the Sqreen agent when SQREEN_TOKEN is configured.
	_ "github.com/sqreen/go-agent/agent"

	"github.com/truefans/server/auth"
	"github.com/truefans/server/config"
	"github.com/truefans/server/db"
	"github.com/truefans/server/logging"
	"github.com/truefans/server/notify"
	"github.com/truefans/server/payment"
	"github.com/truefans/server/resolvers"
	"github.com/truefans/server/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "truefans",
		Short:         "TrueFans donation platform server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newServeCmd(&envFile))
	root.AddCommand(newMigrateCmd(&envFile))
	root.AddCommand(newSeedCmd(&envFile))
	return root
}

// app holds what every command needs.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	db  *sql.DB
}

func loadApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.AppEnv)

	conn, err := db.Open(cfg.DBOptions())
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect to %s database: %w", cfg.DBDriver, err)
	}
	return &app{cfg: cfg, log: log, db: conn}, nil
}

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.db.Close()

			if err := db.Migrate(a.log.WithContext(ctx), a.db); err != nil {
				return err
			}
			a.log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func newSeedCmd(envFile *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load musicians and songs into the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.db.Close()

			seed, err := readSeed(file)
			if err != nil {
				return err
			}
			ctx = a.log.WithContext(ctx)
			if err := db.Migrate(ctx, a.db); err != nil {
				return err
			}
			if err := seed.Apply(ctx, db.NewCatalog(a.db)); err != nil {
				return err
			}
			a.log.Info().Int("musicians", len(seed.Musicians)).Int("songs", len(seed.Songs)).Msg("catalog seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (defaults to the built-in sample catalog)")
	return cmd
}

func readSeed(file string) (*db.Seed, error) {
	if file == "" {
		return db.LoadSeed(nil)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return db.LoadSeed(f)
}

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.db.Close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log
	if err := db.Migrate(log.WithContext(ctx), a.db); err != nil {
		return err
	}

	identity, err := newIdentity(ctx, cfg, log)
	if err != nil {
		return err
	}
	processor, payouts := newPayments(cfg, a.db, log)

	sessions := session.NewManager(session.Config{
		DemoAdminEmail:     cfg.DemoAdminEmail,
		DemoAdminPassword:  cfg.DemoAdminPassword,
		LegacyAdminSignals: cfg.LegacyAdminSignals,
	}, log)
	defer sessions.Shutdown()

	r := resolvers.New(resolvers.Options{
		DB:            a.db,
		Sessions:      sessions,
		Identity:      identity,
		Processor:     processor,
		Payouts:       payouts,
		Notifier:      newNotifier(cfg, log),
		Log:           log,
		CORSOrigins:   cfg.CORSOrigins,
		EmbedBaseURL:  cfg.EmbedBaseURL,
		SecureCookies: cfg.IsProduction(),
		PaymentMethod: cfg.StripePaymentMethod,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r.Routes(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newIdentity(ctx context.Context, cfg *config.Config, log zerolog.Logger) (auth.Factory, error) {
	if cfg.IdentityProvider == config.IdentityFirebase {
		return auth.NewFirebase(ctx, cfg.FirebaseProjectID, cfg.FirebaseAPIKey, log)
	}

	seed, err := db.LoadSeed(nil)
	if err != nil {
		return nil, err
	}
	dir := auth.NewDirectory(0)
	for _, acc := range seed.Accounts {
		if err := dir.Add(acc.User(), acc.Password); err != nil {
			return nil, fmt.Errorf("seed account %s: %w", acc.Email, err)
		}
	}
	log.Warn().Int("accounts", len(seed.Accounts)).Msg("using the in-memory identity provider")
	return dir, nil
}

func newPayments(cfg *config.Config, conn *sql.DB, log zerolog.Logger) (payment.Processor, payment.Payouts) {
	if cfg.PaymentProcessor == config.PaymentStripe {
		s := payment.NewStripe(cfg.StripeKey, cfg.StripeCurrency, cfg.StripePaymentMethod, db.NewCatalog(conn), log)
		return s, s
	}
	m := &payment.Mock{Delay: cfg.MockPaymentDelay}
	return m, m
}

func newNotifier(cfg *config.Config, log zerolog.Logger) notify.Notifier {
	if cfg.MailgunDomain != "" {
		return notify.NewMailgun(cfg.MailgunDomain, cfg.MailgunKey, cfg.MailSender)
	}
	return notify.Log{Logger: log}
}
