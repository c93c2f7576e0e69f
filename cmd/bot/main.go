package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/notification"
	"homework_status_bot/internal/infra/config"
	idb "homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errHistoryNeedsJournal = errors.New("--history needs DATABASE_URL to read the notification journal")

type options struct {
	envFiles []string
	once     bool
	history  int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "homework-bot",
		Short: "Relay Practicum homework review statuses to Telegram",
		Long: `Polls the Practicum homework review API and sends a Telegram message
whenever the status of the latest homework changes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true, // errors are logged by run
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.envFiles, "env-file", nil, "Env files to load instead of ./.env (repeatable)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single polling cycle and exit")
	cmd.Flags().IntVar(&opts.history, "history", 0, "Log the N most recent journaled notifications and exit")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		logger.Get().WithError(err).Error("Could not load application configuration")
		return err
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	if opts.history > 0 {
		return showHistory(ctx, cfg, opts.history, mainLogger)
	}

	if err := cfg.CheckTokens(); err != nil {
		logger.Critical(mainLogger, err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	waiter, err := scheduler.New(cfg.PollSchedule)
	if err != nil {
		mainLogger.WithError(err).Error("Could not parse poll schedule")
		return err
	}

	api, err := practicum.NewClient(cfg.Endpoint, cfg.PracticumToken, cfg.RequestTimeout, logger.Component("practicum"))
	if err != nil {
		mainLogger.WithError(err).Error("Could not create review API client")
		return err
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramAPIURL, cfg.RequestTimeout)
	if err != nil {
		mainLogger.WithError(err).Error("Could not create Telegram bot")
		return err
	}

	var journal notification.Journal
	if cfg.JournalEnabled() {
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Error("Could not connect to database")
			return err
		}
		defer db.Close()
		journal = idb.NewPostgresNotificationJournal(db)
		mainLogger.Info("Notification journal enabled")
	}

	fromDate := cfg.FromDate
	if fromDate == 0 {
		fromDate = time.Now().Unix()
	}

	poller := app.NewPoller(
		api,
		telegram.NewTelebotAdapter(bot),
		waiter,
		journal,
		logger.Component("poller"),
		cfg.TelegramChatID,
		fromDate,
	)

	mainLogger.WithField("schedule", waiter.Spec()).WithField("environment", cfg.Environment).Info("Homework status bot starting")
	if opts.once {
		return poller.RunOnce(ctx)
	}
	return poller.Run(ctx)
}

// showHistory reads the journal; it needs no tokens and makes no API calls.
func showHistory(ctx context.Context, cfg *config.AppConfig, limit int, log *logrus.Entry) error {
	if !cfg.JournalEnabled() {
		log.Error(errHistoryNeedsJournal.Error())
		return errHistoryNeedsJournal
	}
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Error("Could not connect to database")
		return err
	}
	defer db.Close()
	return printHistory(ctx, idb.NewPostgresNotificationJournal(db), limit, log)
}

// printHistory logs the most recent notifications, newest first.
func printHistory(ctx context.Context, journal notification.Journal, limit int, log *logrus.Entry) error {
	records, err := journal.ListRecent(ctx, limit)
	if err != nil {
		log.WithError(err).Error("Could not read notification journal")
		return err
	}
	if len(records) == 0 {
		log.Info("Notification journal is empty")
		return nil
	}
	for _, r := range records {
		entry := log.WithFields(logrus.Fields{
			"id":         r.ID,
			"kind":       r.Kind,
			"chat_id":    r.ChatID,
			"delivered":  r.Delivered,
			"created_at": r.CreatedAt.Format(time.RFC3339),
		})
		if r.DeliveryError.Valid {
			entry = entry.WithField("delivery_error", r.DeliveryError.String)
		}
		entry.Info(r.Text)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
