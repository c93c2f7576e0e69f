// internal/app/poller.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"
	domainTelegram "homework_status_bot/internal/domain/telegram"
	"homework_status_bot/internal/infra/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// journalWriteTimeout bounds a single journal insert.
const journalWriteTimeout = 5 * time.Second

// APIClient fetches homework statuses changed since fromDate.
type APIClient interface {
	GetAPIAnswer(ctx context.Context, fromDate int64) (homework.Payload, error)
}

// Waiter blocks between polling cycles.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Poller tracks the review status of a single homework and reports changes to a chat.
// It is not safe for concurrent use; Run owns it for the process lifetime.
type Poller struct {
	api     APIClient
	bot     domainTelegram.Client
	waiter  Waiter
	journal notification.Journal // nil disables journaling
	logger  *logrus.Entry
	chatID  string

	journalTimeout time.Duration

	cursor        int64
	currentStatus string // last status message sent
	lastError     string // last recoverable error reported to the chat
}

func NewPoller(
	api APIClient,
	bot domainTelegram.Client,
	waiter Waiter,
	journal notification.Journal, // may be nil
	logger *logrus.Entry,
	chatID string,
	fromDate int64,
) *Poller {
	return &Poller{
		api:     api,
		bot:     bot,
		waiter:  waiter,
		journal: journal,
		logger:  logger,
		chatID:  chatID,
		cursor:  fromDate,

		journalTimeout: journalWriteTimeout,
	}
}

// Cursor returns the from_date sent with the next request.
func (p *Poller) Cursor() int64 {
	return p.cursor
}

// Run polls until an unrecoverable error occurs or ctx is canceled.
// Cancellation is a normal stop and returns nil.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.WithField("from_date", p.cursor).Info("Polling started")
	for {
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		if err := p.waiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return p.fail(ctx, p.logger, err)
		}
	}
	p.logger.WithField("from_date", p.cursor).Info("Polling stopped")
	return nil
}

// RunOnce performs a single polling cycle without waiting afterwards.
// Recoverable errors are reported to the chat and swallowed; any other
// error is reported as a failure and returned.
func (p *Poller) RunOnce(ctx context.Context) error {
	cycleLogger := p.logger.WithField("cycle_id", uuid.NewString())

	err := p.cycle(ctx, cycleLogger)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	kind := homework.KindOf(err)
	if !kind.Recoverable() {
		return p.fail(ctx, cycleLogger, err)
	}
	p.reportError(ctx, cycleLogger.WithField("error_kind", kind.String()), err)
	return nil
}

func (p *Poller) cycle(ctx context.Context, log *logrus.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during polling cycle: %v", r)
		}
	}()

	payload, err := p.api.GetAPIAnswer(ctx, p.cursor)
	if err != nil {
		return err
	}
	if payload == nil {
		log.WithField("from_date", p.cursor).Debug("No usable data this cycle, cursor unchanged")
		return nil
	}

	log.Debug("Проверка ответа от сервера")
	resp, err := homework.CheckResponse(payload)
	if err != nil {
		return err
	}

	if !resp.HasHomeworks() {
		log.Debug("Домашние задания не найдены")
	} else {
		message, err := homework.ParseStatus(resp.Latest)
		if err != nil {
			return err
		}
		if message != p.currentStatus {
			p.SendMessage(ctx, notification.KindStatusChange, message)
			p.currentStatus = message
		} else {
			log.Debug("Статус не изменился")
		}
	}

	p.cursor = resp.CurrentDate
	return nil
}

// reportError notifies the chat unless the same error was the last one reported.
func (p *Poller) reportError(ctx context.Context, log *logrus.Entry, err error) {
	text := err.Error()
	log.Error(text)
	if text == p.lastError {
		log.Debug("Error repeats the last reported one, notification suppressed")
		return
	}
	p.SendMessage(ctx, notification.KindError, text)
	p.lastError = text
}

// fail reports an unrecoverable error and returns it.
func (p *Poller) fail(ctx context.Context, log *logrus.Entry, err error) error {
	message := fmt.Sprintf("Сбой в работе программы: %v", err)
	logger.Critical(log.WithError(err), message)
	p.SendMessage(ctx, notification.KindFatal, message)
	return err
}

// SendMessage delivers text to the configured chat. Delivery is best effort:
// failures are logged and never returned.
func (p *Poller) SendMessage(ctx context.Context, kind notification.Kind, text string) {
	log := p.logger.WithField("notification_kind", kind)
	log.Debug("Отправка сообщения")

	record := &notification.Record{Kind: kind, ChatID: p.chatID, Text: text}
	if err := p.bot.SendMessage(p.chatID, text, nil); err != nil {
		log.WithError(err).Error("Сообщение не удалось отправить")
		record.DeliveryError = sql.NullString{String: err.Error(), Valid: true}
	} else {
		record.Delivered = true
		log.Debug("Сообщение отправлено")
	}

	if p.journal == nil {
		return
	}
	journalCtx, cancel := context.WithTimeout(ctx, p.journalTimeout)
	defer cancel()
	if err := p.journal.Record(journalCtx, record); err != nil {
		log.WithError(err).Warn("Failed to journal notification")
	}
}
