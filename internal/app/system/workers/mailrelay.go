// internal/app/system/workers/mailrelay.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/coursehub/internal/app/store/mailoutbox"
	"github.com/dalemusser/coursehub/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/email"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Outbox is the part of the mail outbox the relay needs.
type Outbox interface {
	Pending(ctx context.Context, limit int64) ([]mailoutbox.Mail, error)
	MarkSent(ctx context.Context, id primitive.ObjectID) error
	MarkAttemptFailed(ctx context.Context, id primitive.ObjectID, cause error, maxAttempts int) error
}

// Sender delivers one email. It must give up when ctx is done.
type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

// RelayConfig tunes the mail relay.
type RelayConfig struct {
	Interval    time.Duration // how often to poll the outbox
	BatchSize   int64         // mails per poll
	MaxAttempts int           // failures before a mail is given up
}

// MailRelay is a background worker that delivers queued notification mail.
type MailRelay struct {
	outbox Outbox
	sender Sender
	log    *zap.Logger
	cfg    RelayConfig
	stopCh chan struct{}
	wg     sync.WaitGroup

	// base is cancelled by Stop so an in-flight delivery aborts.
	base   context.Context
	cancel context.CancelFunc
}

// NewMailRelay creates a new mail relay worker. Zero config values fall
// back to a 30s interval, batches of 50 and 5 attempts.
func NewMailRelay(outbox Outbox, sender Sender, logger *zap.Logger, cfg RelayConfig) *MailRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	base, cancel := context.WithCancel(context.Background())
	return &MailRelay{
		outbox: outbox,
		sender: sender,
		log:    logger,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		base:   base,
		cancel: cancel,
	}
}

// Start begins the background relay loop.
func (w *MailRelay) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("mail relay worker started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Int64("batch_size", w.cfg.BatchSize))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *MailRelay) Stop() {
	w.cancel()
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("mail relay worker stopped")
}

func (w *MailRelay) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(w.base, w.cfg.Interval)
			if _, err := w.RelayOnce(ctx); err != nil && w.base.Err() == nil {
				w.log.Error("mail relay failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// RelayOnce delivers one batch of pending mail and returns how many were
// sent. A failed delivery is recorded on the mail and does not stop the
// batch.
func (w *MailRelay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := w.outbox.Pending(ctx, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, m := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := w.sender.Send(ctx, mailer.FromOutbox(m)); err != nil {
			if ctx.Err() != nil {
				// interrupted, not refused; leave the attempt count alone
				return sent, ctx.Err()
			}
			w.log.Warn("mail delivery failed",
				zap.String("mail_id", m.ID.Hex()),
				zap.String("template", m.Template),
				zap.Int("attempt", m.Attempts+1),
				zap.Error(err))
			if err := w.outbox.MarkAttemptFailed(ctx, m.ID, err, w.cfg.MaxAttempts); err != nil {
				return sent, err
			}
			continue
		}
		if err := w.outbox.MarkSent(ctx, m.ID); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		w.log.Info("relayed mail", zap.Int("count", sent))
	}
	return sent, nil
}
