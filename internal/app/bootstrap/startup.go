// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	auditstore "github.com/dalemusser/coursehub/internal/app/store/audit"
	groupstore "github.com/dalemusser/coursehub/internal/app/store/groups"
	holidaystore "github.com/dalemusser/coursehub/internal/app/store/holidays"
	invoicestore "github.com/dalemusser/coursehub/internal/app/store/invoicing"
	"github.com/dalemusser/coursehub/internal/app/store/mailoutbox"
	offerstore "github.com/dalemusser/coursehub/internal/app/store/offers"
	participationstore "github.com/dalemusser/coursehub/internal/app/store/participations"
	procurementstore "github.com/dalemusser/coursehub/internal/app/store/procurement"
	seancestore "github.com/dalemusser/coursehub/internal/app/store/seances"
	sessionstore "github.com/dalemusser/coursehub/internal/app/store/sessions"
	stakeholderstore "github.com/dalemusser/coursehub/internal/app/store/stakeholders"
	linestore "github.com/dalemusser/coursehub/internal/app/store/subscriptionlines"
	supplierstore "github.com/dalemusser/coursehub/internal/app/store/suppliers"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/mailer"
	"github.com/dalemusser/coursehub/internal/app/system/reports"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/app/system/txn"
	"github.com/dalemusser/coursehub/internal/app/system/workers"
	"github.com/dalemusser/coursehub/internal/app/workflow"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It wires
// the workflow engine to its stores and collaborators and starts the mail
// relay.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Read:       appCfg.TimeoutRead,
		Write:      appCfg.TimeoutWrite,
		Transition: appCfg.TimeoutTransition,
	})

	db := deps.CourseHubMongoDatabase
	outbox := mailoutbox.New(db)

	deps.services.engine = newEngine(db, outbox, appCfg, logger)

	smtp := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
		UseSSL:   appCfg.MailSMTPSSL,
		Timeout:  appCfg.MailSMTPTimeout,
	}, logger)
	deps.services.relay = workers.NewMailRelay(outbox, smtp, logger, workers.RelayConfig{
		Interval:    appCfg.MailRelayInterval,
		BatchSize:   int64(appCfg.MailRelayBatch),
		MaxAttempts: appCfg.MailRelayMaxAttempts,
	})
	deps.services.relay.Start()

	logger.Info("training workflow ready",
		zap.String("site_name", appCfg.SiteName),
		zap.String("procurement_location", appCfg.ProcurementLocation))
	return nil
}

// newEngine builds the workflow engine on the Mongo stores.
func newEngine(db *mongo.Database, outbox *mailoutbox.Store, appCfg AppConfig, logger *zap.Logger) *workflow.Engine {
	stores := workflow.Stores{
		Sessions:       sessionstore.New(db),
		Seances:        seancestore.New(db),
		Groups:         groupstore.New(db),
		Participations: participationstore.New(db),
		Lines:          linestore.New(db),
		Stakeholders:   stakeholderstore.New(db),
		Requests:       stakeholderstore.NewRequests(db),
		Offers:         offerstore.New(db),
		Suppliers:      supplierstore.New(db),
	}
	collab := workflow.Collaborators{
		Procurement: procurementstore.New(db),
		Invoicing:   invoicestore.New(db),
		Notifier:    mailer.NewNotifier(outbox, appCfg.SiteName),
		Reporter:    reports.New(appCfg.SiteName),
		Holidays:    holidaystore.New(db),
	}
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{Transitions: appCfg.AuditLogTransitions})

	return workflow.New(txn.New(db, logger), stores, collab, audit, logger, workflow.Options{
		LocationHint: appCfg.ProcurementLocation,
	})
}
