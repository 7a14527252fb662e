// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CourseHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, site_name, etc.
//   - Environment variables: COURSEHUB_MONGO_URI, COURSEHUB_SITE_NAME, etc.
//   - Command-line flags: --mongo_uri, --site_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "coursehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port (587 STARTTLS, 465 implicit TLS)"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_smtp_ssl", Default: false, Desc: "Use implicit TLS instead of STARTTLS"},
	{Name: "mail_smtp_timeout", Default: "30s", Desc: "Timeout for one SMTP delivery"},
	{Name: "mail_from", Default: "noreply@coursehub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CourseHub", Desc: "From display name"},
	{Name: "mail_relay_interval", Default: "30s", Desc: "How often the relay polls the mail outbox"},
	{Name: "mail_relay_batch", Default: 50, Desc: "Mails delivered per relay poll"},
	{Name: "mail_relay_max_attempts", Default: 5, Desc: "Delivery attempts before a mail is marked failed"},

	{Name: "site_name", Default: "CourseHub", Desc: "Name used in notifications and delivery notes"},

	// Training workflow
	{Name: "procurement_location", Default: "internal", Desc: "Location hint passed with every purchase order"},

	// Audit logging
	{Name: "audit_log_transitions", Default: "all", Desc: "Transition audit: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_read", Default: "", Desc: "Deadline for availability reads (e.g., 5s)"},
	{Name: "timeout_write", Default: "", Desc: "Deadline for single-entity writes (e.g., 10s)"},
	{Name: "timeout_transition", Default: "", Desc: "Deadline for a transition with its cascades (e.g., 30s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, COURSEHUB_* for app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COURSEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Email/SMTP
		MailSMTPHost:         appValues.String("mail_smtp_host"),
		MailSMTPPort:         appValues.Int("mail_smtp_port"),
		MailSMTPUser:         appValues.String("mail_smtp_user"),
		MailSMTPPass:         appValues.String("mail_smtp_pass"),
		MailSMTPSSL:          appValues.Bool("mail_smtp_ssl"),
		MailSMTPTimeout:      appValues.Duration("mail_smtp_timeout", 30*time.Second),
		MailFrom:             appValues.String("mail_from"),
		MailFromName:         appValues.String("mail_from_name"),
		MailRelayInterval:    appValues.Duration("mail_relay_interval", 30*time.Second),
		MailRelayBatch:       appValues.Int("mail_relay_batch"),
		MailRelayMaxAttempts: appValues.Int("mail_relay_max_attempts"),

		SiteName: appValues.String("site_name"),

		ProcurementLocation: strings.TrimSpace(appValues.String("procurement_location")),

		AuditLogTransitions: appValues.String("audit_log_transitions"),

		TimeoutRead:       appValues.Duration("timeout_read", 0),
		TimeoutWrite:      appValues.Duration("timeout_write", 0),
		TimeoutTransition: appValues.Duration("timeout_transition", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// CourseHub validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.ProcurementLocation == "" {
		return fmt.Errorf("procurement_location must not be empty")
	}
	switch appCfg.AuditLogTransitions {
	case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
	default:
		return fmt.Errorf("audit_log_transitions must be one of all, db, log, off (got %q)", appCfg.AuditLogTransitions)
	}
	return nil
}
