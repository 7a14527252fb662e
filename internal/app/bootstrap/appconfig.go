// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration. Ports, TLS, log level and
// CORS belong to WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Email/SMTP configuration used by the notification relay
	MailSMTPHost    string        // SMTP server host
	MailSMTPPort    int           // SMTP server port (587 for STARTTLS, 465 for implicit TLS)
	MailSMTPUser    string        // SMTP username (empty disables AUTH)
	MailSMTPPass    string        // SMTP password
	MailSMTPSSL     bool          // implicit TLS; STARTTLS otherwise
	MailSMTPTimeout time.Duration // bound on one SMTP delivery
	MailFrom        string        // From email address
	MailFromName    string        // From display name

	// Relay tuning
	MailRelayInterval    time.Duration
	MailRelayBatch       int
	MailRelayMaxAttempts int

	// SiteName appears in notification subjects and delivery notes.
	SiteName string

	// Training workflow
	ProcurementLocation string // location hint sent with every purchase order

	// Audit logging: "all", "db", "log" or "off"
	AuditLogTransitions string

	// Timeout overrides; zero keeps the default.
	TimeoutRead       time.Duration
	TimeoutWrite      time.Duration
	TimeoutTransition time.Duration
}
