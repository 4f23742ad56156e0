// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, CORS, request limits). AppConfig is everything specific to
// EventHub: database connection, session and token secrets, OAuth, the
// transactional-email API, the image CDN, and background-job intervals.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: eventhub-session)
	SessionDomain string // Cookie domain (blank means current host)
	TokenSecret   string // HMAC secret for bearer tokens issued to the SPA

	// Role overrides: "email=role" pairs applied at sign-in, comma separated.
	RoleOverrides string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Transactional email API (EmailJS-style HTTP endpoint). Empty endpoint
	// disables outgoing mail.
	MailEndpoint   string
	MailServiceID  string
	MailTemplateID string
	MailAPIKey     string
	MailFrom       string
	MailFromName   string

	// Image CDN (unsigned upload preset). Empty cloud name disables uploads.
	CDNBaseURL      string
	CDNCloudName    string
	CDNUploadPreset string

	// Base URL for links in email (invitation accept links, etc.)
	BaseURL string

	// Display name used in email templates and page titles.
	SiteName string

	// AdminEmail is promoted to (or created as) an admin account on startup,
	// so a fresh deployment always has one usable administrator.
	AdminEmail string

	// Background job tuning.
	NotifyTTL           time.Duration // How long queued notifications stay deliverable
	SessionIdle         time.Duration // Sessions idle longer than this are closed
	SweepInterval       time.Duration // Progress/denormalization reconciliation interval
	CleanupInterval     time.Duration // Inactive session cleanup interval
	InviteSweepInterval time.Duration // Expired pending invitation sweep interval
}
