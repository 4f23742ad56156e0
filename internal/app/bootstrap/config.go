// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/system/rolepolicy"
)

// appConfigKeys defines the configuration keys for EventHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: EVENTHUB_MONGO_URI, EVENTHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "eventhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "eventhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "token_secret", Default: "dev-only-token-secret-0123456789ABCDEF", Desc: "HMAC secret for SPA bearer tokens (must be strong in production)"},

	{Name: "role_overrides", Default: "", Desc: "Comma-separated email=role overrides applied at sign-in"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Transactional email API
	{Name: "mail_endpoint", Default: "", Desc: "Transactional email API endpoint (blank disables mail)"},
	{Name: "mail_service_id", Default: "", Desc: "Email API service ID"},
	{Name: "mail_template_id", Default: "", Desc: "Email API template ID"},
	{Name: "mail_api_key", Default: "", Desc: "Email API key"},
	{Name: "mail_from", Default: "noreply@eventhub.example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "EventHub", Desc: "From display name"},

	// Image CDN
	{Name: "cdn_base_url", Default: "https://api.cloudinary.com/v1_1", Desc: "Image CDN upload API base URL"},
	{Name: "cdn_cloud_name", Default: "", Desc: "Image CDN cloud name (blank disables uploads)"},
	{Name: "cdn_upload_preset", Default: "", Desc: "Image CDN unsigned upload preset"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for links in email"},
	{Name: "site_name", Default: "EventHub", Desc: "Display name used in email and titles"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email promoted to (or created as) admin on startup"},

	// Background job tuning
	{Name: "notify_ttl", Default: "5m", Desc: "How long queued notifications stay deliverable"},
	{Name: "session_idle", Default: "30m", Desc: "Sessions idle longer than this are closed"},
	{Name: "sweep_interval", Default: "10m", Desc: "Progress reconciliation sweep interval"},
	{Name: "cleanup_interval", Default: "15m", Desc: "Inactive session cleanup interval"},
	{Name: "invite_sweep_interval", Default: "1h", Desc: "Expired pending invitation sweep interval"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, EVENTHUB_* for app), and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EVENTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		TokenSecret:   appValues.String("token_secret"),

		RoleOverrides: appValues.String("role_overrides"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		MailEndpoint:   appValues.String("mail_endpoint"),
		MailServiceID:  appValues.String("mail_service_id"),
		MailTemplateID: appValues.String("mail_template_id"),
		MailAPIKey:     appValues.String("mail_api_key"),
		MailFrom:       appValues.String("mail_from"),
		MailFromName:   appValues.String("mail_from_name"),

		CDNBaseURL:      appValues.String("cdn_base_url"),
		CDNCloudName:    appValues.String("cdn_cloud_name"),
		CDNUploadPreset: appValues.String("cdn_upload_preset"),

		BaseURL:  appValues.String("base_url"),
		SiteName: appValues.String("site_name"),

		AdminEmail: appValues.String("admin_email"),

		NotifyTTL:           appValues.Duration("notify_ttl", 5*time.Minute),
		SessionIdle:         appValues.Duration("session_idle", 30*time.Minute),
		SweepInterval:       appValues.Duration("sweep_interval", 10*time.Minute),
		CleanupInterval:     appValues.Duration("cleanup_interval", 15*time.Minute),
		InviteSweepInterval: appValues.Duration("invite_sweep_interval", time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any backend
// is touched. The Mongo URI and the role-override table are both parsed here
// so a bad deployment fails at startup with a descriptive message.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if _, err := rolepolicy.Parse(appCfg.RoleOverrides); err != nil {
		return fmt.Errorf("invalid role_overrides: %w", err)
	}

	if coreCfg.Env == "prod" && appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("session_key must be changed for production")
	}

	if coreCfg.Env == "prod" && appCfg.TokenSecret == "dev-only-token-secret-0123456789ABCDEF" {
		return fmt.Errorf("token_secret must be changed for production")
	}

	return nil
}
