// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authgooglefeature "github.com/dalemusser/eventhub/internal/app/features/authgoogle"
	eventsfeature "github.com/dalemusser/eventhub/internal/app/features/events"
	giftsfeature "github.com/dalemusser/eventhub/internal/app/features/gifts"
	healthfeature "github.com/dalemusser/eventhub/internal/app/features/health"
	invitationsfeature "github.com/dalemusser/eventhub/internal/app/features/invitations"
	loginfeature "github.com/dalemusser/eventhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/eventhub/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/eventhub/internal/app/features/notifications"
	profilefeature "github.com/dalemusser/eventhub/internal/app/features/profile"
	projectsfeature "github.com/dalemusser/eventhub/internal/app/features/projects"
	speakersfeature "github.com/dalemusser/eventhub/internal/app/features/speakers"
	streamfeature "github.com/dalemusser/eventhub/internal/app/features/stream"
	tasksfeature "github.com/dalemusser/eventhub/internal/app/features/tasks"
	teamfeature "github.com/dalemusser/eventhub/internal/app/features/team"

	"github.com/dalemusser/eventhub/internal/app/progress"
	eventstore "github.com/dalemusser/eventhub/internal/app/store/events"
	giftstore "github.com/dalemusser/eventhub/internal/app/store/gifts"
	invitationstore "github.com/dalemusser/eventhub/internal/app/store/invitations"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	registrationstore "github.com/dalemusser/eventhub/internal/app/store/registrations"
	"github.com/dalemusser/eventhub/internal/app/store/sessions"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/imagecdn"
	"github.com/dalemusser/eventhub/internal/app/system/mailer"
	"github.com/dalemusser/eventhub/internal/app/system/ratelimit"
	"github.com/dalemusser/eventhub/internal/app/system/rolepolicy"
	"github.com/dalemusser/eventhub/internal/app/system/signin"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connection, schema setup, and the
// Startup hook have completed. Everything the handlers share (stores, the
// sign-in resolver, the progress recomputer, the notification queue, the
// change hubs) is wired here once.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName,
		appCfg.SessionDomain, secure, appCfg.TokenSecret, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// Fresh user data on each request so role changes and disabled accounts
	// take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	us := userstore.New(db)
	ps := projectstore.New(db)
	ts := taskstore.New(db)
	es := eventstore.New(db)
	rs := registrationstore.New(db)
	ss := speakerstore.New(db)
	gs := giftstore.New(db)
	is := invitationstore.New(db)
	sess := sessions.New(db)

	policy, err := rolepolicy.Parse(appCfg.RoleOverrides)
	if err != nil {
		return nil, err
	}
	resolver := signin.New(us, ps, ss, is, policy, logger)
	recomputer := progress.New(ps, ts, logger)

	var mail *mailer.Mailer
	if appCfg.MailEndpoint != "" {
		mail, err = mailer.New(mailer.Config{
			Endpoint:   appCfg.MailEndpoint,
			ServiceID:  appCfg.MailServiceID,
			TemplateID: appCfg.MailTemplateID,
			APIKey:     appCfg.MailAPIKey,
			From:       appCfg.MailFrom,
			FromName:   appCfg.MailFromName,
		}, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("mail endpoint not configured, outgoing email disabled")
	}

	var images *imagecdn.Uploader
	if appCfg.CDNCloudName != "" {
		images, err = imagecdn.New(appCfg.CDNBaseURL, appCfg.CDNCloudName, appCfg.CDNUploadPreset, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("image CDN not configured, photo uploads disabled")
	}

	r := chi.NewRouter()

	// Loads the session user into context on every request; handlers read it
	// via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Hubs, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginLimiter := ratelimit.New(10, time.Minute)
	loginHandler := loginfeature.NewHandler(us, sess, resolver, sessionMgr, loginLimiter, logger)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	googleHandler := authgooglefeature.NewHandler(resolver, sessionMgr, sess,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, secure, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, sess, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	profileHandler := profilefeature.NewHandler(us, images, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	// Workbench
	projectsHandler := projectsfeature.NewHandler(ps, ts, recomputer, deps.Notify, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler))

	tasksHandler := tasksfeature.NewHandler(ts, ps, recomputer, deps.Notify, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler))

	// Events
	eventsHandler := eventsfeature.NewHandler(es, rs, ss, deps.Notify, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler))

	speakersHandler := speakersfeature.NewHandler(ss, logger)
	r.Mount("/speakers", speakersfeature.Routes(speakersHandler))

	giftsHandler := giftsfeature.NewHandler(gs, logger)
	r.Mount("/gifts", giftsfeature.Routes(giftsHandler))

	// Collaboration
	invitationsHandler := invitationsfeature.NewHandler(is, us, ps, ss, mail,
		appCfg.SiteName, appCfg.BaseURL, logger)
	r.Mount("/invitations", invitationsfeature.Routes(invitationsHandler))

	notificationsHandler := notificationsfeature.NewHandler(deps.Notify, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

	streamHandler := streamfeature.NewHandler(deps.Hubs, ps, ts, es, ss, gs, logger)
	r.Mount("/stream", streamfeature.Routes(streamHandler))

	// Administration
	teamHandler := teamfeature.NewHandler(us, logger)
	r.Mount("/team", teamfeature.Routes(teamHandler))

	return r, nil
}
