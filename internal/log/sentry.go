package log

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const sentryFlushTimeout = 2 * time.Second

// SentrySettings represents the configuration required to bootstrap Sentry.
type SentrySettings struct {
	DSN         string
	Environment string
	Release     string
	Service     string
}

// InitSentry connects Sentry to the logger so error-level entries are reported as events.
// Without a DSN it returns a nil hub and a no-op flush.
func InitSentry(logger *logrus.Logger, settings SentrySettings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		Release:          settings.Release,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "error initializing sentry client")
	}

	scope := sentry.NewScope()
	if settings.Service != "" {
		scope.SetTag("service", settings.Service)
	}
	hub := sentry.NewHub(client, scope)

	if logger != nil {
		hook := sentrylogrus.NewLogHookFromClient([]logrus.Level{
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		}, client)
		logger.AddHook(hook)
	}

	flush := func() {
		hub.Flush(sentryFlushTimeout)
	}

	return hub, flush, nil
}
