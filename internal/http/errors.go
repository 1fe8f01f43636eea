package http

import (
	"context"
	"errors"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"blogposts/app/internal/article"
)

func init() {
	// Schema violations are reported as 400 like every other validation failure,
	// instead of huma's default 422.
	newError := huma.NewError
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == stdhttp.StatusUnprocessableEntity {
			status = stdhttp.StatusBadRequest
		}
		return newError(status, msg, errs...)
	}
}

func errArticleNotFound() error {
	return huma.Error404NotFound("article not found")
}

// articleError maps service errors onto problem responses. Only unexpected failures are
// logged and reported.
func (s *Server) articleError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	var verr *article.ValidationError
	switch {
	case errors.As(err, &verr):
		return huma.Error400BadRequest("validation failed", validationDetails(verr)...)
	case eris.Is(err, article.ErrNotFound):
		return errArticleNotFound()
	default:
		s.recordError(ctx, err, message, fields)
		return huma.Error500InternalServerError("internal server error")
	}
}

func validationDetails(verr *article.ValidationError) []error {
	details := make([]error, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		details = append(details, &huma.ErrorDetail{
			Location: "body." + f.Field,
			Message:  f.Message,
			Value:    f.Value,
		})
	}
	return details
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
