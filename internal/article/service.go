package article

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"blogposts/app/internal/metrics"
	"blogposts/app/internal/user"
)

// Service defines the article operations exposed over HTTP.
type Service interface {
	List(ctx context.Context) ([]Article, error)
	Get(ctx context.Context, id uint) (*Article, error)
	Create(ctx context.Context, fields Fields) (*Article, error)
	Update(ctx context.Context, id uint, fields Fields) (*Article, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo      Repository
	users     user.Repository
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the article service with its dependencies.
func NewService(repo Repository, users user.Repository, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("article repository is required")
	}
	if users == nil {
		return nil, eris.New("user repository is required")
	}

	return &service{
		repo:      repo,
		users:     users,
		logger:    logger,
		sentryHub: hub,
	}, nil
}

func (s *service) List(ctx context.Context) ([]Article, error) {
	articles, err := s.repo.List(ctx)
	if err != nil {
		s.recordError(nil, err, "listing articles")
		return nil, eris.Wrap(err, "listing articles")
	}

	return articles, nil
}

func (s *service) Get(ctx context.Context, id uint) (*Article, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		if !eris.Is(err, ErrNotFound) {
			s.recordError(logrus.Fields{"article_id": id}, err, "retrieving article")
		}
		return nil, err
	}

	return a, nil
}

func (s *service) Create(ctx context.Context, fields Fields) (*Article, error) {
	fields = fields.Normalize()
	if err := s.validate(ctx, fields); err != nil {
		metrics.RecordArticleWrite("create", metrics.OutcomeInvalid)
		return nil, err
	}

	a, err := s.repo.Create(ctx, fields)
	if err != nil {
		metrics.RecordArticleWrite("create", metrics.OutcomeError)
		s.recordError(logrus.Fields{"slug": fields.Slug}, err, "persisting article")
		return nil, eris.Wrap(err, "creating article")
	}

	metrics.RecordArticleWrite("create", metrics.OutcomeSuccess)
	s.logInfo(logrus.Fields{"article_id": a.ID, "author_id": a.AuthorID}, "article created")

	return a, nil
}

func (s *service) Update(ctx context.Context, id uint, fields Fields) (*Article, error) {
	// A missing record wins over an invalid payload.
	if _, err := s.Get(ctx, id); err != nil {
		if eris.Is(err, ErrNotFound) {
			metrics.RecordArticleWrite("update", metrics.OutcomeNotFound)
		}
		return nil, err
	}

	fields = fields.Normalize()
	if err := s.validate(ctx, fields); err != nil {
		metrics.RecordArticleWrite("update", metrics.OutcomeInvalid)
		return nil, err
	}

	a, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if eris.Is(err, ErrNotFound) {
			metrics.RecordArticleWrite("update", metrics.OutcomeNotFound)
			return nil, err
		}
		metrics.RecordArticleWrite("update", metrics.OutcomeError)
		s.recordError(logrus.Fields{"article_id": id}, err, "updating article")
		return nil, eris.Wrapf(err, "updating article %d", id)
	}

	metrics.RecordArticleWrite("update", metrics.OutcomeSuccess)
	s.logInfo(logrus.Fields{"article_id": a.ID}, "article updated")

	return a, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if eris.Is(err, ErrNotFound) {
			metrics.RecordArticleWrite("delete", metrics.OutcomeNotFound)
			return err
		}
		metrics.RecordArticleWrite("delete", metrics.OutcomeError)
		s.recordError(logrus.Fields{"article_id": id}, err, "deleting article")
		return eris.Wrapf(err, "deleting article %d", id)
	}

	metrics.RecordArticleWrite("delete", metrics.OutcomeSuccess)
	s.logInfo(logrus.Fields{"article_id": id}, "article deleted")

	return nil
}

// validate returns a *ValidationError (unwrapped) for rejected payloads, or a wrapped
// store error when the author lookup itself fails.
func (s *service) validate(ctx context.Context, fields Fields) error {
	verr := Validate(fields)
	if verr == nil {
		verr = &ValidationError{}
	}

	if fields.AuthorID != 0 {
		exists, err := s.users.Exists(ctx, fields.AuthorID)
		if err != nil {
			s.recordError(logrus.Fields{"author_id": fields.AuthorID}, err, "checking article author")
			return eris.Wrap(err, "checking article author")
		}
		if !exists {
			verr.add("author", fmt.Sprintf("invalid pk %q - object does not exist", fmt.Sprint(fields.AuthorID)), fields.AuthorID)
		}
	}

	if verr = verr.orNil(); verr != nil {
		return verr
	}
	return nil
}

func (s *service) logInfo(fields logrus.Fields, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(fields).Info(message)
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
