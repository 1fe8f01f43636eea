package article

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNotFound indicates no article exists for the requested id.
var ErrNotFound = eris.New("article not found")

// Repository defines persistence operations for articles.
type Repository interface {
	List(ctx context.Context) ([]Article, error)
	Get(ctx context.Context, id uint) (*Article, error)
	Create(ctx context.Context, fields Fields) (*Article, error)
	Update(ctx context.Context, id uint, fields Fields) (*Article, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// GormRepository persists articles using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
}

var _ Repository = (*GormRepository)(nil)

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// List returns every article ordered by id.
func (r *GormRepository) List(ctx context.Context) ([]Article, error) {
	articles := []Article{}

	if err := r.db.WithContext(ctx).Order("id ASC").Find(&articles).Error; err != nil {
		r.logError(nil, err, "listing articles")
		return nil, eris.Wrap(err, "listing articles")
	}

	return articles, nil
}

// Get returns the article with the given id or ErrNotFound.
func (r *GormRepository) Get(ctx context.Context, id uint) (*Article, error) {
	var a Article
	err := r.db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, eris.Wrapf(ErrNotFound, "article %d", id)
		}
		r.logError(logrus.Fields{"article_id": id}, err, "fetching article")
		return nil, eris.Wrapf(err, "fetching article %d", id)
	}

	return &a, nil
}

// Create inserts a new article. created and updated are both stamped with the current time.
func (r *GormRepository) Create(ctx context.Context, fields Fields) (*Article, error) {
	now := r.now()
	a := &Article{
		Title:     fields.Title,
		Slug:      fields.Slug,
		AuthorID:  fields.AuthorID,
		Content:   fields.Content,
		Published: fields.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.db.WithContext(ctx).Omit("Author").Create(a).Error; err != nil {
		r.logError(logrus.Fields{"slug": fields.Slug, "author_id": fields.AuthorID}, err, "creating article")
		return nil, eris.Wrapf(err, "creating article: %s", fields.Slug)
	}

	return a, nil
}

// Update overwrites every writable field of the article and refreshes updated. created is
// never touched.
func (r *GormRepository) Update(ctx context.Context, id uint, fields Fields) (*Article, error) {
	var updated Article

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			if eris.Is(err, gorm.ErrRecordNotFound) {
				return eris.Wrapf(ErrNotFound, "article %d", id)
			}
			return eris.Wrapf(err, "loading article %d for update", id)
		}

		values := map[string]any{
			"title":      fields.Title,
			"slug":       fields.Slug,
			"author_id":  fields.AuthorID,
			"content":    fields.Content,
			"published":  fields.Published,
			"updated_at": r.now(),
		}

		if err := tx.Model(&updated).Select("title", "slug", "author_id", "content", "published", "updated_at").Updates(values).Error; err != nil {
			return eris.Wrapf(err, "updating article %d", id)
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		if !eris.Is(err, ErrNotFound) {
			r.logError(logrus.Fields{"article_id": id}, err, "updating article")
		}
		return nil, err
	}

	return &updated, nil
}

// Delete removes the article or returns ErrNotFound.
func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Article{}, id)
	if result.Error != nil {
		r.logError(logrus.Fields{"article_id": id}, result.Error, "deleting article")
		return eris.Wrapf(result.Error, "deleting article %d", id)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(ErrNotFound, "article %d", id)
	}

	return nil
}

// Count returns the number of stored articles.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Article{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting articles")
		return 0, eris.Wrap(err, "counting articles")
	}

	return count, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
