package user

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no user exists for the given id.
var ErrNotFound = eris.New("user not found")

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// GormRepository persists users using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ Repository = (*GormRepository)(nil)

// NewRepository constructs a Gorm-backed user repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

func (r *GormRepository) Create(ctx context.Context, u *User) error {
	if u == nil {
		return eris.New("user is nil")
	}

	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		r.logError(logrus.Fields{"username": u.Username}, err, "creating user")
		return eris.Wrapf(err, "creating user: %s", u.Username)
	}

	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uint) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, eris.Wrapf(ErrNotFound, "user %d", id)
		}
		r.logError(logrus.Fields{"user_id": id}, err, "fetching user")
		return nil, eris.Wrapf(err, "fetching user %d", id)
	}

	return &u, nil
}

func (r *GormRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		r.logError(logrus.Fields{"user_id": id}, err, "checking user existence")
		return false, eris.Wrapf(err, "checking user %d", id)
	}

	return count > 0, nil
}

// Delete removes the user. Articles they authored go with them through the
// ON DELETE CASCADE foreign key.
func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&User{}, id)
	if result.Error != nil {
		r.logError(logrus.Fields{"user_id": id}, result.Error, "deleting user")
		return eris.Wrapf(result.Error, "deleting user %d", id)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(ErrNotFound, "user %d", id)
	}

	return nil
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
