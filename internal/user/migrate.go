package user

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the users schema.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	if err := db.WithContext(ctx).AutoMigrate(&User{}); err != nil {
		if logger != nil {
			logger.WithField("component", "user.migrate").WithField("error", err.Error()).Error("user schema migration failed")
		}
		return eris.Wrap(err, "auto migrating user schema")
	}

	return nil
}
