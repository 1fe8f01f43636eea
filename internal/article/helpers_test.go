package article

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"blogposts/app/internal/db"
	applog "blogposts/app/internal/log"
	"blogposts/app/internal/user"
)

type fixture struct {
	db       *gorm.DB
	articles *GormRepository
	users    *user.GormRepository
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "articles.db")
	gormDB, err := db.Open(db.Options{Path: path})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close(gormDB))
	})

	logger := applog.Discard()
	require.NoError(t, Migrate(context.Background(), gormDB, logger))

	articles, err := NewRepository(gormDB, logger)
	require.NoError(t, err)

	users, err := user.NewRepository(gormDB, logger)
	require.NoError(t, err)

	return &fixture{db: gormDB, articles: articles, users: users}
}

func (f *fixture) createUser(t *testing.T, username string) *user.User {
	t.Helper()

	u, err := user.New(username, "12345")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u))

	return u
}

func (f *fixture) createArticle(t *testing.T, fields Fields) *Article {
	t.Helper()

	a, err := f.articles.Create(context.Background(), fields)
	require.NoError(t, err)

	return a
}
