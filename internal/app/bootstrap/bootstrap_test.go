package bootstrap

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogposts/app/internal/config"
	applog "blogposts/app/internal/log"
)

func TestBuildServesArticles(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "articles.db")
	result, err := Build(context.Background(), Dependencies{
		Config: config.Config{DB: config.DBConfig{Driver: "sqlite", Path: path}},
		Logger: applog.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, result.Cleanup())
	})

	require.NotNil(t, result.ArticleService)
	require.NotNil(t, result.Users)
	require.NotNil(t, result.Database)

	rec := httptest.NewRecorder()
	result.HTTPServer.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/articles/", nil))
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenStore(context.Background(), Dependencies{
		Config: config.Config{DB: config.DBConfig{Driver: "oracle"}},
	})
	assert.Error(t, err)
}

func TestBuildRejectsInvalidRateLimit(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), Dependencies{
		Config: config.Config{
			DB:        config.DBConfig{Path: filepath.Join(t.TempDir(), "articles.db")},
			RateLimit: config.RateLimitConfig{RequestsPerSecond: 1},
		},
	})
	assert.Error(t, err)
}
