package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"blogposts/app/internal/app/bootstrap"
	"blogposts/app/internal/article"
	"blogposts/app/internal/config"
	applog "blogposts/app/internal/log"
)

func setupEnv(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "articles.db")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestRootHelpListsCommands(t *testing.T) {
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("root --help failed: %v", err)
	}

	for _, name := range []string{"migrate", "user"} {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("expected help output to list %q command, got:\n%s", name, buf.String())
		}
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if out != "schema up to date, 0 articles stored" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMigrateReportsStoredArticles(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "user", "create", "--username", "user1", "--password", "12345")
	if err != nil {
		t.Fatalf("user create failed: %v", err)
	}
	id, err := strconv.ParseUint(out, 10, 64)
	if err != nil {
		t.Fatalf("expected a user id, got %q", out)
	}

	store, err := bootstrap.OpenStore(context.Background(), bootstrap.Dependencies{
		Config: config.Config{DB: config.DBConfig{Driver: "sqlite", Path: path}},
		Logger: applog.Discard(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for _, slug := range []string{"slug1", "slug2"} {
		if _, err := store.Articles.Create(context.Background(), article.Fields{
			Title: "article", Slug: slug, AuthorID: uint(id), Content: "content",
		}); err != nil {
			t.Fatalf("create article: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, err = execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if out != "schema up to date, 2 articles stored" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestUserCreateAndDeleteCascades(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "user", "create", "--username", "user1", "--password", "12345")
	if err != nil {
		t.Fatalf("user create failed: %v", err)
	}

	id, err := strconv.ParseUint(out, 10, 64)
	if err != nil || id == 0 {
		t.Fatalf("expected a user id, got %q", out)
	}

	store, err := bootstrap.OpenStore(context.Background(), bootstrap.Dependencies{
		Config: config.Config{DB: config.DBConfig{Driver: "sqlite", Path: path}},
		Logger: applog.Discard(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	}()

	ctx := context.Background()
	if _, err := store.Articles.Create(ctx, article.Fields{
		Title: "article1", Slug: "slug1", AuthorID: uint(id), Content: "content1",
	}); err != nil {
		t.Fatalf("create article: %v", err)
	}

	if _, err := execute(t, "user", "delete", "--id", out); err != nil {
		t.Fatalf("user delete failed: %v", err)
	}

	count, err := store.Articles.Count(ctx)
	if err != nil {
		t.Fatalf("count articles: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected the user's articles to be removed, %d remain", count)
	}
}

func TestUserDeleteMissing(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "user", "delete", "--id", "42")
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing user error, got %v", err)
	}
}

func TestUserCreateRequiresFlags(t *testing.T) {
	setupEnv(t)

	if _, err := execute(t, "user", "create", "--username", "user1"); err == nil {
		t.Fatal("expected error when --password is missing")
	}
}

func TestUserCreateRejectsDuplicate(t *testing.T) {
	setupEnv(t)

	if _, err := execute(t, "user", "create", "--username", "user1", "--password", "12345"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := execute(t, "user", "create", "--username", "user1", "--password", "other"); err == nil {
		t.Fatal("expected duplicate username to fail")
	}
}
