package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"blogposts/app/internal/article"
)

const articlesTag = "articles"

// articleBody is the serialized form of an article.
type articleBody struct {
	ID        uint   `json:"id" doc:"Article identifier"`
	Title     string `json:"title" doc:"Article title"`
	Slug      string `json:"slug" doc:"URL-safe identifier"`
	Author    uint   `json:"author" doc:"Id of the owning user"`
	Content   string `json:"content" doc:"Article body"`
	Created   string `json:"created" format:"date" doc:"Creation date"`
	Updated   string `json:"updated" format:"date" doc:"Date of the last change"`
	Published bool   `json:"published" doc:"Whether the article is published"`
}

// articlePayload is the client-writable part of an article, used by both create and
// full-replace update. Read-only fields sent back by clients are ignored. The schema fixes
// JSON types only; field rules are checked by the article service after an update has
// resolved its target.
type articlePayload struct {
	_         struct{} `json:"-" additionalProperties:"true"`
	Title     string   `json:"title" required:"false" doc:"Article title, 1 to 250 characters"`
	Slug      string   `json:"slug" required:"false" doc:"URL-safe identifier of letters, digits, underscores or hyphens, at most 50 characters"`
	Author    uint     `json:"author" required:"false" doc:"Id of the owning user"`
	Content   string   `json:"content" required:"false" doc:"Article body, must not be blank"`
	Published bool     `json:"published,omitempty" doc:"Whether the article is published, defaults to false"`
}

func (p articlePayload) fields() article.Fields {
	return article.Fields{
		Title:     p.Title,
		Slug:      p.Slug,
		AuthorID:  p.Author,
		Content:   p.Content,
		Published: p.Published,
	}
}

type articleIDInput struct {
	ID string `path:"id" doc:"Article identifier"`
}

type createArticleInput struct {
	Body articlePayload
}

type updateArticleInput struct {
	ID   string `path:"id" doc:"Article identifier"`
	Body articlePayload
}

type articleOutput struct {
	Body articleBody
}

type articleListOutput struct {
	Body []articleBody
}

func (s *Server) registerArticleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-articles",
		Method:      stdhttp.MethodGet,
		Path:        "/articles/",
		Summary:     "List articles",
		Tags:        []string{articlesTag},
	}, s.listArticlesHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-article",
		Method:        stdhttp.MethodPost,
		Path:          "/articles/",
		Summary:       "Create an article",
		Tags:          []string{articlesTag},
		DefaultStatus: stdhttp.StatusCreated,
		Errors:        []int{stdhttp.StatusBadRequest},
	}, s.createArticleHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-article",
		Method:      stdhttp.MethodGet,
		Path:        "/articles/{id}/",
		Summary:     "Retrieve an article",
		Tags:        []string{articlesTag},
		Errors:      []int{stdhttp.StatusNotFound},
	}, s.getArticleHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-article",
		Method:      stdhttp.MethodPut,
		Path:        "/articles/{id}/",
		Summary:     "Replace an article",
		Tags:        []string{articlesTag},
		Errors:      []int{stdhttp.StatusBadRequest, stdhttp.StatusNotFound},
	}, s.updateArticleHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-article",
		Method:        stdhttp.MethodDelete,
		Path:          "/articles/{id}/",
		Summary:       "Delete an article",
		Tags:          []string{articlesTag},
		DefaultStatus: stdhttp.StatusNoContent,
		Errors:        []int{stdhttp.StatusNotFound},
	}, s.deleteArticleHandler)
}

func (s *Server) listArticlesHandler(ctx context.Context, _ *struct{}) (*articleListOutput, error) {
	articles, err := s.articles.List(ctx)
	if err != nil {
		return nil, s.articleError(ctx, err, "listing articles", nil)
	}

	out := &articleListOutput{Body: make([]articleBody, 0, len(articles))}
	for i := range articles {
		out.Body = append(out.Body, newArticleBody(&articles[i]))
	}

	return out, nil
}

func (s *Server) createArticleHandler(ctx context.Context, input *createArticleInput) (*articleOutput, error) {
	created, err := s.articles.Create(ctx, input.Body.fields())
	if err != nil {
		return nil, s.articleError(ctx, err, "creating article", logrus.Fields{"slug": input.Body.Slug})
	}

	return &articleOutput{Body: newArticleBody(created)}, nil
}

func (s *Server) getArticleHandler(ctx context.Context, input *articleIDInput) (*articleOutput, error) {
	id, ok := parseArticleID(input.ID)
	if !ok {
		return nil, errArticleNotFound()
	}

	found, err := s.articles.Get(ctx, id)
	if err != nil {
		return nil, s.articleError(ctx, err, "retrieving article", logrus.Fields{"article_id": id})
	}

	return &articleOutput{Body: newArticleBody(found)}, nil
}

func (s *Server) updateArticleHandler(ctx context.Context, input *updateArticleInput) (*articleOutput, error) {
	id, ok := parseArticleID(input.ID)
	if !ok {
		return nil, errArticleNotFound()
	}

	updated, err := s.articles.Update(ctx, id, input.Body.fields())
	if err != nil {
		return nil, s.articleError(ctx, err, "updating article", logrus.Fields{"article_id": id})
	}

	return &articleOutput{Body: newArticleBody(updated)}, nil
}

func (s *Server) deleteArticleHandler(ctx context.Context, input *articleIDInput) (*struct{}, error) {
	id, ok := parseArticleID(input.ID)
	if !ok {
		return nil, errArticleNotFound()
	}

	if err := s.articles.Delete(ctx, id); err != nil {
		return nil, s.articleError(ctx, err, "deleting article", logrus.Fields{"article_id": id})
	}

	return nil, nil
}

func newArticleBody(a *article.Article) articleBody {
	return articleBody{
		ID:        a.ID,
		Title:     a.Title,
		Slug:      a.Slug,
		Author:    a.AuthorID,
		Content:   a.Content,
		Created:   a.CreatedAt.UTC().Format(time.DateOnly),
		Updated:   a.UpdatedAt.UTC().Format(time.DateOnly),
		Published: a.Published,
	}
}

// parseArticleID accepts positive decimal ids only. Anything else cannot name a row.
func parseArticleID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
