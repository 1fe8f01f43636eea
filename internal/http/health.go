package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"

	"blogposts/app/internal/db"
)

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

func (s *Server) registerHealthRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      stdhttp.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
	}, s.healthHandler)
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	return resp, nil
}
