package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/gitpeek/internal/auth"
	"github.com/sakif/gitpeek/internal/service"
)

// VisitorSource hands out the visitor behind a visitor id.
// *service.Visitors satisfies it.
type VisitorSource interface {
	Get(ctx context.Context, id string) (*service.Visitor, error)
}

// currentVisitor resolves the request's visitor or writes a 500.
//
// The lookup may run the visitor's first auth resolution, which must not be
// cut short by the browser going away, so the request's cancellation is dropped.
func currentVisitor(vs VisitorSource, w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*service.Visitor, bool) {
	id, ok := auth.VisitorIDFromContext(r.Context())
	if !ok {
		logger.Error("request without visitor id", slog.String("path", r.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}

	v, err := vs.Get(context.WithoutCancel(r.Context()), id)
	if err != nil {
		logger.Error("resolving visitor",
			slog.String("visitor", id),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return v, true
}
