package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/service"
)

const (
	pageTitle = "GitPeek - GitHub Activity Viewer"

	// DefaultSearchWait is how long POST /search holds the response open for a
	// fast backend before falling back to the auto-refreshing loading page.
	DefaultSearchWait = 2 * time.Second

	loadingRefresh = 1 // seconds
)

// HomeHandler serves the landing/search page and the search form.
type HomeHandler struct {
	visitors   VisitorSource
	pages      *Renderer
	searchWait time.Duration
	logger     *slog.Logger
}

func NewHomeHandler(visitors VisitorSource, pages *Renderer, searchWait time.Duration, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		visitors:   visitors,
		pages:      pages,
		searchWait: searchWait,
		logger:     logger,
	}
}

// HandleHome renders the visitor's current auth and search state.
//
// HTTP: GET /
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	v, ok := currentVisitor(h.visitors, w, r, h.logger)
	if !ok {
		return
	}

	st := v.Search.State()
	data := pageData{
		Title:      pageTitle,
		Auth:       v.Auth.State(),
		Search:     st,
		TimeRanges: timeRangeOptions(st.TimeRange),
	}
	if st.Status == service.SearchLoading {
		data.Loading = true
		data.RefreshSeconds = loadingRefresh
		data.RefreshURL = "/"
	}

	h.pages.Render(w, http.StatusOK, "home", data)
}

// HandleSearch submits the search form.
//
// HTTP: POST /search (form: username, time_range)
//
// A blank username is ignored. Otherwise exactly one search is started for
// the trimmed username and the selected range (unknown ranges fall back to
// the default). The search runs detached from the request; the handler
// waits up to searchWait for it and then redirects to / (303), which shows
// either the outcome or the loading page.
func (h *HomeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	v, ok := currentVisitor(h.visitors, w, r, h.logger)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	if username == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	tr, valid := model.ParseTimeRange(r.PostForm.Get("time_range"))
	if !valid {
		tr = model.DefaultTimeRange
	}

	ctx := context.WithoutCancel(r.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		v.Search.Search(ctx, username, tr)
	}()

	timer := time.NewTimer(h.searchWait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		h.logger.Debug("search still running, showing loading page", slog.String("username", username))
	case <-r.Context().Done():
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleNotFound renders the catch-all page.
func (h *HomeHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	v, ok := currentVisitor(h.visitors, w, r, h.logger)
	if !ok {
		return
	}

	h.pages.Render(w, http.StatusNotFound, "notfound", pageData{
		Title: "Page not found - GitPeek",
		Auth:  v.Auth.State(),
	})
}
