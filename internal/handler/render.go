// Package handler contains the HTTP handlers of the GitPeek web front end.
//
// Every browser is a visitor (see internal/auth). Handlers look the visitor
// up, drive its controllers from internal/service and render the result;
// they hold no state of their own and contain no business logic.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/gitpeek/internal/model"
	"github.com/sakif/gitpeek/internal/service"
	"github.com/sakif/gitpeek/internal/view"
)

var pageNames = []string{"home", "callback", "notfound"}

// Renderer holds one parsed template set per page. Each set is base.html plus
// the page, so every page can define its own "content" block.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses the templates under templates/ in fsys once at startup.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(view.FuncMap()).ParseFS(fsys,
			"templates/base.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// pageData is what every template receives.
type pageData struct {
	Title  string
	Auth   service.AuthState
	Search service.SearchState

	Loading    bool
	TimeRanges []timeRangeOption

	// Message is the callback page's error text.
	Message string

	// RefreshSeconds > 0 adds a meta refresh to RefreshURL.
	RefreshSeconds int
	RefreshURL     string
}

type timeRangeOption struct {
	Value    model.TimeRange
	Label    string
	Selected bool
}

func timeRangeOptions(selected model.TimeRange) []timeRangeOption {
	if selected == "" {
		selected = model.DefaultTimeRange
	}
	opts := make([]timeRangeOption, 0, len(model.TimeRanges))
	for _, tr := range model.TimeRanges {
		opts = append(opts, timeRangeOption{Value: tr, Label: tr.Label(), Selected: tr == selected})
	}
	return opts
}

// Render executes a page into a buffer first so a template error still
// produces a clean 500 instead of a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data pageData) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Debug("writing page", slog.String("error", err.Error()))
	}
}
