package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ctfer-io/scenario-editor/global"
	"github.com/ctfer-io/scenario-editor/pkg/flash"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = map[string]*template.Template{
	"home":          parsePage("home.html"),
	"edit_scenario": parsePage("edit_scenario.html"),
	"error":         parsePage("error.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}

type layout struct {
	Title   string
	Notices []flash.Notice
}

type homePage struct {
	layout
}

type editPage struct {
	layout
	ID       int
	Action   string
	Revision string
	Fields   []editField
}

type editField struct {
	scenario.DisplayField
	Rows int
}

type errorPage struct {
	layout
	Status     int
	StatusText string
	RequestID  string
}

func editFields(dfs []scenario.DisplayField) []editField {
	out := make([]editField, 0, len(dfs))
	for _, df := range dfs {
		rows := strings.Count(df.Text, "\n") + 2
		rows = min(max(rows, 3), 30)
		out = append(out, editField{DisplayField: df, Rows: rows})
	}
	return out
}

// render executes the page before writing anything, so that a template
// failure still ends up with a clean error.
func render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	buf := &bytes.Buffer{}
	if err := pages[page].ExecuteTemplate(buf, "layout", data); err != nil {
		global.Log().Error(r.Context(), "rendering page",
			zap.String("page", page),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderError(w http.ResponseWriter, r *http.Request, status int) {
	render(w, r, "error", status, errorPage{
		layout: layout{
			Title: http.StatusText(status),
		},
		Status:     status,
		StatusText: http.StatusText(status),
		RequestID:  global.RequestID(r.Context()),
	})
}
