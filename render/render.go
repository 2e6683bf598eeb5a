// Package render serves the application's HTML pages from embedded
// templates. Every page shares one layout that shows the current user's name
// and any pending flash notice.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/coreybb/ikizamini/auth"
	"github.com/coreybb/ikizamini/models"
	"github.com/coreybb/ikizamini/webutil"
)

//go:embed templates/*.html
var files embed.FS

//go:embed static
var staticFiles embed.FS

// StaticFS exposes the embedded client assets for the /static/ file server.
func StaticFS() http.FileSystem {
	return http.FS(staticFiles)
}

// Page names accepted by Renderer.Page. Each maps to templates/<name>.html.
var pageNames = []string{
	"auth", "verify", "home", "index", "exam", "ibibazo", "ibyigwa",
	"welcom2", "publicpage", "welcom", "twandikire", "terms", "amanota",
}

// PageData is what every template receives.
type PageData struct {
	Name  string // Display name of the authenticated user, empty when anonymous
	Flash *auth.Flash
	Marks []models.Mark // Populated for the score-history page only
}

type Renderer struct {
	templates map[string]*template.Template
}

// New parses the embedded templates. Each page is parsed against the shared
// layout so a missing or broken template fails at startup, not per request.
func New() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return &Renderer{templates: templates}, nil
}

// Page renders the named page, consuming any pending flash notice and
// injecting the session's display name.
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data PageData) error {
	tmpl, ok := rd.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	if data.Flash == nil {
		data.Flash = auth.PopFlash(w, r)
	}
	if data.Name == "" {
		if sess := auth.SessionFrom(r.Context()); sess.Authenticated() {
			data.Name = sess.Name
		}
	}

	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeHTMLUTF8)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("failed to render page %s: %w", name, err)
	}
	return nil
}
