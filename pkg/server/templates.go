package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/matzehuels/stackgraph/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	indexTmpl = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/index.html"))
	viewTmpl  = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/view.html"))
)

// viewData feeds the graph page. Exactly one of DataURL and Data is set.
type viewData struct {
	Filename string
	DataURL  string
	Data     template.JS
}

// render executes t into a buffer first, so a template failure never leaves
// a half-written page behind.
func render(w http.ResponseWriter, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render page")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
