package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/aretw0/loaves/pkg/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"price": func(p domain.Price) string {
		if !p.Valid() {
			return ""
		}
		return strconv.FormatFloat(p.Float(), 'f', -1, 64)
	},
	"subtotal": func(i domain.LineItem) string {
		if !i.Price.Valid() {
			return ""
		}
		return fmt.Sprintf("$%.2f", i.Subtotal())
	},
}

var views = map[string]*template.Template{
	"cart":     parseView("cart"),
	"thankyou": parseView("thankyou"),
}

func parseView(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

// pageData feeds the layout and the page content.
type pageData struct {
	Title   string
	Count   int
	Items   []domain.LineItem
	Total   float64
	Message string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view string, data pageData) {
	var buf bytes.Buffer
	if err := views[view].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.fail(w, r, "render "+view, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
