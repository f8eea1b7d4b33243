package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// TemplatesFS contains the page templates rendered by the web server.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS contains the stylesheet and browser script served under /static.
//
//go:embed static
var StaticFS embed.FS

// Static returns the static assets rooted at the static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(StaticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Funcs are the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatTime": FormatTime,
		"initials":   Initials,
		"join":       strings.Join,
	}
}

// Templates parses the embedded pages. Each page is addressed by its file name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(TemplatesFS, "templates/*.html")
}

// FormatTime renders a timestamp as 24-hour HH:MM, or "Unknown time" for a zero value.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown time"
	}
	return t.Local().Format("15:04")
}

// Initials returns up to two upper-case initials of a display name, "U" when there are none.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteString(strings.ToUpper(string(r)))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}
