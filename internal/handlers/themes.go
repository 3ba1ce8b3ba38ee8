package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slatecms/apiserver/internal/themes"
)

// ThemeRouter registers the read-only theme preset routes. Renderers
// fetch these to style sections client side.
func ThemeRouter(r chi.Router) {
	r.Get("/", ListThemes)
	r.Get("/{theme}", GetTheme)
}

func ListThemes(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]map[string]string, len(themes.Names()))
	for _, name := range themes.Names() {
		out[name] = themes.Classes(name)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTheme returns the class map for one theme. Unknown names fall back
// to the default theme, matching how sections render.
func GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themes.Classes(chi.URLParam(r, "theme")))
}
