package web

import (
	"net/http"
	"strings"

	"github.com/ancientlore/docserve/logattr"
	"github.com/ancientlore/docserve/session"
)

// themeResponse is the body of a successful theme update.
type themeResponse struct {
	Theme session.Theme `json:"theme"`
}

// handleTheme saves the theme preference posted in the "theme" form field.
// An optional "redirectTo" field sends the browser back to a local page.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Status: http.StatusMethodNotAllowed,
			Error:  http.StatusText(http.StatusMethodNotAllowed),
		})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Error: err.Error()})
		return
	}
	theme, err := session.ParseTheme(r.PostFormValue("theme"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: http.StatusBadRequest, Error: err.Error()})
		return
	}
	if err := s.cfg.Sessions.SetTheme(w, r, theme); err != nil {
		s.log.ErrorContext(r.Context(), "Cannot save theme", logattr.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Status: http.StatusInternalServerError,
			Error:  http.StatusText(http.StatusInternalServerError),
		})
		return
	}
	if to := r.PostFormValue("redirectTo"); localPath(to) {
		http.Redirect(w, r, to, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

// localPath reports whether p is a path on this site.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
