package web

import (
	"net/http"
	"strings"
)

// ErrorHandler captures plain text 404 and 500 responses of h, such as those written by
// http.FileServer, and replaces them with the output of render.
func ErrorHandler(h http.Handler, render func(w http.ResponseWriter, r *http.Request, status int)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseWriter{
			ResponseWriter: w,
			request:        r,
			render:         render,
		}
		h.ServeHTTP(writer, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	request *http.Request
	render  func(w http.ResponseWriter, r *http.Request, status int)
	noWrite bool
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.noWrite {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	plain := strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain")
	if plain && (statusCode == http.StatusNotFound || statusCode == http.StatusInternalServerError) {
		// special processing of response
		w.Header().Del("Content-Type")
		w.Header().Del("X-Content-Type-Options")
		w.noWrite = true
		w.render(w.ResponseWriter, w.request, statusCode)
		return
	}
	// normal processing
	w.ResponseWriter.WriteHeader(statusCode)
}
