package server

import (
	"bytes"
	"log/slog"
	"net/http"

	"go.followtheprocess.codes/jyed/internal/session"
)

// pageData is the data the editor page template is executed with.
type pageData struct {
	Version      string
	DownloadMIME string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	buf := &bytes.Buffer{}

	data := pageData{Version: s.version, DownloadMIME: session.DownloadMIME}
	if err := s.page.Execute(buf, data); err != nil {
		s.logger.Error("Could not render editor page", slog.String("error", err.Error()))
		http.Error(w, "could not render editor page", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w) //nolint:errcheck // Nothing useful to do if the client has gone
}
