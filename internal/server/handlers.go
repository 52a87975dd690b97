package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chase3718/adsr-monitor/internal/device"
	"github.com/chase3718/adsr-monitor/internal/envelope"
	"github.com/chase3718/adsr-monitor/internal/session"
)

const maxValueSize = 64

type stateResponse struct {
	Mode     string          `json:"mode"`
	Notice   string          `json:"notice,omitempty"`
	Selected string          `json:"selected"`
	Params   envelope.Values `json:"params"`
}

type inputResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

type pageData struct {
	Mode    string
	Notice  string
	Params  []paramField
	Width   float64
	Height  float64
	LogText string
}

type paramField struct {
	Name  string
	Value float64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v := s.sess.Params()
	data := pageData{
		Mode:    s.sess.Mode().String(),
		Notice:  s.sess.Notice(),
		Width:   s.renderer.Layout.Width,
		Height:  s.renderer.Layout.Height,
		LogText: s.log.String(),
	}
	for _, p := range envelope.Params {
		data.Params = append(data.Params, paramField{Name: string(p), Value: v.Get(p)})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("server: template error", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		Mode:     s.sess.Mode().String(),
		Notice:   s.sess.Notice(),
		Selected: s.sess.Selected(),
		Params:   s.sess.Params(),
	})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	inputs, err := s.sess.Inputs()
	if err != nil {
		s.logger.Error("server: list inputs failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]inputResponse, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, inputResponse{ID: in.ID, Name: in.DisplayName, Label: in.Label()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	err := s.sess.Select(id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, session.ErrSimulated):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, device.ErrNoSuchInput):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Error("server: select failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueSize))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = s.sess.SetParameter(name, string(raw))
	var ipe *envelope.InvalidParameterError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.sess.Params())
	case errors.Is(err, envelope.ErrUnknownParameter):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &ipe):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	line := s.sess.Simulate()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, line)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.log.String())
}

func (s *Server) handleEnvelopePNG(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	b := s.png
	s.mu.RUnlock()
	serveImage(w, "image/png", b)
}

func (s *Server) handleEnvelopeSVG(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	b := s.svg
	s.mu.RUnlock()
	serveImage(w, "image/svg+xml", b)
}

func serveImage(w http.ResponseWriter, contentType string, b []byte) {
	if b == nil {
		http.Error(w, "envelope not rendered", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
