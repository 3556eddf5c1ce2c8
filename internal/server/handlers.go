package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "embodi/internal/errors"
	"embodi/pkg/registration"
)

const maxBodyBytes = 1 << 20

// handleRegister handles POST /config/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registration.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, apperrors.NewInvalidRequestError(
			"Decoding registration request",
			"The body is not a valid registration document",
			"",
			fmt.Errorf("invalid request body: %w", err),
		))
		return
	}

	resp, err := s.svc.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStop handles DELETE /config/{id}.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Stop(r.Context(), id); err != nil {
		s.writeErrorFor(w, r, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"healthy": true})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorFor(w, r, "", err)
}

// writeErrorFor logs err and answers with its status as plain text. Unknown
// containers get a fixed message naming id.
func (s *Server) writeErrorFor(w http.ResponseWriter, r *http.Request, id string, err error) {
	status := s.errHandler.Handle(r.Context(), err)
	msg := err.Error()
	if id != "" && errors.Is(err, apperrors.ErrContainerNotFound) {
		msg = fmt.Sprintf("Container %s not found", id)
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
