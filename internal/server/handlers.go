// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"returns-insights/internal/models"
	"returns-insights/internal/notify"
	"returns-insights/internal/session"
)

// ChatRequest is one user message. Contact fields are optional and only
// used to deliver the confirmation once a return finalizes.
type ChatRequest struct {
	SessionID    string `json:"session_id"`
	Message      string `json:"message"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// ChatResponse wraps the agent envelope with the session id so a client
// that started without one can keep the conversation going.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	*models.AgentResponse
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, sessionID := s.router.Route(r.Context(), req.SessionID, req.Message)

	s.maybeNotify(resp, req)

	s.respondJSON(w, http.StatusOK, ChatResponse{SessionID: sessionID, AgentResponse: resp})
}

// maybeNotify fires the confirmation out of band when this turn
// finalized a return. Delivery never affects the chat response.
func (s *Server) maybeNotify(resp *models.AgentResponse, req ChatRequest) {
	if s.notifier == nil || !resp.Success || resp.Data == nil {
		return
	}
	rec, ok := resp.Data["record"].(models.ReturnRecord)
	if !ok || (req.ContactEmail == "" && req.ContactPhone == "") {
		return
	}

	contact := notify.Contact{Email: req.ContactEmail, Phone: req.ContactPhone}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = s.notifier.ReturnConfirmed(ctx, rec, contact)
	}()
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("history read failed", map[string]interface{}{
			"sessionID": sessionID,
			"error":     err.Error(),
		})
		s.respondError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"history":    sess.History,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		s.respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := s.sessions.Delete(r.Context(), req.SessionID); err != nil {
		s.logger.Error("session clear failed", map[string]interface{}{
			"sessionID": req.SessionID,
			"error":     err.Error(),
		})
		s.respondError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	path, err := s.reports.Open(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "report not found")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
