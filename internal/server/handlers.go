package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/petasbytes/mindbuddy/internal/chat"
	"github.com/petasbytes/mindbuddy/prompt"
)

const maxBodyBytes = 1 << 20

type chatRequest struct {
	Msg string `json:"msg"`

	// Thread selects the conversation; empty means the default one.
	Thread string `json:"thread,omitempty"`
}

type chatResponse struct {
	Reply  string `json:"reply"`
	Crisis bool   `json:"crisis"`
	Thread string `json:"thread"`
}

type threadsResponse struct {
	Default string        `json:"default"`
	Threads []chat.Thread `json:"threads"`
}

type errorResponse struct {
	Error string `json:"error"`
	Reply string `json:"reply,omitempty"`
}

// Messages shown to clients. Internal causes are logged, not returned.
const (
	msgEmpty       = "message was empty"
	msgBadThread   = "invalid thread id"
	msgBadBody     = `request body must be JSON like {"msg": "..."}`
	msgUnavailable = "assistant is unavailable, try again"
	msgNotSaved    = "could not save your conversation"
	msgRateLimited = "too many requests, slow down"
	msgInternal    = "internal error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleHealth implements GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProfile implements GET /profile
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.chat.Profile())
}

// handleThreads implements GET /threads
func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, threadsResponse{
		Default: s.chat.ConversationKey(),
		Threads: s.chat.Threads(),
	})
}

// handleChat implements POST /chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgBadBody)
		return
	}
	if strings.TrimSpace(req.Msg) == "" {
		writeError(w, http.StatusBadRequest, msgEmpty)
		return
	}
	thread := req.Thread
	if thread == "" {
		thread = s.chat.ConversationKey()
	} else if err := chat.CheckThreadID(thread); err != nil {
		writeError(w, http.StatusBadRequest, msgBadThread)
		return
	}

	reply, err := s.chat.ChatKey(r.Context(), thread, req.Msg)
	if err != nil {
		s.writeChatError(w, err, reply)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Crisis: prompt.IsCrisisHandoff(reply), Thread: thread})
}

func (s *Server) writeChatError(w http.ResponseWriter, err error, reply string) {
	var (
		mie *chat.ModelInvocationError
		pe  *chat.PersistError
	)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, msgEmpty)
	case chat.IsUserError(err):
		writeError(w, http.StatusBadRequest, msgBadThread)
	case errors.As(err, &mie):
		s.logger.WithError(err).Warn("chat: model unavailable")
		writeError(w, http.StatusBadGateway, msgUnavailable)
	case errors.As(err, &pe):
		s.logger.WithError(err).Error("chat: reply not saved")
		if reply == "" {
			reply = pe.Reply
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgNotSaved, Reply: reply})
	default:
		s.logger.WithError(err).Error("chat: unexpected error")
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
