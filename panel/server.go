// Package panel serves the ops web interface: log tailing over
// server-sent events, a file browser rooted at a fixed directory,
// single-file and ZIP downloads, and the archived chat transcripts.
//
// Bot state is never touched here; the panel reads log files and the
// transcript database only.
package panel

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/richinex/studybot/storage"
)

// Options configures a Server.
type Options struct {
	// Password gates every route except /healthz. Required.
	Password string
	// Root is the directory the file browser and downloads are
	// restricted to.
	Root string
	// LogsDir holds the log files offered for tailing.
	LogsDir string
	// Archive supplies transcripts; nil disables the endpoint.
	Archive *storage.TranscriptArchive
	Logger  *zap.Logger
}

type Server struct {
	password string
	root     string
	logsDir  string
	archive  *storage.TranscriptArchive
	logger   *zap.Logger
	sessions *sessionStore
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		password: opts.Password,
		root:     opts.Root,
		logsDir:  opts.LogsDir,
		archive:  opts.Archive,
		logger:   logger,
		sessions: newSessionStore(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)

	// Page routes redirect to /login without a session.
	r.Group(func(r chi.Router) {
		r.Use(s.requireSession(true))
		r.Get("/", s.handleIndex)
	})

	// API, stream, and download routes answer 401 instead.
	r.Group(func(r chi.Router) {
		r.Use(s.requireSession(false))
		r.Get("/api/list", s.handleList)
		r.Get("/api/transcripts", s.handleTranscripts)
		r.Get("/api/chats", s.handleChats)
		r.Get("/events/log", s.handleLogStream)
		r.Get("/events/file", s.handleFileStream)
		r.Get("/download", s.handleDownload)
		r.Get("/download/zip", s.handleDownloadZip)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"transcripts_enabled": s.archive != nil,
	})
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusNotFound, "transcripts_disabled", "transcript archive not configured")
		return
	}
	chatID, err := parseChatID(r.URL.Query().Get("chat"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_chat_id", err.Error())
		return
	}
	entries, err := s.archive.List(r.Context(), chatID, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusNotFound, "transcripts_disabled", "transcript archive not configured")
		return
	}
	chats, err := s.archive.Chats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, chats)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func parseChatID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("query parameter chat is required")
	}
	return strconv.ParseInt(raw, 10, 64)
}
