package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-duels/internal/chat"
	"github.com/mauv0809/chess-duels/internal/duels"
	"github.com/mauv0809/chess-duels/internal/lichess"
	"github.com/mauv0809/chess-duels/internal/pubsub"
	"github.com/mauv0809/chess-duels/internal/registry"
	"github.com/mauv0809/chess-duels/internal/store"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		respondWithJSON(w, http.StatusOK, map[string]any{"ok": true, "time": s.now().UTC()})
	}
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.Registry.List(r.Context())
		if err != nil {
			log.Error("Failed to list users", "error", err)
			respondWithError(w, err)
			return
		}
		out := make([]publicUser, 0, len(users))
		for _, u := range users {
			out = append(out, toPublicUser(u))
		}
		respondWithJSON(w, http.StatusOK, map[string]any{"users": out})
	}
}

func (s *Server) RegisterUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		user, err := s.Registry.Register(r.Context(), req.Username)
		if err != nil {
			log.Warn("Registration rejected", "username", req.Username, "error", err)
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]any{"user": toPublicUser(user)})
	}
}

// LinkLichessHandler links by handle or, when a token is given, by the account the token belongs to.
func (s *Server) LinkLichessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		var req linkRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var (
			user store.User
			err  error
		)
		switch {
		case strings.TrimSpace(req.Token) != "":
			user, err = s.Registry.LinkWithToken(r.Context(), username, req.Token)
		case strings.TrimSpace(req.LichessUsername) != "":
			user, err = s.Registry.Link(r.Context(), username, req.LichessUsername)
		default:
			respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "lichessUsername or token is required"})
			return
		}
		if err != nil {
			log.Warn("Lichess link rejected", "username", username, "error", err)
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]any{"user": toPublicUser(user)})
	}
}

func (s *Server) UnlinkLichessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Registry.Unlink(r.Context(), r.PathValue("username"))
		if err != nil {
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]any{"user": toPublicUser(user)})
	}
}

// DuelsMatrixHandler serves the matrix. force=1 runs a pass first; snapshot=1 skips syncing.
func (s *Server) DuelsMatrixHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		view, err := s.Syncer.Matrix(r.Context(), duels.MatrixOptions{
			Force:    isTruthy(q.Get("force")),
			Snapshot: isTruthy(q.Get("snapshot")),
		})
		if err != nil {
			log.Error("Failed to build duels matrix", "error", err)
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, view)
	}
}

func (s *Server) SyncDuelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Syncer.SyncIfNeeded(r.Context(), isTruthy(r.URL.Query().Get("force")))
		if err != nil {
			log.Error("Duels sync failed", "error", err)
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, res)
	}
}

// AnnounceStandingsHandler posts the current standings without syncing first.
func (s *Server) AnnounceStandingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Syncer.Matrix(r.Context(), duels.MatrixOptions{Snapshot: true})
		if err != nil {
			respondWithError(w, err)
			return
		}
		if err := s.Notifier.SendStandings(view, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to announce standings", "error", err)
			respondWithJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to send standings"})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (s *Server) ListChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := s.Chat.List(r.Context())
		if err != nil {
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]any{"messages": messages})
	}
}

func (s *Server) PostChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeBody(w, r, &req) {
			return
		}
		msg, messages, err := s.Chat.Post(r.Context(), req.Username, req.Text)
		if err != nil {
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, map[string]any{"ok": true, "message": msg, "messages": messages})
	}
}

// PubSubSyncHandler receives SyncRequest messages from a Pub/Sub push subscription.
// A non-2xx answer makes Pub/Sub redeliver, so only persistence failures return one.
func (s *Server) PubSubSyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		log.Debug("Received sync request message", "body", string(bodyBytes))

		var pushMsg pushRequest
		if err := json.Unmarshal(bodyBytes, &pushMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		// Decode base64 to raw MessagePack bytes
		rawData, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		var req pubsub.SyncRequest
		if len(rawData) > 0 {
			if err := s.pubsub.ProcessMessage(rawData, &req); err != nil {
				http.Error(w, "Invalid message payload", http.StatusBadRequest)
				return
			}
		}

		res, err := s.Syncer.SyncIfNeeded(r.Context(), req.Force)
		if err != nil {
			log.Error("Sync triggered by pubsub failed", "error", err, "messageId", pushMsg.Message.MessageID)
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, res)
	}
}

// decodeBody reads a JSON request body into v, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug("Rejected request body", "error", err)
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response to JSON", "error", err)
	}
}

// respondWithError maps domain errors to HTTP statuses. Unknown errors are
// reported as 500 without their message.
func respondWithError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	respondWithJSON(w, status, errorResponse{Error: msg})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrInvalidUsername),
		errors.Is(err, registry.ErrInvalidHandle),
		errors.Is(err, lichess.ErrMissingToken),
		errors.Is(err, lichess.ErrInvalidToken),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrUserNotFound),
		errors.Is(err, chat.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrUsernameTaken),
		errors.Is(err, registry.ErrLichessLinked):
		return http.StatusConflict
	case errors.Is(err, lichess.ErrUnexpectedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
