package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dicehall/internal/app/public"
	"dicehall/internal/invite"
	"dicehall/internal/token"
)

type RoomHandlers struct {
	svc *public.Service
}

func NewRoomHandlers(svc *public.Service) *RoomHandlers {
	return &RoomHandlers{svc: svc}
}

// writeServiceError maps service sentinels to status + code. Token failures
// each get a distinct code so clients can tell "ask for a new link" apart
// from "this link was never valid".
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, public.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, public.ErrRoomNotFound):
		WriteHTTPError(w, http.StatusNotFound, "room_not_found")
	case errors.Is(err, public.ErrForbidden):
		WriteHTTPError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, invite.ErrRevoked):
		WriteHTTPError(w, http.StatusUnauthorized, "token_revoked")
	case errors.Is(err, invite.ErrRoomMismatch):
		WriteHTTPError(w, http.StatusUnauthorized, "token_room_mismatch")
	case errors.Is(err, token.ErrExpired):
		WriteHTTPError(w, http.StatusUnauthorized, "token_expired")
	case errors.Is(err, token.ErrTampered):
		WriteHTTPError(w, http.StatusUnauthorized, "token_tampered")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

func (h *RoomHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerCount int    `json:"player_count"`
			DisplayName string `json:"display_name"`
			PlayerID    string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		resp, err := h.svc.CreateRoom(req.PlayerCount, req.DisplayName, req.PlayerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RoomHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code  string `json:"code"`
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		resp, err := h.svc.Join(req.Code, req.Token)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RoomHandlers) RefreshInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		resp, err := h.svc.RefreshInvite(chi.URLParam(r, "room_id"), req.PlayerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RoomHandlers) Rejoin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Rejoin(chi.URLParam(r, "room_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RoomHandlers) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Summary(chi.URLParam(r, "room_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RoomHandlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		resp, err := h.svc.History(q["players"], ParseLimit(r), q.Get("mode"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *RoomHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
