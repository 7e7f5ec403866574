package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/skygames/skyjack-services/internal/comm"
)

// Operator surface: force-advance, raw phase override, reset and delete.
// All of these sit behind the JWT verifier.

func (h *Handler) AdvancePhaseHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.phases.Advance(r.Context(), code); err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK})
}

func (h *Handler) ForcePhaseHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	if err := h.phases.ForcePhase(r.Context(), code, req.Phase); err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK})
}

func (h *Handler) ResetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.rooms.ResetRoom(r.Context(), code); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.broker.RoomEvent(code, comm.EventPhaseChanged)
	h.CreateResponse(w, Response{Code: http.StatusOK})
}

func (h *Handler) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.rooms.DeleteRoom(r.Context(), code); err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK})
}
