package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"github.com/skygames/skyjack-services/internal/comm"
)

type joinRequest struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	room, host, err := h.rooms.CreateRoom(r.Context(), req.UserID, req.Name)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Code: http.StatusCreated,
		Data: map[string]interface{}{"room": room, "player": host},
	})
}

func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	player, err := h.rooms.JoinRoom(r.Context(), code, req.UserID, req.Name)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.broker.ActorEvent(code, comm.EventPlayerJoined, req.UserID, req.Name)
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: player})
}

func (h *Handler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	if err := h.rooms.LeaveRoom(r.Context(), code, req.UserID); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.broker.ActorEvent(code, comm.EventPlayerLeft, req.UserID, req.Name)
	h.CreateResponse(w, Response{Code: http.StatusOK})
}

// RoomViewHandler is the canonical synchronous fetch. Notifications carry
// no state, so clients call this after every relayed event.
func (h *Handler) RoomViewHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)

	view, err := h.rooms.View(r.Context(), code, userID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: view})
}

func (h *Handler) ToggleReadyHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	ready, err := h.actions.ToggleReady(r.Context(), code, req.UserID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.broker.ActorEvent(code, comm.EventPlayerReady, req.UserID, req.Name)
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: map[string]bool{"ready": ready}})
}

func (h *Handler) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	if err := h.phases.StartGame(r.Context(), code, req.UserID); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK})
}

type vehicleRequest struct {
	UserID    int64 `json:"user_id"`
	Round     int   `json:"round"`
	VehicleNo int   `json:"vehicle_no"`
}

func (h *Handler) SelectVehicleHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	if err := h.actions.SelectVehicle(r.Context(), code, req.UserID, req.Round, req.VehicleNo); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.broker.ActorEvent(code, comm.EventActionOccurred, req.UserID, "")
	h.afterAction(r, code)
	h.CreateResponse(w, Response{Code: http.StatusOK})
}

type cardRequest struct {
	UserID int64 `json:"user_id"`
	Round  int   `json:"round"`
	CardID int64 `json:"card_id"`
}

func (h *Handler) SelectCardHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	if err := h.actions.SelectCard(r.Context(), code, req.UserID, req.Round, req.CardID); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.broker.ActorEvent(code, comm.EventActionOccurred, req.UserID, "")
	h.afterAction(r, code)
	h.CreateResponse(w, Response{Code: http.StatusOK})
}

// afterAction checks the all-acted condition; the phase machine's CAS keeps
// a race with the phase timer down to a single transition.
func (h *Handler) afterAction(r *http.Request, code string) {
	if err := h.phases.AutoAdvance(r.Context(), code); err != nil {
		log.Errorf("auto-advance room %s: %v", code, err)
	}
}
