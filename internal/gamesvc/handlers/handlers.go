package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"

	"github.com/skygames/skyjack-services/internal/gamesvc/broker"
	"github.com/skygames/skyjack-services/internal/gamesvc/service"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	rooms     *service.RoomService
	actions   *service.ActionService
	phases    *service.PhaseService
	broker    *broker.Broker
}

func NewHandler(rooms *service.RoomService, actions *service.ActionService, phases *service.PhaseService, b *broker.Broker) *Handler {
	return &Handler{
		rooms:   rooms,
		actions: actions,
		phases:  phases,
		broker:  b,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	h.CreateResponse(w, Response{
		Code:  statusFor(err),
		Error: err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCapacity),
		errors.Is(err, service.ErrPreconditionFailed):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidPhase),
		errors.Is(err, service.ErrOutOfOrder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}
