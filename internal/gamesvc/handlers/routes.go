package handlers

import (
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes
		r.Get("/health", h.HealthHandler)

		r.Post("/rooms", h.CreateRoomHandler)
		r.Route("/rooms/{code}", func(r chi.Router) {
			r.Get("/", h.RoomViewHandler)
			r.Post("/join", h.JoinRoomHandler)
			r.Post("/leave", h.LeaveRoomHandler)
			r.Post("/ready", h.ToggleReadyHandler)
			r.Post("/start", h.StartGameHandler)
			r.Post("/vehicle", h.SelectVehicleHandler)
			r.Post("/card", h.SelectCardHandler)
		})

		// operator routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Route("/admin/rooms/{code}", func(r chi.Router) {
				r.Post("/advance", h.AdvancePhaseHandler)
				r.Post("/phase", h.ForcePhaseHandler)
				r.Post("/reset", h.ResetRoomHandler)
				r.Delete("/", h.DeleteRoomHandler)
			})
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": 8003022,
		"exp":        expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: operator JWT for testing : %s", tokenString)
}
