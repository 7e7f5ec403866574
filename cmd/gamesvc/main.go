package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/skygames/skyjack-services/configs"
	"github.com/skygames/skyjack-services/internal/db"
	"github.com/skygames/skyjack-services/internal/gamesvc/archive"
	"github.com/skygames/skyjack-services/internal/gamesvc/broker"
	gamecfg "github.com/skygames/skyjack-services/internal/gamesvc/config"
	pgdb "github.com/skygames/skyjack-services/internal/gamesvc/db"
	handlers "github.com/skygames/skyjack-services/internal/gamesvc/handlers"
	"github.com/skygames/skyjack-services/internal/gamesvc/service"
	"github.com/skygames/skyjack-services/internal/gamesvc/store"
	"github.com/skygames/skyjack-services/internal/gamesvc/store/mem"
	"github.com/skygames/skyjack-services/internal/gamesvc/store/pg"
	nats "github.com/skygames/skyjack-services/internal/nats"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := gamecfg.Load()

	// durable backend; the in-memory fallback covers a failed connect
	var primary store.Store
	dbpool, err := pgdb.Connect(cfg.DBUrl)
	if err != nil {
		log.Warnf("pg connection failed, running on in-memory store only: %v", err)
	} else {
		defer pgdb.ClosePool()
		primary = pg.New(dbpool)
		log.Printf("pg connection established successfully")
	}
	router := store.NewRouter(primary, mem.New())

	timers := service.NewRoomTimers()
	roomService := service.NewRoomService(router, timers)
	actionService := service.NewActionService(router)
	phaseService := service.NewPhaseService(router, actionService, timers, service.Durations{
		Airplane:   time.Duration(cfg.AirplaneSeconds) * time.Second,
		Discussion: time.Duration(cfg.DiscussSeconds) * time.Second,
		CardSelect: time.Duration(cfg.CardSeconds) * time.Second,
		Results:    time.Duration(cfg.ResultsSeconds) * time.Second,
	})

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn)
	phaseService.SetNotifier(b)

	// finished-game archive, optional
	if mongoURI := os.Getenv("MONGODB_URI"); mongoURI != "" {
		mongoDB, cancelMongo, err := db.ConnectToDB(mongoURI)
		if err != nil {
			log.Warnf("mongo connection failed, finished games will not be archived: %v", err)
		} else {
			defer cancelMongo()
			phaseService.SetArchiver(archive.New(mongoDB))
			log.Printf("mongo connection established successfully")
		}
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(roomService, actionService, phaseService, b)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("GAME_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
