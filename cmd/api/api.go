package api

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/adjoaboateng/CareerHub-server/service/booking"
	"github.com/adjoaboateng/CareerHub-server/service/event"
	"github.com/adjoaboateng/CareerHub-server/service/expert"
	"github.com/adjoaboateng/CareerHub-server/service/job"
	"github.com/adjoaboateng/CareerHub-server/service/notification"
	"github.com/adjoaboateng/CareerHub-server/service/user"
	"github.com/adjoaboateng/CareerHub-server/service/ws"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	hub := ws.NewHub()
	go hub.Run()

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(subrouter)

	notificationHandler := notification.NewNotificationHandler(s.db, hub)
	notificationHandler.RegisterRoutes(subrouter)

	bookingHandler := booking.NewBookingHandler(s.db, hub)
	bookingHandler.RegisterRoutes(subrouter)

	expertHandler := expert.NewExpertHandler(s.db)
	expertHandler.RegisterRoutes(subrouter)

	jobHandler := job.NewJobHandler(s.db, notificationHandler)
	jobHandler.RegisterRoutes(subrouter)

	eventHandler := event.NewEventHandler(s.db, notificationHandler)
	eventHandler.RegisterRoutes(subrouter)

	wsHandler := ws.NewWSHandler(hub)
	wsHandler.RegisterRoutes(router)

	allowedOrigins := []string{"*"}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(router)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, corsHandler)
}
