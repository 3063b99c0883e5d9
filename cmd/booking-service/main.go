package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ride-booking/internal/booking/consumer"
	"ride-booking/internal/booking/domain"
	"ride-booking/internal/booking/engine"
	"ride-booking/internal/booking/handler"
	"ride-booking/internal/booking/messaging"
	"ride-booking/internal/booking/store"
	"ride-booking/pkg/auth"
	"ride-booking/pkg/config"
	"ride-booking/pkg/db"
	"ride-booking/pkg/logger"
	"ride-booking/pkg/rabbitmq"
	"ride-booking/pkg/websocket"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.NewLogger("booking-service")
	log.Info("service_starting", fmt.Sprintf("Booking Service starting on port %d", cfg.HTTP.Port))

	// Select the durable store backend
	st, cleanup, err := buildStore(cfg, log)
	if err != nil {
		log.Error("store_init_failed", err)
		os.Exit(1)
	}
	defer cleanup()

	// RabbitMQ is optional for a purely local run
	var rabbit *rabbitmq.Connection
	var publisher engine.EventPublisher
	if cfg.RabbitMQ.Enabled {
		rabbit, err = rabbitmq.NewConnection(cfg, log)
		if err != nil {
			log.Error("rabbitmq_connect_failed", err)
			os.Exit(1)
		}
		defer rabbit.Close()
		publisher = messaging.NewRabbitMQEventPublisher(rabbit, log)
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, 24*time.Hour)

	// Initialize WebSocket manager
	wsManager := websocket.NewManager(log)

	// Initialize the booking engine and load persisted history
	eng := engine.New(st, log, publisher)
	ctx := context.Background()
	if err := eng.LoadHistory(ctx); err != nil {
		var corrupt *domain.CorruptDataError
		if errors.As(err, &corrupt) {
			// Recovery policy: surface and start with an empty history,
			// leaving the stored blob untouched for inspection.
			log.Error("history_corrupt", err)
		} else {
			log.Error("history_load_failed", err)
			os.Exit(1)
		}
	}

	// Initialize handler
	h := handler.New(eng, log)

	// Start the driver update relay when a broker is wired
	if rabbit != nil {
		bookingConsumer := consumer.New(rabbit, log, wsManager)
		if err := bookingConsumer.StartConsuming(ctx); err != nil {
			log.Error("consumer_start_failed", err)
			os.Exit(1)
		}
	}

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)

	// Token issuance stands in for the mock OTP login collaborator
	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		h.GenerateToken(w, r, jwtManager)
	})

	// Protected endpoints - require JWT authentication
	protected := func(hf http.HandlerFunc) http.Handler {
		return jwtManager.AuthMiddleware(hf)
	}
	mux.Handle("POST /bookings", protected(h.CreateBooking))
	mux.Handle("GET /bookings", protected(h.GetHistory))
	mux.Handle("GET /bookings/stats", protected(h.GetStats))
	mux.Handle("GET /bookings/current", protected(h.GetCurrentBooking))
	mux.Handle("DELETE /bookings/current", protected(h.ClearCurrentBooking))
	mux.Handle("POST /bookings/{booking_id}/complete", protected(h.CompleteBooking))
	mux.Handle("POST /bookings/{booking_id}/cancel", protected(h.CancelBooking))
	mux.Handle("PATCH /bookings/{booking_id}/status", protected(h.UpdateBookingStatus))

	// WebSocket endpoint for riders
	mux.HandleFunc("GET /ws/riders/{rider_id}", func(w http.ResponseWriter, r *http.Request) {
		riderID := r.PathValue("rider_id")
		if riderID == "" {
			http.Error(w, "rider_id is required", http.StatusBadRequest)
			return
		}

		riderWsHandler := websocket.NewHandler(
			log,
			jwtManager,
			func(conn *websocket.Connection) {
				// The JWT user must match the URL rider_id
				if conn.Claims.UserID != riderID {
					log.WithFields(logger.LogFields{
						"url_rider_id": riderID,
						"jwt_user_id":  conn.Claims.UserID,
					}).Error("websocket_rider_id_mismatch", fmt.Errorf("rider_id mismatch"))
					conn.Close()
					return
				}

				wsManager.AddConnection(riderID, conn)

				// Riders mostly receive; inbound messages are just logged.
				conn.ReadPump(
					func(msgType int, p []byte) {
						log.WithFields(logger.LogFields{
							"rider_id": riderID,
							"message":  string(p),
						}).Debug("rider_ws_message", "Message from rider")
					},
					func() {
						wsManager.RemoveConnection(riderID)
					},
				)
			},
			auth.RoleRider,
		)

		riderWsHandler.ServeHTTP(w, r)
	})

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", err)
			os.Exit(1)
		}
	}()

	log.Info("server_running", fmt.Sprintf("Booking Service running on :%d", cfg.HTTP.Port))

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server_shutdown", "Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	log.Info("server_stopped", "Server stopped gracefully")
}

// buildStore constructs the configured store backend. The returned cleanup
// releases any underlying connection pool.
func buildStore(cfg *config.Config, log logger.Logger) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(), noop, nil

	case "file":
		fs, err := store.NewFile(cfg.Store.FileDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil

	case "postgres":
		pool, err := db.NewConnection(cfg, log)
		if err != nil {
			return nil, noop, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return pg, pool.Close, nil

	case "redis":
		client := store.NewRedisClient(cfg)
		if err := store.Ping(context.Background(), client); err != nil {
			client.Close()
			return nil, noop, err
		}
		return store.NewRedis(client), func() { client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
