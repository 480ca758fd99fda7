package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"telecare/internal/appointment"
	"telecare/internal/chat"
	"telecare/internal/config"
	"telecare/internal/db"
	appmw "telecare/internal/middleware"
	"telecare/internal/realtime"
	"telecare/internal/user"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "telecare-server",
		Short: "Telehealth chat and presence API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			database, err := db.NewDatabase(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.AutoMigrate(); err != nil {
				return err
			}
			log.Info().Msg("database schema applied")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			database, err := db.NewDatabase(cfg.DatabaseURL)
			if err != nil {
				log.Error().Err(err).Msg("failed to connect to postgres")
				return err
			}
			defer database.Close()
			log.Info().Msg("connected to postgres")

			if err := database.AutoMigrate(); err != nil {
				log.Error().Err(err).Msg("migration failed")
				return err
			}

			redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
				log.Error().Err(err).Msg("failed to connect to redis")
				return err
			}
			log.Info().Msg("connected to redis")

			// User directory + identity bridge.
			userRepo := user.NewRepoPG(database.Conn)
			userService := user.NewService(userRepo, cfg.JWTSecret)
			userHandler := user.NewHandler(userService, log)

			// Realtime transport.
			authorizer := realtime.NewAuthorizer(cfg.RealtimeAppKey, cfg.RealtimeAppSecret, userService)
			hub := realtime.NewHub(redisClient, authorizer, log)
			rtHandler := realtime.NewHandler(hub, authorizer, log)

			hubCtx, stopHub := context.WithCancel(context.Background())
			defer stopHub()
			go hub.Run(hubCtx)

			// Chat: room directory + message store & relay.
			chatRepo := chat.NewRepoPG(database.Conn)
			chatService := chat.NewService(chatRepo, userService, hub, log)
			chatHandler := chat.NewHandler(chatService, log)

			// Appointments.
			apptRepo := appointment.NewRepoPG(database.Conn)
			apptService := appointment.NewService(apptRepo, userService, log)
			apptHandler := appointment.NewHandler(apptService, log)

			authMiddleware := appmw.NewAuthMiddleware(userService)

			r := chi.NewRouter()
			r.Use(chimw.RequestID)
			r.Use(requestLogger(log))
			r.Use(chimw.Recoverer)

			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Handle)

				r.Get("/ws", rtHandler.ServeWs)
				r.Post("/realtime/auth", rtHandler.AuthorizeChannel)

				r.Get("/api/users/me", userHandler.Me)
				r.Get("/api/users/search", userHandler.SearchUsers)

				r.Route("/api/appointments", apptHandler.Routes)
				r.Route("/api/chat", chatHandler.Routes)
			})

			srv := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: r,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("server starting")
				errCh <- srv.ListenAndServe()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("latency", time.Since(start)).
				Str("remote_ip", r.RemoteAddr).
				Msg("request")
		})
	}
}
