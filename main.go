package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"satura-server/modules/common/auth"
	"satura-server/modules/common/config"
	"satura-server/modules/common/database"
	"satura-server/modules/common/logger"
	"satura-server/modules/common/metrics"
	"satura-server/modules/common/redis"
	"satura-server/modules/common/storage"
	generateimage "satura-server/modules/generate-image"
	projectdownload "satura-server/modules/project-download"
	removebackground "satura-server/modules/remove-background"
	"satura-server/modules/youtube"
)

const requestIDHeader = "X-Request-ID"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 요청 ID 부여 (있으면 재사용)
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := log.With().Str("request_id", id).Logger().WithContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "satura-server",
	})
}

// newRouter - 라우터 + 모듈 핸들러 등록
func newRouter(cfg *config.Config, db *database.Client, rdb *goredis.Client) *mux.Router {
	r := mux.NewRouter()

	r.Use(requestID)
	r.Use(enableCORS)
	r.Use(metrics.Middleware)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	authenticator := auth.New(cfg, db)

	// Generate Image 모듈
	generateimage.NewHandler(generateimage.NewService(cfg)).RegisterRoutes(r)

	// Remove Background 모듈
	removebackground.NewHandler(removebackground.NewService(cfg)).RegisterRoutes(r)

	// Project Download 모듈
	objects := storage.NewClient(db, cfg.SupabaseURL)
	projectdownload.NewHandler(projectdownload.NewService(db, objects), authenticator).RegisterRoutes(r)

	// YouTube 모듈
	youtubeService := youtube.NewService(youtube.NewOAuth(cfg), redis.NewStateStore(rdb), db, cfg.YoutubeAPIEndpoint)
	youtube.NewHandler(youtubeService, authenticator, cfg.SiteURL).RegisterRoutes(r)

	return r
}

func runServer(ctx context.Context) error {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Setup(cfg)

	db, err := database.NewClient(cfg)
	if err != nil {
		return err
	}

	rdb, err := redis.Connect(cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, db, rdb),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("🚀 Satura server starting")
		log.Info().Msgf("❤️  Health check: http://localhost:%s/health", cfg.Port)
		log.Info().Msgf("📊 Metrics: http://localhost:%s/metrics", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("🛑 Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
