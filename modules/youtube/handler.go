package youtube

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"satura-server/modules/common/auth"
	"satura-server/modules/common/redis"
	"satura-server/modules/common/response"
)

type Handler struct {
	service *Service
	auth    auth.Authenticator
	siteURL string
}

func NewHandler(service *Service, authenticator auth.Authenticator, siteURL string) *Handler {
	return &Handler{
		service: service,
		auth:    authenticator,
		siteURL: strings.TrimRight(siteURL, "/"),
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/youtube/connect", h.HandleConnect).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/youtube/callback", h.HandleCallback).Methods("GET")
	r.HandleFunc("/api/youtube/channel", h.HandleChannel).Methods("GET", "OPTIONS")
}

// HandleConnect - GET /api/youtube/connect[?redirect=1]
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, err := h.auth.Authenticate(r)
	if err != nil || user == nil {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	authURL, err := h.service.StartConnection(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("❌ [YouTube] Failed to start connection")
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, authURL, http.StatusFound)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"url": authURL})
}

// HandleCallback - GET /api/youtube/callback?code=...&state=...
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if oauthErr := query.Get("error"); oauthErr != "" {
		log.Warn().Str("error", oauthErr).Msg("⚠️ [YouTube] Consent denied or failed")
		response.Error(w, http.StatusBadRequest, oauthErr)
		return
	}

	code := strings.TrimSpace(query.Get("code"))
	state := strings.TrimSpace(query.Get("state"))
	if code == "" || state == "" {
		response.Error(w, http.StatusBadRequest, "Missing code or state.")
		return
	}

	userID, err := h.service.ConsumeState(r.Context(), state)
	if err != nil {
		if !errors.Is(err, redis.ErrStateNotFound) {
			log.Error().Err(err).Msg("❌ [YouTube] State lookup failed")
		}
		response.Error(w, http.StatusBadRequest, "Invalid or expired state.")
		return
	}

	if err := h.service.CompleteConnection(r.Context(), userID, code); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("❌ [YouTube] Failed to complete connection")
		http.Redirect(w, r, h.dashboardURL("error"), http.StatusFound)
		return
	}

	http.Redirect(w, r, h.dashboardURL("connected"), http.StatusFound)
}

// HandleChannel - GET /api/youtube/channel
func (h *Handler) HandleChannel(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, err := h.auth.Authenticate(r)
	if err != nil || user == nil {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	channel, err := h.service.Channel(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConnected):
			response.Error(w, http.StatusNotFound, "YouTube is not connected.")
		case errors.Is(err, ErrChannelNotFound):
			response.Error(w, http.StatusNotFound, "YouTube channel not found.")
		default:
			log.Error().Err(err).Str("user_id", user.ID).Msg("❌ [YouTube] Failed to load channel")
			response.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.JSON(w, http.StatusOK, channel)
}

func (h *Handler) dashboardURL(status string) string {
	return h.siteURL + "/dashboard?youtube=" + url.QueryEscape(status)
}
