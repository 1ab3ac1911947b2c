package projectdownload

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"satura-server/modules/common/auth"
	"satura-server/modules/common/metrics"
	"satura-server/modules/common/response"
)

type Handler struct {
	service *Service
	auth    auth.Authenticator
}

func NewHandler(service *Service, authenticator auth.Authenticator) *Handler {
	return &Handler{
		service: service,
		auth:    authenticator,
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/projects/download", h.HandleDownload).Methods("GET", "OPTIONS")
}

// HandleDownload - GET /api/projects/download?id=<project id>&disposition=inline|attachment
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	query := r.URL.Query()
	projectID := strings.TrimSpace(query.Get("id"))
	if projectID == "" {
		response.Error(w, http.StatusBadRequest, "Project id is required.")
		return
	}

	user, err := h.auth.Authenticate(r)
	if err != nil || user == nil {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	download, err := h.service.FetchDownload(r.Context(), projectID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileNotFound):
			response.Error(w, http.StatusNotFound, "File not found.")
		default:
			response.Error(w, http.StatusNotFound, "Project not found.")
		}
		return
	}

	disposition := Disposition(query.Get("disposition"))

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, download.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(download.Data); err != nil {
		log.Warn().Err(err).Str("project_id", projectID).Msg("⚠️ [ProjectDownload] Client write failed")
		return
	}

	metrics.RecordDownload(download.ContentType, len(download.Data))
	log.Info().
		Str("project_id", projectID).
		Str("user_id", user.ID).
		Int("bytes", len(download.Data)).
		Str("disposition", disposition).
		Msg("📦 [ProjectDownload] Served project output")
}
