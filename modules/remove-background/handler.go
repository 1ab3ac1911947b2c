package removebackground

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"satura-server/modules/common/fal"
	"satura-server/modules/common/response"
)

const fallbackErrorMessage = "Background removal failed."

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/remove-background", h.HandleRemoveBackground).Methods("POST", "OPTIONS")
}

// HandleRemoveBackground - POST /api/remove-background
// fal 작업이 끝날 때까지 요청이 블록됨
func (h *Handler) HandleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	req := response.DecodeLenient[RemoveBackgroundRequest](r.Body)

	videoURL := strings.TrimSpace(req.VideoURL)
	if videoURL == "" {
		response.Error(w, http.StatusBadRequest, "Video URL is required.")
		return
	}

	result, err := h.service.RemoveBackground(r.Context(), videoURL, req.IsPerson())
	if err != nil {
		if errors.Is(err, fal.ErrMissingKey) {
			log.Error().Msg("❌ [RemoveBackground] FAL_KEY is not configured")
			response.Error(w, http.StatusInternalServerError, "FAL_KEY is not configured.")
			return
		}

		log.Error().Err(err).Str("video_url", videoURL).Msg("❌ [RemoveBackground] Job failed")
		message := err.Error()
		if strings.TrimSpace(message) == "" {
			message = fallbackErrorMessage
		}
		response.Error(w, http.StatusInternalServerError, message)
		return
	}

	log.Info().Msg("✅ [RemoveBackground] Job completed")
	response.JSON(w, http.StatusOK, result)
}
