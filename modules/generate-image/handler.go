package generateimage

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"satura-server/modules/common/fal"
	"satura-server/modules/common/response"
)

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
	r.HandleFunc("/api/generate-image", h.HandleGenerate).Methods("POST", "OPTIONS")
}

// HandleGenerate - POST /api/generate-image
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	req := response.DecodeLenient[GenerateImageRequest](r.Body)

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		response.Error(w, http.StatusBadRequest, "Prompt is required.")
		return
	}
	aspectRatio := NormalizeAspectRatio(req.AspectRatio)

	body, err := h.service.GenerateImage(r.Context(), prompt, aspectRatio)
	if err != nil {
		var upstreamErr *fal.UpstreamError
		switch {
		case errors.Is(err, fal.ErrMissingKey):
			log.Error().Msg("❌ [GenerateImage] FAL_KEY is not configured")
			response.Error(w, http.StatusInternalServerError, "FAL_KEY is not configured.")
		case errors.As(err, &upstreamErr):
			log.Warn().Int("status", upstreamErr.StatusCode).Msg("⚠️ [GenerateImage] Upstream error")
			response.Error(w, upstreamErr.StatusCode, upstreamErr.Error())
		default:
			log.Error().Err(err).Msg("❌ [GenerateImage] Generation failed")
			response.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.Raw(w, http.StatusOK, body)
}
