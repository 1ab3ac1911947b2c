package generateimage

import (
	"context"

	"github.com/rs/zerolog/log"

	"satura-server/modules/common/config"
	"satura-server/modules/common/fal"
)

type Service struct {
	fal      *fal.Client
	endpoint string
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		fal:      fal.NewClient(fal.Options{Key: cfg.FalKey}),
		endpoint: cfg.FalImageEndpoint,
	}
}

// GenerateImage - fal.ai 로 이미지 생성 요청, 응답 JSON 그대로 반환
func (s *Service) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	input := FalImageInput{
		Prompt:              prompt,
		AspectRatio:         aspectRatio,
		NumImages:           1,
		OutputFormat:        "png",
		EnableSafetyChecker: true,
	}

	log.Info().
		Str("prompt", truncateString(prompt, 50)).
		Str("aspect_ratio", aspectRatio).
		Msg("🎨 [GenerateImage] Forwarding to fal")

	return s.fal.Run(ctx, s.endpoint, input)
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
