package removebackground

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"satura-server/modules/common/config"
	"satura-server/modules/common/fal"
)

type Service struct {
	fal *fal.Client
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		fal: fal.NewClient(fal.Options{
			Key:          cfg.FalKey,
			QueueURL:     cfg.FalQueueURL,
			PollInterval: cfg.FalPollInterval,
		}),
	}
}

// RemoveBackground - fal queue 에 작업 제출 후 완료까지 대기
// 결과 객체에 requestId 를 합쳐서 반환
func (s *Service) RemoveBackground(ctx context.Context, videoURL string, subjectIsPerson bool) (map[string]json.RawMessage, error) {
	input := FalRemoveBackgroundInput{
		VideoURL:                videoURL,
		OutputContainerAndCodec: "webm_vp9",
		RefineForegroundEdges:   true,
		SubjectIsPerson:         subjectIsPerson,
	}

	log.Info().
		Str("video_url", videoURL).
		Bool("subject_is_person", subjectIsPerson).
		Msg("🎬 [RemoveBackground] Submitting job")

	result, err := s.fal.Subscribe(ctx, Model, input)
	if err != nil {
		return nil, err
	}

	return mergeRequestID(result.Data, result.RequestID)
}

func mergeRequestID(data json.RawMessage, requestID string) (map[string]json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &merged); err != nil {
			return nil, fmt.Errorf("unexpected fal result payload: %w", err)
		}
	}

	id, err := json.Marshal(requestID)
	if err != nil {
		return nil, err
	}
	merged["requestId"] = id
	return merged, nil
}
