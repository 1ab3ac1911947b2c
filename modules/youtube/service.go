package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"satura-server/modules/common/database"
	"satura-server/modules/common/metrics"
	"satura-server/modules/common/model"
)

// StateTTL - OAuth state 유효 시간
const StateTTL = 10 * time.Minute

var (
	ErrNotConnected    = errors.New("youtube is not connected")
	ErrChannelNotFound = errors.New("youtube channel not found")
)

// StateStore - state → user id (일회용)
type StateStore interface {
	Save(ctx context.Context, state, userID string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (string, error)
}

// ConnectionStore - youtube_connections 테이블
type ConnectionStore interface {
	FetchYoutubeConnection(ctx context.Context, userID string) (*model.YoutubeConnection, error)
	UpsertYoutubeConnection(ctx context.Context, conn *model.YoutubeConnection) error
}

// ChannelSummary - GET /api/youtube/channel 응답
type ChannelSummary struct {
	ChannelID       string `json:"channelId"`
	Title           string `json:"title"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	SubscriberCount uint64 `json:"subscriberCount"`
	ViewCount       uint64 `json:"viewCount"`
	VideoCount      uint64 `json:"videoCount"`
}

type Service struct {
	oauth       *OAuth
	states      StateStore
	connections ConnectionStore
	apiEndpoint string
	now         func() time.Time
}

func NewService(oauth *OAuth, states StateStore, connections ConnectionStore, apiEndpoint string) *Service {
	return &Service{
		oauth:       oauth,
		states:      states,
		connections: connections,
		apiEndpoint: strings.TrimSpace(apiEndpoint),
		now:         time.Now,
	}
}

// StartConnection - state 발급 후 Google 인증 URL 반환
func (s *Service) StartConnection(ctx context.Context, userID string) (string, error) {
	state := uuid.NewString()

	authURL, err := s.oauth.GetYoutubeOAuthURL(AuthURLParams{State: state})
	if err != nil {
		return "", err
	}

	if err := s.states.Save(ctx, state, userID, StateTTL); err != nil {
		return "", fmt.Errorf("failed to save oauth state: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("🔗 [YouTube] Connection started")
	return authURL, nil
}

// ConsumeState - callback state 검증 (일회용)
func (s *Service) ConsumeState(ctx context.Context, state string) (string, error) {
	return s.states.Consume(ctx, state)
}

// CompleteConnection - code 교환 후 youtube_connections 저장
func (s *Service) CompleteConnection(ctx context.Context, userID, code string) error {
	tokens, err := s.oauth.ExchangeCodeForTokens(ctx, code, "")
	if err != nil {
		return err
	}

	conn := &model.YoutubeConnection{UserID: userID}
	s.applyTokens(conn, tokens)

	if err := s.connections.UpsertYoutubeConnection(ctx, conn); err != nil {
		return err
	}

	log.Info().Str("user_id", userID).Msg("✅ [YouTube] Connection saved")
	return nil
}

// Channel - 연결된 채널 요약 조회 (만료된 토큰은 갱신 후 저장)
func (s *Service) Channel(ctx context.Context, userID string) (*ChannelSummary, error) {
	conn, err := s.connections.FetchYoutubeConnection(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, err
	}

	if conn.Expired(s.now()) {
		if err := s.refresh(ctx, conn); err != nil {
			return nil, err
		}
	}

	return s.fetchChannel(ctx, conn.AccessToken)
}

func (s *Service) refresh(ctx context.Context, conn *model.YoutubeConnection) error {
	if strings.TrimSpace(conn.RefreshToken) == "" {
		return fmt.Errorf("%w: access token expired and no refresh token stored", ErrNotConnected)
	}

	tokens, err := s.oauth.RefreshAccessToken(ctx, conn.RefreshToken)
	if err != nil {
		return err
	}
	s.applyTokens(conn, tokens)

	if err := s.connections.UpsertYoutubeConnection(ctx, conn); err != nil {
		return err
	}

	log.Info().Str("user_id", conn.UserID).Msg("🔄 [YouTube] Access token refreshed and saved")
	return nil
}

// applyTokens - 새 refresh token 이 없으면 기존 값 유지
func (s *Service) applyTokens(conn *model.YoutubeConnection, tokens *TokenResponse) {
	now := s.now().UTC()
	conn.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		conn.RefreshToken = tokens.RefreshToken
	}
	if tokens.Scope != "" {
		conn.Scope = tokens.Scope
	}
	if tokens.TokenType != "" {
		conn.TokenType = tokens.TokenType
	}
	conn.ExpiresAt = now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
	conn.UpdatedAt = now
}

func (s *Service) fetchChannel(ctx context.Context, accessToken string) (*ChannelSummary, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if s.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(s.apiEndpoint))
	}

	svc, err := youtubeapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	start := time.Now()
	resp, err := svc.Channels.List([]string{"snippet", "statistics"}).Mine(true).Context(ctx).Do()
	metrics.RecordUpstream("youtube", "channels_list", err, start)
	if err != nil {
		return nil, fmt.Errorf("youtube channels.list failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, ErrChannelNotFound
	}

	return summarize(resp.Items[0]), nil
}

func summarize(channel *youtubeapi.Channel) *ChannelSummary {
	summary := &ChannelSummary{ChannelID: channel.Id}
	if channel.Snippet != nil {
		summary.Title = channel.Snippet.Title
		summary.ThumbnailURL = thumbnailURL(channel.Snippet.Thumbnails)
	}
	if channel.Statistics != nil {
		summary.SubscriberCount = channel.Statistics.SubscriberCount
		summary.ViewCount = channel.Statistics.ViewCount
		summary.VideoCount = channel.Statistics.VideoCount
	}
	return summary
}

// 큰 썸네일 우선
func thumbnailURL(thumbnails *youtubeapi.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}
	for _, t := range []*youtubeapi.Thumbnail{thumbnails.High, thumbnails.Medium, thumbnails.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}
