package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/supabase-community/supabase-go"

	"satura-server/modules/common/config"
	"satura-server/modules/common/metrics"
	"satura-server/modules/common/model"
)

const (
	tableProjects           = "projects"
	tableYoutubeConnections = "youtube_connections"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성 (service key 사용)
func NewClient(cfg *config.Config) (*Client, error) {
	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Client{
		supabase: supabaseClient,
	}, nil
}

// Supabase exposes the underlying client for the storage and auth adapters.
func (c *Client) Supabase() *supabase.Client {
	return c.supabase
}

// FetchOwnedProject - id 와 user_id 둘 다로 필터링한 프로젝트 조회
// 다른 사용자의 프로젝트와 존재하지 않는 프로젝트는 둘 다 ErrNotFound
func (c *Client) FetchOwnedProject(ctx context.Context, projectID, userID string) (*model.Project, error) {
	start := time.Now()
	var projects []model.Project

	data, _, err := c.supabase.From(tableProjects).
		Select("id,user_id,output_bucket,output_path", "", false).
		Eq("id", projectID).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	metrics.RecordUpstream("supabase", "fetch_project", err, start)

	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("failed to parse projects response: %w", err)
	}

	if len(projects) == 0 {
		log.Debug().Str("project_id", projectID).Str("user_id", userID).Msg("[Database] No owned project")
		return nil, ErrNotFound
	}

	return &projects[0], nil
}

// FetchYoutubeConnection - 사용자의 YouTube 연결 정보 조회
func (c *Client) FetchYoutubeConnection(ctx context.Context, userID string) (*model.YoutubeConnection, error) {
	start := time.Now()
	var connections []model.YoutubeConnection

	data, _, err := c.supabase.From(tableYoutubeConnections).
		Select("*", "", false).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	metrics.RecordUpstream("supabase", "fetch_youtube_connection", err, start)

	if err != nil {
		return nil, fmt.Errorf("failed to query youtube_connections: %w", err)
	}

	if err := json.Unmarshal(data, &connections); err != nil {
		return nil, fmt.Errorf("failed to parse youtube_connections response: %w", err)
	}

	if len(connections) == 0 {
		return nil, ErrNotFound
	}

	return &connections[0], nil
}

// UpsertYoutubeConnection - user_id 기준 upsert
func (c *Client) UpsertYoutubeConnection(ctx context.Context, conn *model.YoutubeConnection) error {
	start := time.Now()
	conn.UpdatedAt = time.Now().UTC()

	_, _, err := c.supabase.From(tableYoutubeConnections).
		Upsert(conn, "user_id", "minimal", "").
		Execute()
	metrics.RecordUpstream("supabase", "upsert_youtube_connection", err, start)

	if err != nil {
		return fmt.Errorf("failed to upsert youtube connection: %w", err)
	}

	log.Info().Str("user_id", conn.UserID).Msg("✅ [Database] YouTube connection saved")
	return nil
}
