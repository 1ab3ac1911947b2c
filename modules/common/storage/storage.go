package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"satura-server/modules/common/database"
	"satura-server/modules/common/metrics"
)

// ErrObjectNotFound is returned when a download fails or yields no bytes.
var ErrObjectNotFound = errors.New("storage object not found")

// Object is a downloaded storage object with its declared content type.
type Object struct {
	Data        []byte
	ContentType string
}

type Client struct {
	dbClient   *database.Client
	storageURL string
}

// NewClient - Storage 클라이언트 생성
func NewClient(dbClient *database.Client, supabaseURL string) *Client {
	return &Client{
		dbClient:   dbClient,
		storageURL: strings.TrimRight(supabaseURL, "/") + "/storage/v1",
	}
}

// DownloadObject - Supabase Storage에서 파일 다운로드 (Content-Type 포함)
func (c *Client) DownloadObject(ctx context.Context, bucket, filePath string) (*Object, error) {
	start := time.Now()
	object, err := c.download(ctx, bucket, filePath)
	metrics.RecordUpstream("supabase", "storage_download", err, start)
	return object, err
}

func (c *Client) download(ctx context.Context, bucket, filePath string) (*Object, error) {
	storageClient := c.dbClient.Supabase().Storage

	objectURL := fmt.Sprintf("%s/object/%s/%s", c.storageURL, url.PathEscape(bucket), escapePath(filePath))
	log.Debug().Str("bucket", bucket).Str("path", filePath).Msg("📥 [Storage] Downloading object")

	req, err := storageClient.NewRequest(http.MethodGet, objectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req = req.WithContext(ctx)

	resp, err := storageClient.Do(req, nil)
	if err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Str("path", filePath).Msg("⚠️ [Storage] Download failed")
		return nil, fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object data: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrObjectNotFound
	}

	log.Info().Str("bucket", bucket).Str("path", filePath).Int("bytes", len(data)).Msg("✅ [Storage] Object downloaded")
	return &Object{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// escapePath escapes each segment of a storage path, keeping the separators.
func escapePath(p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
