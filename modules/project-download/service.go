package projectdownload

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"satura-server/modules/common/database"
	"satura-server/modules/common/model"
	"satura-server/modules/common/storage"
)

const (
	DefaultContentType = "video/mp4"
	DefaultFilename    = "project.mp4"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrFileNotFound    = errors.New("file not found")
)

// ProjectStore - 소유권 기준 프로젝트 조회
type ProjectStore interface {
	FetchOwnedProject(ctx context.Context, projectID, userID string) (*model.Project, error)
}

// ObjectStore - 스토리지 다운로드
type ObjectStore interface {
	DownloadObject(ctx context.Context, bucket, filePath string) (*storage.Object, error)
}

// Download is a project output ready to be written to the client.
type Download struct {
	Data        []byte
	ContentType string
	Filename    string
}

type Service struct {
	projects ProjectStore
	objects  ObjectStore
}

func NewService(projects ProjectStore, objects ObjectStore) *Service {
	return &Service{
		projects: projects,
		objects:  objects,
	}
}

// FetchDownload - 사용자 소유 프로젝트의 결과 파일 다운로드
// 다른 사용자 프로젝트 / 없는 프로젝트 / 출력 경로 없음 → ErrProjectNotFound
func (s *Service) FetchDownload(ctx context.Context, projectID, userID string) (*Download, error) {
	project, err := s.projects.FetchOwnedProject(ctx, projectID, userID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Warn().Err(err).Str("project_id", projectID).Msg("⚠️ [ProjectDownload] Project lookup failed")
		}
		return nil, ErrProjectNotFound
	}

	bucket, outputPath, ok := project.StoredOutput()
	if !ok {
		log.Debug().Str("project_id", projectID).Msg("[ProjectDownload] Project has no stored output")
		return nil, ErrProjectNotFound
	}

	object, err := s.objects.DownloadObject(ctx, bucket, outputPath)
	if err != nil || object == nil || len(object.Data) == 0 {
		return nil, ErrFileNotFound
	}

	contentType := object.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = DefaultContentType
	}

	return &Download{
		Data:        object.Data,
		ContentType: contentType,
		Filename:    FilenameFromPath(outputPath),
	}, nil
}

// FilenameFromPath - 경로 마지막 세그먼트, 없으면 project.mp4
func FilenameFromPath(outputPath string) string {
	segments := strings.Split(outputPath, "/")
	if name := strings.TrimSpace(segments[len(segments)-1]); name != "" {
		return name
	}
	return DefaultFilename
}

// Disposition returns "inline" only for the exact value "inline".
func Disposition(value string) string {
	if value == "inline" {
		return "inline"
	}
	return "attachment"
}
