package model

import "time"

// Project - projects 테이블 구조 (읽기 전용)
type Project struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	OutputBucket *string `json:"output_bucket"`
	OutputPath   *string `json:"output_path"`
}

// StoredOutput returns the bucket and path of the project's output file, or
// ok=false when either is missing.
func (p *Project) StoredOutput() (bucket, path string, ok bool) {
	if p.OutputBucket == nil || p.OutputPath == nil {
		return "", "", false
	}
	if *p.OutputBucket == "" || *p.OutputPath == "" {
		return "", "", false
	}
	return *p.OutputBucket, *p.OutputPath, true
}

// YoutubeConnection - youtube_connections 테이블 구조
type YoutubeConnection struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token is expired or about to expire.
func (c *YoutubeConnection) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now.Add(time.Minute))
}

// User - 인증된 사용자
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
