package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"satura-server/modules/common/config"
	"satura-server/modules/common/database"
	"satura-server/modules/common/metrics"
	"satura-server/modules/common/model"
)

// AccessTokenCookie is the cookie the web app stores the Supabase access token in.
const AccessTokenCookie = "sb-access-token"

// ErrUnauthorized is returned when a request carries no valid session.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator resolves the calling user of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*model.User, error)
}

// New picks local JWT verification when a JWT secret is configured and falls
// back to asking Supabase Auth otherwise.
func New(cfg *config.Config, db *database.Client) Authenticator {
	if secret := strings.TrimSpace(cfg.SupabaseJWTSecret); secret != "" {
		log.Info().Msg("🔐 [Auth] Verifying Supabase sessions locally (HS256)")
		return NewJWTAuthenticator(secret)
	}
	log.Info().Msg("🔐 [Auth] Verifying Supabase sessions via GoTrue")
	return NewSupabaseAuthenticator(db)
}

// TokenFromRequest extracts the access token from the Authorization header or
// the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// SupabaseAuthenticator validates tokens with GET /auth/v1/user.
type SupabaseAuthenticator struct {
	db *database.Client
}

func NewSupabaseAuthenticator(db *database.Client) *SupabaseAuthenticator {
	return &SupabaseAuthenticator{db: db}
}

func (a *SupabaseAuthenticator) Authenticate(r *http.Request) (*model.User, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrUnauthorized
	}

	start := time.Now()
	resp, err := a.db.Supabase().Auth.WithToken(token).GetUser()
	metrics.RecordUpstream("supabase", "get_user", err, start)
	if err != nil {
		log.Debug().Err(err).Msg("[Auth] GoTrue rejected token")
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if resp.ID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	return &model.User{ID: resp.ID.String(), Email: resp.Email}, nil
}

// JWTAuthenticator verifies Supabase access tokens with the project JWT secret.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*model.User, error) {
	tokenString := TokenFromRequest(r)
	if tokenString == "" {
		return nil, ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		// anon / service keys carry no subject
		return nil, ErrUnauthorized
	}
	email, _ := claims["email"].(string)

	return &model.User{ID: sub, Email: email}, nil
}
