package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/checkin-api/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	ViaAPIKey = "api_key"
	ViaToken  = "token"
)

var (
	ErrMissingCredentials = errors.New("no credentials supplied")
	ErrInvalidAPIKey      = errors.New("invalid api key")
	ErrExpiredAPIKey      = errors.New("api key expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokensDisabled     = errors.New("staff tokens are disabled")
)

// AuthInput is embedded in the input of every staff operation.
type AuthInput struct {
	APIKey        string `header:"X-API-KEY" doc:"Staff API key"`
	Authorization string `header:"Authorization" doc:"Bearer staff token"`
}

// Principal is the authenticated staff member or device.
type Principal struct {
	Name string
	Via  string
}

// Guard authenticates staff requests by API key or by a token minted for
// a scanner device.
type Guard struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewGuard(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *Guard {
	return &Guard{
		db:       db,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		now:      time.Now,
		log:      log,
	}
}

// Authorize is called at the top of staff handlers. Failures are returned as
// 401 responses.
func (g *Guard) Authorize(ctx context.Context, in AuthInput) (Principal, error) {
	p, err := g.Authenticate(ctx, in)
	if err != nil {
		return Principal{}, huma.Error401Unauthorized("Unauthorized: " + err.Error())
	}
	return p, nil
}

// Authenticate checks the API key first, then the bearer token.
func (g *Guard) Authenticate(ctx context.Context, in AuthInput) (Principal, error) {
	if in.APIKey != "" {
		return g.AuthenticateKey(ctx, in.APIKey)
	}

	token, ok := strings.CutPrefix(in.Authorization, "Bearer ")
	if !ok || token == "" {
		return Principal{}, ErrMissingCredentials
	}
	name, err := g.ParseToken(token)
	if err != nil {
		return Principal{}, err
	}
	return Principal{Name: name, Via: ViaToken}, nil
}

// AuthenticateKey validates an API key and stamps its last use.
func (g *Guard) AuthenticateKey(ctx context.Context, key string) (Principal, error) {
	var keyModel models.APIKey
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&keyModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Principal{}, ErrInvalidAPIKey
	}
	if err != nil {
		return Principal{}, err
	}

	now := g.now()
	if keyModel.ExpiresAt != nil && now.After(*keyModel.ExpiresAt) {
		return Principal{}, ErrExpiredAPIKey
	}

	if err := g.db.WithContext(ctx).Model(&keyModel).Update("last_used_at", now).Error; err != nil {
		g.log.Warn().Err(err).Uint("api_key_id", keyModel.ID).Msg("failed to record api key use")
	}

	return Principal{Name: keyModel.Name, Via: ViaAPIKey}, nil
}
