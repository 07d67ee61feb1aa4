package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/checkin-api/internal/auth"
	"github.com/gdg-garage/checkin-api/internal/models"
	"gorm.io/gorm"
)

type APIKeyHandler struct {
	db    *gorm.DB
	guard *auth.Guard
}

func NewAPIKeyHandler(db *gorm.DB, guard *auth.Guard) *APIKeyHandler {
	return &APIKeyHandler{db: db, guard: guard}
}

type CreateAPIKeyInput struct {
	auth.AuthInput
	Body struct {
		Name      string     `json:"name" maxLength:"100" doc:"Who or what the key is for, e.g. gate-a"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
	}
}

type APIKeyResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

type CreateAPIKeyOutput struct {
	Body APIKeyResponse
}

func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	staff, err := h.guard.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}
	key := hex.EncodeToString(keyBytes)

	apiKey := models.APIKey{
		Key:       key,
		Name:      input.Body.Name,
		CreatedBy: staff.Name,
		ExpiresAt: input.Body.ExpiresAt,
	}

	if err := h.db.WithContext(ctx).Create(&apiKey).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create API key")
	}

	return &CreateAPIKeyOutput{Body: apiKeyResponse(apiKey, apiKey.Key)}, nil
}

type ListAPIKeysInput struct {
	auth.AuthInput
}

type ListAPIKeysOutput struct {
	Body []APIKeyResponse
}

func (h *APIKeyHandler) HandleList(ctx context.Context, input *ListAPIKeysInput) (*ListAPIKeysOutput, error) {
	if _, err := h.guard.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var apiKeys []models.APIKey
	if err := h.db.WithContext(ctx).Order("id asc").Find(&apiKeys).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list API keys")
	}

	response := make([]APIKeyResponse, 0, len(apiKeys))
	for _, k := range apiKeys {
		response = append(response, apiKeyResponse(k, maskKey(k.Key)))
	}

	return &ListAPIKeysOutput{Body: response}, nil
}

type DeleteAPIKeyInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	if _, err := h.guard.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	res := h.db.WithContext(ctx).Where("id = ?", input.ID).Delete(&models.APIKey{})
	if res.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete API key")
	}
	if res.RowsAffected == 0 {
		return nil, huma.Error404NotFound("API key not found")
	}

	return nil, nil
}

type StaffTokenInput struct {
	APIKey string `header:"X-API-KEY" required:"true" doc:"Staff API key"`
	Device string `query:"device" maxLength:"100" doc:"Scanner device label"`
}

type StaffTokenOutput struct {
	Body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
}

// HandleToken exchanges an API key for a bearer token that scanner devices
// can hold without knowing the key.
func (h *APIKeyHandler) HandleToken(ctx context.Context, input *StaffTokenInput) (*StaffTokenOutput, error) {
	staff, err := h.guard.AuthenticateKey(ctx, input.APIKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAPIKey) || errors.Is(err, auth.ErrExpiredAPIKey) {
			return nil, huma.Error401Unauthorized("Unauthorized: " + err.Error())
		}
		return nil, huma.Error500InternalServerError("Failed to check API key")
	}

	name := staff.Name
	if input.Device != "" {
		name += "/" + input.Device
	}

	token, expires, err := h.guard.GenerateToken(name)
	if errors.Is(err, auth.ErrTokensDisabled) {
		return nil, huma.Error501NotImplemented("Staff tokens are not configured")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	res := &StaffTokenOutput{}
	res.Body.Token = token
	res.Body.ExpiresAt = expires
	return res, nil
}

func apiKeyResponse(k models.APIKey, shownKey string) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Key:        shownKey,
		CreatedBy:  k.CreatedBy,
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
	}
}

func maskKey(key string) string {
	if len(key) > 4 {
		return "..." + key[len(key)-4:]
	}
	return key
}
