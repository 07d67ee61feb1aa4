package auth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/checkin-api/internal/database"
	"github.com/gdg-garage/checkin-api/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func TestAuthorize(t *testing.T) {
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	db.Create(&models.APIKey{Key: "valid-key", Name: "gate-a"})
	db.Create(&models.APIKey{Key: "old-key", Name: "gate-b", ExpiresAt: &past})

	guard := NewGuard(db, "test-secret", time.Hour, zerolog.Nop())
	ctx := context.Background()

	t.Run("APIKey", func(t *testing.T) {
		p, err := guard.Authorize(ctx, AuthInput{APIKey: "valid-key"})
		if err != nil {
			t.Fatalf("Authorize returned error: %v", err)
		}
		if p.Name != "gate-a" || p.Via != ViaAPIKey {
			t.Errorf("unexpected principal %+v", p)
		}

		var key models.APIKey
		db.Where("key = ?", "valid-key").First(&key)
		if key.LastUsedAt == nil {
			t.Error("expected last_used_at to be stamped")
		}
	})

	t.Run("ExpiredAPIKey", func(t *testing.T) {
		_, err := guard.Authenticate(ctx, AuthInput{APIKey: "old-key"})
		if !errors.Is(err, ErrExpiredAPIKey) {
			t.Fatalf("expected ErrExpiredAPIKey, got %v", err)
		}
	})

	t.Run("UnknownAPIKey", func(t *testing.T) {
		_, err := guard.Authorize(ctx, AuthInput{APIKey: "nope"})
		var se huma.StatusError
		if !errors.As(err, &se) || se.GetStatus() != 401 {
			t.Fatalf("expected 401 status error, got %v", err)
		}
	})

	t.Run("BearerToken", func(t *testing.T) {
		token, _, err := guard.GenerateToken("scanner-1")
		if err != nil {
			t.Fatalf("GenerateToken returned error: %v", err)
		}
		p, err := guard.Authorize(ctx, AuthInput{Authorization: "Bearer " + token})
		if err != nil {
			t.Fatalf("Authorize returned error: %v", err)
		}
		if p.Name != "scanner-1" || p.Via != ViaToken {
			t.Errorf("unexpected principal %+v", p)
		}
	})

	t.Run("NoCredentials", func(t *testing.T) {
		_, err := guard.Authenticate(ctx, AuthInput{})
		if !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
		_, err = guard.Authenticate(ctx, AuthInput{Authorization: "Basic abc"})
		if !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials for basic auth, got %v", err)
		}
	})
}

func TestAuthenticateKeyStampFailureIsLogged(t *testing.T) {
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.Create(&models.APIKey{Key: "valid-key", Name: "gate-a"})

	err = db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		tx.AddError(errors.New("database is locked"))
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	var buf bytes.Buffer
	guard := NewGuard(db, "test-secret", time.Hour, zerolog.New(&buf))

	p, err := guard.AuthenticateKey(context.Background(), "valid-key")
	if err != nil {
		t.Fatalf("AuthenticateKey returned error: %v", err)
	}
	if p.Name != "gate-a" {
		t.Errorf("unexpected principal %+v", p)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "failed to record api key use") {
		t.Errorf("expected warning about last use stamp, got %q", out)
	}
}
