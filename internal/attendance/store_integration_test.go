//go:build integration

package attendance

import (
	"context"
	"sync"
	"testing"

	"github.com/gdg-garage/checkin-api/internal/config"
	"github.com/gdg-garage/checkin-api/internal/database"
	"github.com/gdg-garage/checkin-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newPostgresService(t *testing.T) *Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("checkin"),
		tcpostgres.WithUsername("checkin"),
		tcpostgres.WithPassword("checkin"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(config.DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return NewService(db, Options{Logger: zerolog.Nop(), CouponAttempts: 5})
}

func TestPostgresLifecycle(t *testing.T) {
	svc := newPostgresService(t)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, EventInput{Slug: "pg-evt", Title: "Postgres", RegistrationOpen: true})
	require.NoError(t, err)

	t.Run("ConcurrentRegistration", func(t *testing.T) {
		const n = 10
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = svc.Register(ctx, "pg-evt", RegisterInput{Email: "same@x.com", Phone: "08011112222", FirstName: "Same"})
			}()
		}
		wg.Wait()

		created := 0
		for _, err := range errs {
			if err == nil {
				created++
				continue
			}
			require.ErrorIs(t, err, ErrAlreadyRegistered)
		}
		require.Equal(t, 1, created)
	})

	t.Run("ConcurrentRedeem", func(t *testing.T) {
		a, err := svc.Register(ctx, "pg-evt", RegisterInput{Email: "redeem@x.com", FirstName: "Redeem"})
		require.NoError(t, err)
		res, err := svc.CheckInByTicket(ctx, "pg-evt", a.TicketID, true, "staff")
		require.NoError(t, err)

		const n = 10
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = svc.Redeem(ctx, res.Attendee.Coupon.Code, "vendor")
			}()
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, ErrAlreadyRedeemed)
		}
		require.Equal(t, 1, wins)

		var history int64
		svc.Store().db.Model(&models.RegistrationHistory{}).
			Where("registration_id = ? AND action = ?", a.TicketID, models.ActionCouponRedeemed).
			Count(&history)
		require.EqualValues(t, 1, history)
	})
}
