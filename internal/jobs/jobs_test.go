package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage/memory"
)

type fakeLimiter struct{ removed int }

func (f *fakeLimiter) Cleanup(time.Duration) int { return f.removed }

func TestReportExpiringVehicles(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := memory.New()
	now := time.Now()
	soon := now.Add(5 * 24 * time.Hour)
	later := now.Add(200 * 24 * time.Hour)

	_, err := store.CreateVehicle(context.Background(), models.Vehicle{UserID: 1, Nickname: "van", Status: models.VehicleStatusActive, InsuranceExpiresAt: &soon})
	require.NoError(t, err)
	_, err = store.CreateVehicle(context.Background(), models.Vehicle{UserID: 1, Nickname: "car", Status: models.VehicleStatusActive, InsuranceExpiresAt: &later})
	require.NoError(t, err)
	_, err = store.CreateVehicle(context.Background(), models.Vehicle{UserID: 2, Nickname: "old", Status: models.VehicleStatusRetired, RegistrationExpiresAt: &soon})
	require.NoError(t, err)

	r, err := New(Config{}, nil, nil, store, zap.New(core))
	require.NoError(t, err)
	r.now = func() time.Time { return now }

	assert.Equal(t, 1, r.ReportExpiringVehicles(context.Background()))
	entries := logs.FilterMessage("vehicle paperwork expiring").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "van", entries[0].ContextMap()["nickname"])
}

func TestSweepSessionsAndLimiters(t *testing.T) {
	store := memory.New()
	sessions := auth.NewSessionManager(store, time.Hour, false)
	require.NoError(t, store.CreateSession(context.Background(), models.Session{ID: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, store.CreateSession(context.Background(), models.Session{ID: "new", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))

	r, err := New(Config{SessionSweep: "@every 1m"}, sessions, []LimiterCleaner{&fakeLimiter{2}, &fakeLimiter{1}}, store, zap.NewNop())
	require.NoError(t, err)

	r.SweepSessions(context.Background())
	_, err = store.GetSession(context.Background(), "old")
	assert.Error(t, err)
	_, err = store.GetSession(context.Background(), "new")
	assert.NoError(t, err)

	assert.Equal(t, 3, r.CleanupLimiters())
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(Config{SessionSweep: "not a schedule"}, nil, nil, memory.New(), zap.NewNop())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	r, err := New(Config{}, nil, nil, memory.New(), zap.NewNop())
	require.NoError(t, err)
	r.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
