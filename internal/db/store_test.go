package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/store"
)

// exerciseReportStore checks the ReportStore contract that every backend shares.
func exerciseReportStore(t *testing.T, st store.ReportStore) {
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Millisecond)
	caseID := "SR-" + uuid.NewString()[:6]
	r := models.Report{
		CaseID:      caseID,
		PIN:         "1234",
		Sector:      models.SectorHumanitarian,
		Category:    "shelter",
		Description: "roof blown off in the storm",
		Details:     map[string]any{"communityName": "Mathare", "peopleAffected": 12.0},
		Status:      models.StatusNew,
		Urgency:     models.UrgencyMedium,
		RiskScore:   5,
		ReporterID:  "reporter-" + caseID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	saved, err := st.Save(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, "1234", saved.PIN)

	_, err = st.Save(ctx, r)
	assert.True(t, errors.Is(err, store.ErrDuplicateCaseID), "got %v", err)

	got, err := st.FindByCaseID(ctx, caseID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "Mathare", got.Details["communityName"])
	assert.True(t, created.Equal(got.CreatedAt))

	status := models.StatusResolved
	now := created.Add(time.Minute)
	updated, err := st.Update(ctx, saved.ID, 1, store.Patch{Status: &status, ResolvedAt: &now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.ResolvedAt)
	assert.True(t, now.Equal(*updated.ResolvedAt))

	_, err = st.Update(ctx, saved.ID, 1, store.Patch{Status: &status, ResolvedAt: &now, UpdatedAt: now})
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	_, err = st.Update(ctx, uuid.NewString(), 1, store.Patch{UpdatedAt: now})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	lat, lon := -1.31, 36.79
	moved, err := st.Update(ctx, saved.ID, 2, store.Patch{Relocated: true, Lat: &lat, Lon: &lon, UpdatedAt: now})
	require.NoError(t, err)
	require.NotNil(t, moved.Lat)
	assert.Equal(t, lat, *moved.Lat)
	cleared, err := st.Update(ctx, saved.ID, 3, store.Patch{Relocated: true, UpdatedAt: now})
	require.NoError(t, err)
	assert.Nil(t, cleared.Lat)
	assert.Nil(t, cleared.Lon)

	list, err := st.List(ctx, store.Filter{ReporterID: r.ReporterID, Status: models.StatusResolved})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, caseID, list[0].CaseID)

	list, err = st.List(ctx, store.Filter{ReporterID: r.ReporterID, Status: models.StatusNew})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, st.Ping(ctx))
}

func TestReportStoreContractMemory(t *testing.T) {
	exerciseReportStore(t, store.NewMemStore())
}

func TestReportStoreContractPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	st, err := New(ctx, dsn)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(ctx))
	exerciseReportStore(t, st)
}

func TestReportStoreContractMongo(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	st, err := NewMongo(ctx, uri, "safereport_test")
	require.NoError(t, err)
	defer st.Close(ctx)
	exerciseReportStore(t, st)
}
