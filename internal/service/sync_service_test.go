package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"medlink-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSyncTestServer(t *testing.T, projectorJSON, turarJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/combined_floors.json":
			_, _ = w.Write([]byte(projectorJSON))
		case "/turar_full.json":
			_, _ = w.Write([]byte(turarJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newSyncEnv(t *testing.T, baseURL string) (*testEnv, SyncService) {
	t.Helper()
	env := newTestEnv()
	client := NewDatasetClient(baseURL, zap.NewNop())
	svc := NewSyncService(client, "combined_floors.json", "turar_full.json",
		env.projector, env.turar, env.versions, zap.NewNop())
	return env, svc
}

func TestSyncProjector_TruncatesAndReloads(t *testing.T) {
	srv := newSyncTestServer(t, `[
		{"floor":1,"block":"А","department":"Хирургия","room_code":"101","room_name":"Операционная","equipment_code":"EQ-1"},
		{"floor":2,"block":"Б","department":"Терапия","room_code":"201","room_name":"Кабинет"}
	]`, `[]`)
	defer srv.Close()

	env, svc := newSyncEnv(t, srv.URL)
	ctx := context.Background()

	// stale row that the sync must wipe
	env.seedProjectorRoom(9, "X", "Старое", "999", "Удалить", "")

	resp, err := svc.SyncProjector(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Fetched)
	require.Equal(t, 2, resp.Inserted)

	rows, total, err := env.projector.List(ctx, repository.ProjectorRoomFilters{}, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "Операционная", rows[0].RoomName)
	require.Equal(t, "EQ-1", rows[0].EquipmentCode.String)
}

func TestSyncAll_LoadsBothDatasets(t *testing.T) {
	srv := newSyncTestServer(t,
		`[{"floor":1,"block":"А","department":"Хирургия","room_code":"101","room_name":"Операционная"}]`,
		`[{"department":"Хирургия Турар","room_name":"Кабинет 1","equipment_code":"T-1","quantity":2}]`)
	defer srv.Close()

	env, svc := newSyncEnv(t, srv.URL)
	ctx := context.Background()

	resp, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Projector.Inserted)
	require.Equal(t, 1, resp.Turar.Inserted)

	turarRows, err := env.turar.ListByDepartment(ctx, "Хирургия Турар")
	require.NoError(t, err)
	require.Len(t, turarRows, 1)
	require.Equal(t, int64(2), turarRows[0].Quantity.Int64)
}

func TestLoadTurarBatch_PagesAndSignalsHasMore(t *testing.T) {
	// single page fits everything: batch 0 inserts, no more batches
	srv := newSyncTestServer(t, `[]`,
		`[{"department":"T","room_name":"К1"},{"department":"T","room_name":"К2"}]`)
	defer srv.Close()

	env, svc := newSyncEnv(t, srv.URL)
	ctx := context.Background()

	env.seedTurarRoom("Старое", "Удалить", "")

	resp, err := svc.LoadTurarBatch(ctx, LoadBatchRequest{Batch: 0})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Inserted)
	require.False(t, resp.HasMore)
	require.Equal(t, 1, resp.NextBatch)

	// batch 0 truncated the stale row first
	rows, err := env.turar.ListByDepartment(ctx, "Старое")
	require.NoError(t, err)
	require.Empty(t, rows)

	// past-the-end batch is a no-op
	resp, err = svc.LoadTurarBatch(ctx, LoadBatchRequest{Batch: 5})
	require.NoError(t, err)
	require.Equal(t, 0, resp.Inserted)
	require.False(t, resp.HasMore)
}

func TestSyncProjector_SourceErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	env, svc := newSyncEnv(t, srv.URL)
	ctx := context.Background()

	env.seedProjectorRoom(1, "А", "Хирургия", "101", "Операционная", "")

	_, err := svc.SyncProjector(ctx)
	require.Error(t, err)

	// fetch failed before the truncate: existing data untouched
	_, total, err := env.projector.List(ctx, repository.ProjectorRoomFilters{}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}
