package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"medlink-data/internal/repository"
	"medlink-data/internal/service"
	"medlink-data/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeKV struct {
	data map[string]string
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Incr(ctx context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (f *fakeKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// newTestRouter wires the full route table over memory repos.
func newTestRouter(t *testing.T) *Router {
	t.Helper()
	logger := zap.NewNop()
	kv := &fakeKV{data: map[string]string{}}
	versions := store.NewVersionTracker(kv)

	projector := repository.NewMemoryProjectorRoomsRepo()
	turar := repository.NewMemoryTurarRoomsRepo()
	connections := repository.NewMemoryConnectionsRepo()
	mapped := repository.NewMemoryMappedRoomsRepo()
	mappings := repository.NewMemoryMappingsRepo(connections, projector, turar, mapped)
	equipment := repository.NewMemoryEquipmentRepo(projector)
	users := repository.NewMemoryUsersRepo()

	rooms := service.NewRoomsService(projector, turar, versions, logger)
	linking := service.NewLinkingService(connections, projector, turar, mapped, versions, logger)
	importer := service.NewImportService(projector, turar, versions, logger)
	exporter := service.NewExportService(projector, connections, logger)
	client := service.NewDatasetClient("http://127.0.0.1:0", logger)
	syncer := service.NewSyncService(client, "combined_floors.json", "turar_full.json", projector, turar, versions, logger)
	mapping := service.NewMappingService(mappings, mapped, projector, turar, connections, versions, logger)
	admin := service.NewAdminService(equipment, users, logger)

	router := NewRouter(logger)
	router.RegisterRoutes(
		NewRoomHandler(rooms, logger),
		NewConnectionHandler(linking, logger),
		NewImportExportHandler(importer, exporter, logger),
		NewJobHandler(syncer, linking, mapping, logger),
		NewMappingHandler(mapping, logger),
		NewAdminHandler(admin, logger),
		NewSystemHandler(versions, logger),
	)
	return router
}

func doJSON(t *testing.T, router *Router, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestConnectionLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/data/api/v1/connections", `{
		"turar_department": "Хирургия Турар",
		"turar_room": "Кабинет 1",
		"projector_department": "Хирургия",
		"projector_room": "Операционная"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(ResultSuccess), envelope["code"])

	result := envelope["result"].(map[string]any)
	connID := result["connection_id"].(string)
	require.NotEmpty(t, connID)

	// duplicate POST answers with the same id
	rec, envelope = doJSON(t, router, http.MethodPost, "/data/api/v1/connections", `{
		"turar_department": "Хирургия Турар",
		"turar_room": "Кабинет 1",
		"projector_department": "Хирургия",
		"projector_room": "Операционная"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	dup := envelope["result"].(map[string]any)
	require.Equal(t, connID, dup["connection_id"])
	require.Equal(t, true, dup["already_existed"])

	rec, envelope = doJSON(t, router, http.MethodGet,
		"/data/api/v1/connections/linked-rooms?side=projector&department=Хирургия&room_name=Операционная", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := envelope["result"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)

	rec, _ = doJSON(t, router, http.MethodDelete, "/data/api/v1/connections/"+connID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope = doJSON(t, router, http.MethodGet, "/data/api/v1/connections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, envelope["result"].(map[string]any)["items"])
}

func TestImportPreviewOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	csv := "ЭТАЖ,БЛОК,ОТДЕЛЕНИЕ,КОД ПОМЕЩЕНИЯ,НАИМЕНОВАНИЕ ПОМЕЩЕНИЯ\n1,А,Хирургия,101,Операционная\n"
	rec, envelope := doJSON(t, router, http.MethodPost, "/data/api/v1/import/projector/preview", csv)
	require.Equal(t, http.StatusOK, rec.Code)

	result := envelope["result"].(map[string]any)
	require.Len(t, result["new_records"].([]any), 1)
	require.Empty(t, result["duplicate_records"])
	require.Empty(t, result["errors"])
}

func TestListProjectorRoomsPagination(t *testing.T) {
	router := newTestRouter(t)

	csv := "ЭТАЖ,БЛОК,ОТДЕЛЕНИЕ,КОД ПОМЕЩЕНИЯ,НАИМЕНОВАНИЕ ПОМЕЩЕНИЯ\n" +
		"1,А,Хирургия,101,Операционная\n" +
		"2,Б,Терапия,201,Кабинет\n"
	rec, _ := doJSON(t, router, http.MethodPost, "/data/api/v1/import/projector/commit", csv)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope := doJSON(t, router, http.MethodGet, "/data/api/v1/projector/rooms?page=1&size=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := envelope["result"].(map[string]any)
	require.Len(t, result["items"].([]any), 1)
	pagination := result["pagination"].(map[string]any)
	require.Equal(t, float64(2), pagination["count"])
}

func TestCacheVersionsMoveOnWrites(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodGet, "/data/api/v1/cache/versions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	before := envelope["result"].(map[string]any)
	require.Equal(t, float64(0), before[store.ViewRoomConnections])

	rec, _ = doJSON(t, router, http.MethodPost, "/data/api/v1/connections", `{
		"turar_department": "T", "turar_room": "1",
		"projector_department": "P", "projector_room": "2"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, envelope = doJSON(t, router, http.MethodGet, "/data/api/v1/cache/versions", "")
	after := envelope["result"].(map[string]any)
	require.Equal(t, float64(1), after[store.ViewRoomConnections])
	require.Equal(t, float64(1), after[store.ViewTurarMedical])
	require.Equal(t, float64(0), after[store.ViewDepartmentMappings])
}

func TestUserRoleManagementOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/admin/api/v1/users", `{
		"email": "nurse@example.org", "full_name": "Medical Staff"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	userID := envelope["result"].(map[string]any)["user_id"].(string)

	rec, _ = doJSON(t, router, http.MethodPut, "/admin/api/v1/users/"+userID, `{"role":"editor"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// unknown role rejected
	rec, _ = doJSON(t, router, http.MethodPut, "/admin/api/v1/users/"+userID, `{"role":"owner"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, envelope = doJSON(t, router, http.MethodGet, "/admin/api/v1/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	users := envelope["result"].(map[string]any)["items"].([]any)
	require.Len(t, users, 1)
	require.Equal(t, "editor", users[0].(map[string]any)["Role"])
}

func TestMethodNotAllowedOnJobs(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/admin/api/v1/jobs/sync-all", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
