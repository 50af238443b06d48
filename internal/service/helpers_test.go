package service

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"medlink-data/internal/domain"
	"medlink-data/internal/repository"
	"medlink-data/internal/store"

	"go.uber.org/zap"
)

type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

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

// testEnv memory-backed service wiring shared by the service tests.
type testEnv struct {
	kv          *fakeKV
	versions    *store.VersionTracker
	projector   *repository.MemoryProjectorRoomsRepo
	turar       *repository.MemoryTurarRoomsRepo
	connections *repository.MemoryConnectionsRepo
	mapped      *repository.MemoryMappedRoomsRepo
	mappings    *repository.MemoryMappingsRepo
}

func newTestEnv() *testEnv {
	kv := newFakeKV()
	projector := repository.NewMemoryProjectorRoomsRepo()
	turar := repository.NewMemoryTurarRoomsRepo()
	connections := repository.NewMemoryConnectionsRepo()
	mapped := repository.NewMemoryMappedRoomsRepo()
	return &testEnv{
		kv:          kv,
		versions:    store.NewVersionTracker(kv),
		projector:   projector,
		turar:       turar,
		connections: connections,
		mapped:      mapped,
		mappings:    repository.NewMemoryMappingsRepo(connections, projector, turar, mapped),
	}
}

func (e *testEnv) linking() LinkingService {
	return NewLinkingService(e.connections, e.projector, e.turar, e.mapped, e.versions, zap.NewNop())
}

func (e *testEnv) importer() ImportService {
	return NewImportService(e.projector, e.turar, e.versions, zap.NewNop())
}

func (e *testEnv) exporter() ExportService {
	return NewExportService(e.projector, e.connections, zap.NewNop())
}

func (e *testEnv) mapping() MappingService {
	return NewMappingService(e.mappings, e.mapped, e.projector, e.turar, e.connections, e.versions, zap.NewNop())
}

func (e *testEnv) seedProjectorRoom(floor float64, block, dept, code, room, equipCode string) {
	row := &domain.ProjectorRoom{
		Floor:      floor,
		Block:      block,
		Department: dept,
		RoomCode:   code,
		RoomName:   room,
	}
	if equipCode != "" {
		row.EquipmentCode = sql.NullString{String: equipCode, Valid: true}
	}
	_, _ = e.projector.BulkInsert(context.Background(), []*domain.ProjectorRoom{row})
}

func (e *testEnv) seedTurarRoom(dept, room, equipCode string) {
	row := &domain.TurarRoom{
		Department: dept,
		RoomName:   room,
	}
	if equipCode != "" {
		row.EquipmentCode = sql.NullString{String: equipCode, Valid: true}
	}
	_, _ = e.turar.BulkInsert(context.Background(), []*domain.TurarRoom{row})
}
