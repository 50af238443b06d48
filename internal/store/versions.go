package store

import (
	"context"
	"strconv"
)

// Cache view names bumped by write paths. Clients compare a snapshot of
// these counters against their last-seen values instead of re-fetching
// whole datasets on a timer.
const (
	ViewRoomConnections    = "room-connections"
	ViewTurarMedical       = "turar-medical"
	ViewProjectorEquipment = "projector-equipment"
	ViewDepartmentMappings = "department-mappings"
	ViewMappedRooms        = "mapped-rooms"
)

const versionKeyPrefix = "cache-version:"

// VersionTracker keeps one monotonically increasing counter per cached
// view. Bump failures are swallowed: invalidation is best-effort and a
// write must not fail because redis is down.
type VersionTracker struct {
	kv KV
}

func NewVersionTracker(kv KV) *VersionTracker { return &VersionTracker{kv: kv} }

func (v *VersionTracker) Bump(ctx context.Context, names ...string) {
	for _, name := range names {
		_, _ = v.kv.Incr(ctx, versionKeyPrefix+name)
	}
}

// Snapshot returns the current counter per view name; a view never
// bumped reads as 0.
func (v *VersionTracker) Snapshot(ctx context.Context, names ...string) map[string]int64 {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		val, err := v.kv.Get(ctx, versionKeyPrefix+name)
		if err != nil {
			out[name] = 0
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			n = 0
		}
		out[name] = n
	}
	return out
}
