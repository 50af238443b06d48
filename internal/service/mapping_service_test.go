package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebuildMappedRooms_ExactMatchWithAliases(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.seedProjectorRoom(1, "А", "Хирургия", "101", "Операционная", "EQ-1")
	env.seedProjectorRoom(1, "А", "Хирургия взрослая", "102", "Палата", "EQ-2") // superstring, must not match
	env.seedProjectorRoom(2, "Б", "Хирургия (блок Б)", "201", "Перевязочная", "EQ-3")
	env.seedTurarRoom("Хирургия Турар", "Кабинет 1", "T-1")

	svc := env.mapping()
	created, err := svc.CreateMapping(ctx, CreateMappingRequest{
		TurarDepartment:     "Хирургия Турар",
		ProjectorDepartment: "Хирургия",
		ProjectorAliases:    []string{" Хирургия (блок Б) "},
	})
	require.NoError(t, err)

	resp, err := svc.RebuildMappedRooms(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Mappings)
	require.Equal(t, 2, resp.ProjectorRooms) // canonical + alias, not the superstring
	require.Equal(t, 1, resp.TurarRooms)

	rooms, err := svc.MappingRooms(ctx, created.MappingID)
	require.NoError(t, err)
	require.Len(t, rooms.ProjectorRooms, 2)
	for _, r := range rooms.ProjectorRooms {
		require.NotEqual(t, "Хирургия взрослая", r.Department)
		require.NotEmpty(t, r.OriginalRecordID)
		require.Equal(t, created.MappingID, r.DepartmentMappingID)
	}
}

func TestRebuildMappedRooms_RecomputesIsLinked(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.seedProjectorRoom(1, "А", "Хирургия", "101", "Операционная", "")
	env.seedTurarRoom("Хирургия Турар", "Кабинет 1", "")
	env.seedTurarRoom("Хирургия Турар", "Кабинет 2", "")

	_, err := env.linking().CreateConnection(ctx, CreateConnectionRequest{
		TurarDepartment:     "Хирургия Турар",
		TurarRoom:           "Кабинет 1",
		ProjectorDepartment: "Хирургия",
		ProjectorRoom:       "Операционная",
	})
	require.NoError(t, err)

	svc := env.mapping()
	created, err := svc.CreateMapping(ctx, CreateMappingRequest{
		TurarDepartment:     "Хирургия Турар",
		ProjectorDepartment: "Хирургия",
	})
	require.NoError(t, err)

	_, err = svc.RebuildMappedRooms(ctx)
	require.NoError(t, err)

	rooms, err := svc.MappingRooms(ctx, created.MappingID)
	require.NoError(t, err)
	require.Len(t, rooms.ProjectorRooms, 1)
	require.True(t, rooms.ProjectorRooms[0].IsLinked)

	require.Len(t, rooms.TurarRooms, 2)
	linkedByName := map[string]bool{}
	for _, r := range rooms.TurarRooms {
		linkedByName[r.RoomName] = r.IsLinked
	}
	require.True(t, linkedByName["Кабинет 1"])
	require.False(t, linkedByName["Кабинет 2"])
}

func TestDeleteMapping_CascadesConnectionsAndMirrors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.seedProjectorRoom(1, "А", "Хирургия", "101", "Операционная", "")
	env.seedTurarRoom("Хирургия Турар", "Кабинет 1", "")

	linkSvc := env.linking()
	_, err := linkSvc.CreateConnection(ctx, CreateConnectionRequest{
		TurarDepartment:     "Хирургия Турар",
		TurarRoom:           "Кабинет 1",
		ProjectorDepartment: "Хирургия",
		ProjectorRoom:       "Операционная",
	})
	require.NoError(t, err)

	svc := env.mapping()
	created, err := svc.CreateMapping(ctx, CreateMappingRequest{
		TurarDepartment:     "Хирургия Турар",
		ProjectorDepartment: "Хирургия",
	})
	require.NoError(t, err)
	_, err = svc.RebuildMappedRooms(ctx)
	require.NoError(t, err)

	result, err := svc.DeleteMapping(ctx, created.MappingID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Connections)
	require.Equal(t, 1, result.MappedProjectorRooms)
	require.Equal(t, 1, result.MappedTurarRooms)

	// connection gone, mirrors cleared, mapping gone
	conns, err := env.connections.List(ctx)
	require.NoError(t, err)
	require.Empty(t, conns)

	rows, err := env.projector.FindByDeptRoom(ctx, "Хирургия", "Операционная")
	require.NoError(t, err)
	require.False(t, rows[0].ConnectedTurarRoom.Valid)

	list, err := svc.ListMappings(ctx)
	require.NoError(t, err)
	require.Empty(t, list.Items)
}

func TestCreateMapping_RejectsDuplicatePair(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.mapping()

	_, err := svc.CreateMapping(ctx, CreateMappingRequest{
		TurarDepartment:     "T",
		ProjectorDepartment: "P",
	})
	require.NoError(t, err)

	_, err = svc.CreateMapping(ctx, CreateMappingRequest{
		TurarDepartment:     "T",
		ProjectorDepartment: "P",
	})
	require.Error(t, err)
}

func TestDepartmentNames_TrimsAndDedupes(t *testing.T) {
	names := departmentNames(" Хирургия ", []string{"Хирургия", "  ", "Хирургия (блок Б)"})
	require.Equal(t, []string{"Хирургия", "Хирургия (блок Б)"}, names)
}
