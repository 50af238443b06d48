package service

import (
	"context"
	"database/sql"
	"testing"

	"medlink-data/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestCreateConnection_MirrorsBothSides(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// two equipment lines of the same projector room
	env.seedProjectorRoom(1, "А", "Хирургия", "101", "Операционная", "EQ-1")
	env.seedProjectorRoom(1, "А", "Хирургия", "101", "Операционная", "EQ-2")
	env.seedTurarRoom("Хирургия Турар", "Кабинет 5", "T-1")

	svc := env.linking()
	resp, err := svc.CreateConnection(ctx, CreateConnectionRequest{
		TurarDepartment:     "Хирургия Турар",
		TurarRoom:           "Кабинет 5",
		ProjectorDepartment: "Хирургия",
		ProjectorRoom:       "Операционная",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ConnectionID)
	require.False(t, resp.AlreadyExisted)

	// every equipment-line row of the room carries the mirror
	rows, err := env.projector.FindByDeptRoom(ctx, "Хирургия", "Операционная")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, "Хирургия Турар", row.ConnectedTurarDepartment.String)
		require.Equal(t, "Кабинет 5", row.ConnectedTurarRoom.String)
	}

	turarRows, err := env.turar.FindByDeptRoom(ctx, "Хирургия Турар", "Кабинет 5")
	require.NoError(t, err)
	require.Len(t, turarRows, 1)
	require.Equal(t, "Операционная", turarRows[0].ConnectedProjectorRoom.String)
}

func TestCreateConnection_DuplicateTupleIsNoOp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.linking()

	req := CreateConnectionRequest{
		TurarDepartment:     "Кардиология Турар",
		TurarRoom:           "Кабинет 1",
		ProjectorDepartment: "Кардиология",
		ProjectorRoom:       "Палата 3",
	}
	first, err := svc.CreateConnection(ctx, req)
	require.NoError(t, err)

	second, err := svc.CreateConnection(ctx, req)
	require.NoError(t, err)
	require.True(t, second.AlreadyExisted)
	require.Equal(t, first.ConnectionID, second.ConnectionID)

	list, err := svc.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
}

func TestCreateConnection_UnresolvedRoomStillInserts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.linking()

	// neither room exists in the source tables
	resp, err := svc.CreateConnection(ctx, CreateConnectionRequest{
		TurarDepartment:     "Неизвестное",
		TurarRoom:           "Кабинет X",
		ProjectorDepartment: "Тоже неизвестное",
		ProjectorRoom:       "Помещение Y",
	})
	require.NoError(t, err)

	conn, err := env.connections.GetByID(ctx, resp.ConnectionID)
	require.NoError(t, err)
	require.False(t, conn.TurarRoomID.Valid)
	require.False(t, conn.ProjectorRoomID.Valid)
}

func TestDeleteConnection_ClearsMirrors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.seedProjectorRoom(2, "Б", "Терапия", "201", "Кабинет врача", "EQ-9")
	env.seedTurarRoom("Терапия Турар", "Кабинет 2", "T-7")

	svc := env.linking()
	resp, err := svc.CreateConnection(ctx, CreateConnectionRequest{
		TurarDepartment:     "Терапия Турар",
		TurarRoom:           "Кабинет 2",
		ProjectorDepartment: "Терапия",
		ProjectorRoom:       "Кабинет врача",
	})
	require.NoError(t, err)

	_, err = svc.DeleteConnection(ctx, DeleteConnectionRequest{ConnectionID: resp.ConnectionID})
	require.NoError(t, err)

	rows, err := env.projector.FindByDeptRoom(ctx, "Терапия", "Кабинет врача")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.False(t, rows[0].ConnectedTurarDepartment.Valid)
	require.False(t, rows[0].ConnectedTurarRoom.Valid)

	turarRows, err := env.turar.FindByDeptRoom(ctx, "Терапия Турар", "Кабинет 2")
	require.NoError(t, err)
	require.False(t, turarRows[0].ConnectedProjectorRoom.Valid)

	list, err := svc.ListConnections(ctx)
	require.NoError(t, err)
	require.Empty(t, list.Items)
}

func TestCommitQueued_PartialFailureKeepsEarlierItems(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.linking()

	resp, err := svc.CommitQueued(ctx, CommitQueuedRequest{Items: []CreateConnectionRequest{
		{TurarDepartment: "A", TurarRoom: "1", ProjectorDepartment: "B", ProjectorRoom: "2"},
		{TurarDepartment: "", TurarRoom: "", ProjectorDepartment: "", ProjectorRoom: ""}, // invalid
		{TurarDepartment: "C", TurarRoom: "3", ProjectorDepartment: "D", ProjectorRoom: "4"},
	}})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Succeeded)
	require.Len(t, resp.Failed, 1)
	require.Equal(t, 1, resp.Failed[0].Index)

	list, err := svc.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
}

func TestBulkCreateConnections_CapsAtThreePerRoom(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// legacy-tagged projector room pointing at a turar department with
	// five candidate rooms
	_, err := env.projector.BulkInsert(ctx, []*domain.ProjectorRoom{{
		Floor: 1, Block: "А", Department: "Хирургия", RoomCode: "101", RoomName: "Операционная",
		ConnectedTurarDepartment: sql.NullString{String: "Хирургия Турар", Valid: true},
	}})
	require.NoError(t, err)
	for _, room := range []string{"Кабинет 1", "Кабинет 2", "Кабинет 3", "Кабинет 4", "Кабинет 5"} {
		env.seedTurarRoom("Хирургия Турар", room, "")
	}

	svc := env.linking()
	resp, err := svc.BulkCreateConnections(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, resp.Created)

	list, err := svc.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, list.Items, 3)

	// rerun: the first three rooms now carry mirrors, so the next pass
	// links the remaining two and stops
	resp, err = svc.BulkCreateConnections(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Created)
}

func TestUniqueLinkedRooms_LastWriteWinsAndIdempotent(t *testing.T) {
	conns := []*domain.RoomConnection{
		{ID: "c1", TurarDepartment: "T", TurarRoom: "К1", ProjectorDepartment: "P", ProjectorRoom: "Оп"},
		{ID: "c2", TurarDepartment: "T", TurarRoom: "К1", ProjectorDepartment: "P", ProjectorRoom: "Оп"}, // duplicate tuple
		{ID: "c3", TurarDepartment: "T", TurarRoom: "К2", ProjectorDepartment: "P", ProjectorRoom: "Оп"},
		{ID: "c4", TurarDepartment: "T", TurarRoom: "К1", ProjectorDepartment: "P", ProjectorRoom: "Другая"},
	}

	got := UniqueLinkedRooms(conns, "projector", "P", "Оп")
	require.Len(t, got, 2)
	require.Equal(t, "К1", got[0].RoomName)
	require.Equal(t, "c2", got[0].ConnectionID) // last write wins
	require.Equal(t, "К2", got[1].RoomName)

	// idempotent: same inputs, same answer
	again := UniqueLinkedRooms(conns, "projector", "P", "Оп")
	require.Equal(t, got, again)

	// pure: input untouched
	require.Len(t, conns, 4)
	require.Equal(t, "c1", conns[0].ID)
}
