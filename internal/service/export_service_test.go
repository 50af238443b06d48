package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportProjector_HeadersAndLinkStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.seedProjectorRoom(1, "А", "Хирургия", "101", "Операционная", "EQ-1")
	env.seedProjectorRoom(2, "Б", "Терапия", "201", "Кабинет", "EQ-2")
	env.seedTurarRoom("Хирургия Турар", "Кабинет 1", "")

	_, err := env.linking().CreateConnection(ctx, CreateConnectionRequest{
		TurarDepartment:     "Хирургия Турар",
		TurarRoom:           "Кабинет 1",
		ProjectorDepartment: "Хирургия",
		ProjectorRoom:       "Операционная",
	})
	require.NoError(t, err)

	data, err := env.exporter().ExportProjector(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 data rows

	require.Equal(t, ProjectorExportHeader, rows[0])

	statusCol := len(ProjectorExportHeader) - 1
	byRoom := map[string][]string{}
	for _, row := range rows[1:] {
		byRoom[row[4]] = row
	}

	linked := byRoom["Операционная"]
	require.Equal(t, "Связано", linked[statusCol])
	require.Equal(t, "Хирургия Турар", linked[11])
	require.Equal(t, "Кабинет 1", linked[12])

	unlinked := byRoom["Кабинет"]
	require.Equal(t, "Не связано", unlinked[statusCol])
}

func TestExportProjector_EmptyDatasetStillHasHeader(t *testing.T) {
	env := newTestEnv()

	data, err := env.exporter().ExportProjector(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, ProjectorExportHeader, rows[0])
}
