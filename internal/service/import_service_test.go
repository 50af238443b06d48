package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const projectorHeader = "ЭТАЖ,БЛОК,ОТДЕЛЕНИЕ,КОД ПОМЕЩЕНИЯ,НАИМЕНОВАНИЕ ПОМЕЩЕНИЯ"

func TestPreviewProjector_NewAgainstEmptyDatabase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.importer()

	csv := projectorHeader + "\n1,А,Хирургия,101,Операционная\n"
	preview, err := svc.PreviewProjector(ctx, csv)
	require.NoError(t, err)
	require.Len(t, preview.New, 1)
	require.Empty(t, preview.Duplicates)
	require.Empty(t, preview.Errors)
}

func TestCommitProjector_ReimportClassifiesAsDuplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.importer()

	csv := projectorHeader + "\n1,А,Хирургия,101,Операционная\n"
	commit, err := svc.CommitProjector(ctx, csv)
	require.NoError(t, err)
	require.Equal(t, 1, commit.Inserted)
	require.Equal(t, 0, commit.Duplicates)

	preview, err := svc.PreviewProjector(ctx, csv)
	require.NoError(t, err)
	require.Empty(t, preview.New)
	require.Len(t, preview.Duplicates, 1)
}

func TestCommaAndDotFloorsNormalizeToTheSameKey(t *testing.T) {
	commaFloor, err := parseFlexibleFloat("3,5")
	require.NoError(t, err)
	dotFloor, err := parseFlexibleFloat("3.5")
	require.NoError(t, err)
	require.Equal(t, dotFloor, commaFloor)

	// a mezzanine floor already in the database makes the dot spelling
	// of the same row a duplicate
	env := newTestEnv()
	ctx := context.Background()
	env.seedProjectorRoom(commaFloor, "А", "Хирургия", "101", "Операционная", "")

	preview, err := env.importer().PreviewProjector(ctx, projectorHeader+"\n3.5,А,Хирургия,101,Операционная\n")
	require.NoError(t, err)
	require.Empty(t, preview.New)
	require.Len(t, preview.Duplicates, 1)
}

func TestPreviewProjector_ErrorsAreExhaustive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.importer()

	csv := strings.Join([]string{
		projectorHeader + ",Площадь (м2)",
		"abc,А,Хирургия,101,Операционная,12",
		"2,Б,Терапия,201,Кабинет,xyz",
		"3,В,Кардиология,301,Палата,40",
	}, "\n")

	preview, err := svc.PreviewProjector(ctx, csv)
	require.NoError(t, err)
	require.Len(t, preview.Errors, 2)
	require.Contains(t, preview.Errors[0], "Row 1: ЭТАЖ must be a number")
	require.Contains(t, preview.Errors[1], "Row 2: Площадь (м2) must be a number")
	// invalid rows are excluded from both partitions
	require.Len(t, preview.New, 1)
	require.Empty(t, preview.Duplicates)
}

func TestPreviewProjector_FieldCountMismatchRowsAreDropped(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.importer()

	csv := projectorHeader + "\n1,А,Хирургия,101\n2,Б,Терапия,201,Кабинет\n"
	preview, err := svc.PreviewProjector(ctx, csv)
	require.NoError(t, err)
	require.Len(t, preview.New, 1)
	require.Equal(t, "Кабинет", preview.New[0].RoomName)
	require.Empty(t, preview.Errors)
}

func TestPreviewProjector_MissingHeaderColumn(t *testing.T) {
	env := newTestEnv()
	svc := env.importer()

	preview, err := svc.PreviewProjector(context.Background(), "ЭТАЖ,БЛОК\n1,А\n")
	require.NoError(t, err)
	require.Empty(t, preview.New)
	require.NotEmpty(t, preview.Errors)
	require.Contains(t, preview.Errors[0], "ОТДЕЛЕНИЕ")
}

func TestPreviewTurar_QuantityMustBeInteger(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.importer()

	csv := "Отделение/Блок,Помещение/Кабинет,Код оборудования,Наименование,Кол-во\n" +
		"Хирургия Турар,Кабинет 1,T-1,Монитор,two\n" +
		"Хирургия Турар,Кабинет 2,T-2,Лампа,3\n"

	preview, err := svc.PreviewTurar(ctx, csv)
	require.NoError(t, err)
	require.Len(t, preview.Errors, 1)
	require.Contains(t, preview.Errors[0], "Row 1: Кол-во must be a number")
	require.Len(t, preview.New, 1)
	require.Equal(t, int64(3), preview.New[0].Quantity.Int64)
}

func TestCommitTurar_DuplicateByEquipmentCodeKey(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.importer()

	header := "Отделение/Блок,Помещение/Кабинет,Код оборудования,Наименование,Кол-во\n"
	_, err := svc.CommitTurar(ctx, header+"Хирургия Турар,Кабинет 1,T-1,Монитор,2\n")
	require.NoError(t, err)

	// same room, different equipment code → new row, not duplicate
	preview, err := svc.PreviewTurar(ctx, header+
		"Хирургия Турар,Кабинет 1,T-1,Монитор,2\n"+
		"Хирургия Турар,Кабинет 1,T-2,Лампа,1\n")
	require.NoError(t, err)
	require.Len(t, preview.Duplicates, 1)
	require.Len(t, preview.New, 1)
}

func TestParseCSVLines_StripsQuotesAndBlankLines(t *testing.T) {
	header, records := parseCSVLines("\"A\",B\r\n\n\"x\",y\r\n")
	require.Equal(t, []string{"A", "B"}, header)
	require.Len(t, records, 1)
	require.Equal(t, []string{"x", "y"}, records[0])
}
