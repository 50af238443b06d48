package service

import (
	"context"
	"database/sql"
	"fmt"

	"medlink-data/internal/domain"
	"medlink-data/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService Excel 导出服务接口
type ExportService interface {
	// ExportProjector renders the full projector dataset as an xlsx
	// workbook, one sheet, link status decided from an in-memory
	// connections index.
	ExportProjector(ctx context.Context) ([]byte, error)
}

type exportService struct {
	projector   repository.ProjectorRoomsRepo
	connections repository.ConnectionsRepo
	logger      *zap.Logger
}

func NewExportService(projector repository.ProjectorRoomsRepo, connections repository.ConnectionsRepo, logger *zap.Logger) ExportService {
	return &exportService{projector: projector, connections: connections, logger: logger}
}

// ProjectorExportHeader 导出表头
var ProjectorExportHeader = []string{
	"Этаж",
	"Блок",
	"Отделение",
	"Код помещения",
	"Наименование помещения",
	"Площадь (м2)",
	"Код оборудования",
	"Наименование оборудования",
	"Ед. изм.",
	"Количество",
	"Примечания",
	"Связанное отделение Турар",
	"Связанный кабинет Турар",
	"Статус связи",
}

const exportSheetName = "Projector"

func (s *exportService) ExportProjector(ctx context.Context) ([]byte, error) {
	const pageSize = insertPageSize
	rows := []*domain.ProjectorRoom{}
	for page := 1; ; page++ {
		batch, total, err := s.projector.List(ctx, repository.ProjectorRoomFilters{}, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list projector rooms: %w", err)
		}
		rows = append(rows, batch...)
		if len(rows) >= total || len(batch) == 0 {
			break
		}
	}

	conns, err := s.connections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	linked := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		linked[c.ProjectorDepartment+"|"+c.ProjectorRoom] = struct{}{}
	}

	f := excelize.NewFile()
	// WriteTo needs the file open, close only on the error paths.

	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ProjectorExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(exportSheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for rowIdx, room := range rows {
		status := "Не связано"
		if _, ok := linked[room.Department+"|"+room.RoomName]; ok {
			status = "Связано"
		}

		values := []any{
			room.Floor,
			room.Block,
			room.Department,
			room.RoomCode,
			room.RoomName,
			nullFloatCell(room.Area),
			nullStringCell(room.EquipmentCode),
			nullStringCell(room.EquipmentName),
			nullStringCell(room.EquipmentUnit),
			nullIntCell(room.EquipmentQuantity),
			nullStringCell(room.Notes),
			nullStringCell(room.ConnectedTurarDepartment),
			nullStringCell(room.ConnectedTurarRoom),
			status,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(exportSheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}

	s.logger.Info("Projector export generated", zap.Int("rows", len(rows)))
	return buf.Bytes(), nil
}

func nullStringCell(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullFloatCell(nf sql.NullFloat64) any {
	if nf.Valid {
		return nf.Float64
	}
	return ""
}

func nullIntCell(ni sql.NullInt64) any {
	if ni.Valid {
		return ni.Int64
	}
	return ""
}
