package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"medlink-data/internal/domain"
	"medlink-data/internal/repository"
	"medlink-data/internal/store"

	"go.uber.org/zap"
)

// Bulk inserts are paged to stay under request-size limits.
const insertPageSize = 1000

// ImportService CSV 导入服务接口
// Parses user-supplied CSV text, validates it exhaustively, partitions
// rows into new vs duplicate against the existing composite keys, and
// inserts only the new partition.
type ImportService interface {
	PreviewProjector(ctx context.Context, csvText string) (*ProjectorImportPreview, error)
	CommitProjector(ctx context.Context, csvText string) (*ImportCommitResponse, error)
	PreviewTurar(ctx context.Context, csvText string) (*TurarImportPreview, error)
	CommitTurar(ctx context.Context, csvText string) (*ImportCommitResponse, error)
}

type importService struct {
	projector repository.ProjectorRoomsRepo
	turar     repository.TurarRoomsRepo
	versions  *store.VersionTracker
	logger    *zap.Logger
}

func NewImportService(
	projector repository.ProjectorRoomsRepo,
	turar repository.TurarRoomsRepo,
	versions *store.VersionTracker,
	logger *zap.Logger,
) ImportService {
	return &importService{projector: projector, turar: turar, versions: versions, logger: logger}
}

// ============================================
// 响应结构
// ============================================

type ProjectorImportPreview struct {
	New        []*domain.ProjectorRoom `json:"new_records"`
	Duplicates []*domain.ProjectorRoom `json:"duplicate_records"`
	Errors     []string                `json:"errors"`
}

type TurarImportPreview struct {
	New        []*domain.TurarRoom `json:"new_records"`
	Duplicates []*domain.TurarRoom `json:"duplicate_records"`
	Errors     []string            `json:"errors"`
}

type ImportCommitResponse struct {
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// ============================================
// 表头映射（俄语列名 → 字段）
// ============================================

// Projector dataset headers. The first five are required.
const (
	hdrFloor         = "ЭТАЖ"
	hdrBlock         = "БЛОК"
	hdrDepartment    = "ОТДЕЛЕНИЕ"
	hdrRoomCode      = "КОД ПОМЕЩЕНИЯ"
	hdrRoomName      = "НАИМЕНОВАНИЕ ПОМЕЩЕНИЯ"
	hdrArea          = "Площадь (м2)"
	hdrEquipCode     = "Код оборудования"
	hdrEquipName     = "Наименование оборудования"
	hdrEquipUnit     = "Ед. изм."
	hdrEquipQuantity = "Количество"
	hdrNotes         = "Примечания"
)

// Turar dataset headers. All five are required.
const (
	hdrTurarDepartment = "Отделение/Блок"
	hdrTurarRoom       = "Помещение/Кабинет"
	hdrTurarEquipCode  = "Код оборудования"
	hdrTurarEquipName  = "Наименование"
	hdrTurarQuantity   = "Кол-во"
)

// ============================================
// 实现
// ============================================

func (s *importService) PreviewProjector(ctx context.Context, csvText string) (*ProjectorImportPreview, error) {
	rows, errs := parseProjectorCSV(csvText)

	existing, err := s.projector.ListCompositeKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing keys: %w", err)
	}

	preview := &ProjectorImportPreview{
		New:        []*domain.ProjectorRoom{},
		Duplicates: []*domain.ProjectorRoom{},
		Errors:     errs,
	}
	for _, row := range rows {
		if _, dup := existing[projectorCompositeKey(row)]; dup {
			preview.Duplicates = append(preview.Duplicates, row)
		} else {
			preview.New = append(preview.New, row)
		}
	}
	return preview, nil
}

func (s *importService) CommitProjector(ctx context.Context, csvText string) (*ImportCommitResponse, error) {
	preview, err := s.PreviewProjector(ctx, csvText)
	if err != nil {
		return nil, err
	}

	inserted := 0
	for start := 0; start < len(preview.New); start += insertPageSize {
		end := start + insertPageSize
		if end > len(preview.New) {
			end = len(preview.New)
		}
		n, err := s.projector.BulkInsert(ctx, preview.New[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to insert projector rows: %w", err)
		}
		inserted += n
	}

	if inserted > 0 {
		s.versions.Bump(ctx, store.ViewProjectorEquipment)
	}
	s.logger.Info("Projector CSV import committed",
		zap.Int("inserted", inserted),
		zap.Int("duplicates", len(preview.Duplicates)),
		zap.Int("errors", len(preview.Errors)))
	return &ImportCommitResponse{
		Inserted:   inserted,
		Duplicates: len(preview.Duplicates),
		Errors:     preview.Errors,
	}, nil
}

func (s *importService) PreviewTurar(ctx context.Context, csvText string) (*TurarImportPreview, error) {
	rows, errs := parseTurarCSV(csvText)

	existing, err := s.turar.ListCompositeKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing keys: %w", err)
	}

	preview := &TurarImportPreview{
		New:        []*domain.TurarRoom{},
		Duplicates: []*domain.TurarRoom{},
		Errors:     errs,
	}
	for _, row := range rows {
		if _, dup := existing[turarCompositeKey(row)]; dup {
			preview.Duplicates = append(preview.Duplicates, row)
		} else {
			preview.New = append(preview.New, row)
		}
	}
	return preview, nil
}

func (s *importService) CommitTurar(ctx context.Context, csvText string) (*ImportCommitResponse, error) {
	preview, err := s.PreviewTurar(ctx, csvText)
	if err != nil {
		return nil, err
	}

	inserted := 0
	for start := 0; start < len(preview.New); start += insertPageSize {
		end := start + insertPageSize
		if end > len(preview.New) {
			end = len(preview.New)
		}
		n, err := s.turar.BulkInsert(ctx, preview.New[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to insert turar rows: %w", err)
		}
		inserted += n
	}

	if inserted > 0 {
		s.versions.Bump(ctx, store.ViewTurarMedical)
	}
	s.logger.Info("Turar CSV import committed",
		zap.Int("inserted", inserted),
		zap.Int("duplicates", len(preview.Duplicates)),
		zap.Int("errors", len(preview.Errors)))
	return &ImportCommitResponse{
		Inserted:   inserted,
		Duplicates: len(preview.Duplicates),
		Errors:     preview.Errors,
	}, nil
}

// ============================================
// CSV 解析
// ============================================

// parseCSVLines splits CSV text without RFC-4180 escaping: lines on
// newlines, fields on commas, surrounding quotes stripped. Rows whose
// field count differs from the header are dropped. Embedded commas or
// quotes inside a field will corrupt the row; this matches the format
// the templates produce.
func parseCSVLines(csvText string) ([]string, [][]string) {
	lines := strings.Split(strings.ReplaceAll(csvText, "\r\n", "\n"), "\n")

	var header []string
	var records [][]string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.Trim(strings.TrimSpace(fields[i]), `"`)
		}
		if header == nil {
			header = fields
			continue
		}
		if len(fields) != len(header) {
			continue
		}
		records = append(records, fields)
	}
	return header, records
}

// parseFlexibleFloat accepts either "." or "," as decimal separator.
func parseFlexibleFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

func fieldAt(record []string, idx map[string]int, name string) (string, bool) {
	i, ok := idx[name]
	if !ok {
		return "", false
	}
	return record[i], true
}

// parseProjectorCSV validates every row and accumulates all errors
// instead of failing on the first. Row numbers are 1-based counting
// from the first data row.
func parseProjectorCSV(csvText string) ([]*domain.ProjectorRoom, []string) {
	header, records := parseCSVLines(csvText)
	errs := []string{}
	if header == nil {
		return nil, []string{"header row is required"}
	}

	idx := headerIndex(header)
	for _, required := range []string{hdrFloor, hdrBlock, hdrDepartment, hdrRoomCode, hdrRoomName} {
		if _, ok := idx[required]; !ok {
			errs = append(errs, fmt.Sprintf("missing required column: %s", required))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	rows := []*domain.ProjectorRoom{}
	for n, record := range records {
		rowNum := n + 1
		rowValid := true

		row := &domain.ProjectorRoom{}
		floorRaw, _ := fieldAt(record, idx, hdrFloor)
		floor, err := parseFlexibleFloat(floorRaw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Row %d: %s must be a number", rowNum, hdrFloor))
			rowValid = false
		}
		row.Floor = floor
		row.Block, _ = fieldAt(record, idx, hdrBlock)
		row.Department, _ = fieldAt(record, idx, hdrDepartment)
		row.RoomCode, _ = fieldAt(record, idx, hdrRoomCode)
		row.RoomName, _ = fieldAt(record, idx, hdrRoomName)
		for _, pair := range []struct{ name, value string }{
			{hdrBlock, row.Block},
			{hdrDepartment, row.Department},
			{hdrRoomCode, row.RoomCode},
			{hdrRoomName, row.RoomName},
		} {
			if strings.TrimSpace(pair.value) == "" {
				errs = append(errs, fmt.Sprintf("Row %d: %s is required", rowNum, pair.name))
				rowValid = false
			}
		}

		if raw, ok := fieldAt(record, idx, hdrArea); ok && strings.TrimSpace(raw) != "" {
			area, err := parseFlexibleFloat(raw)
			if err != nil {
				errs = append(errs, fmt.Sprintf("Row %d: %s must be a number", rowNum, hdrArea))
				rowValid = false
			} else {
				row.Area = sql.NullFloat64{Float64: area, Valid: true}
			}
		}
		if raw, ok := fieldAt(record, idx, hdrEquipQuantity); ok && strings.TrimSpace(raw) != "" {
			qty, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("Row %d: %s must be a number", rowNum, hdrEquipQuantity))
				rowValid = false
			} else {
				row.EquipmentQuantity = sql.NullInt64{Int64: qty, Valid: true}
			}
		}
		if raw, ok := fieldAt(record, idx, hdrEquipCode); ok && strings.TrimSpace(raw) != "" {
			row.EquipmentCode = sql.NullString{String: raw, Valid: true}
		}
		if raw, ok := fieldAt(record, idx, hdrEquipName); ok && strings.TrimSpace(raw) != "" {
			row.EquipmentName = sql.NullString{String: raw, Valid: true}
		}
		if raw, ok := fieldAt(record, idx, hdrEquipUnit); ok && strings.TrimSpace(raw) != "" {
			row.EquipmentUnit = sql.NullString{String: raw, Valid: true}
		}
		if raw, ok := fieldAt(record, idx, hdrNotes); ok && strings.TrimSpace(raw) != "" {
			row.Notes = sql.NullString{String: raw, Valid: true}
		}

		if rowValid {
			rows = append(rows, row)
		}
	}
	return rows, errs
}

func parseTurarCSV(csvText string) ([]*domain.TurarRoom, []string) {
	header, records := parseCSVLines(csvText)
	errs := []string{}
	if header == nil {
		return nil, []string{"header row is required"}
	}

	idx := headerIndex(header)
	for _, required := range []string{hdrTurarDepartment, hdrTurarRoom, hdrTurarEquipCode, hdrTurarEquipName, hdrTurarQuantity} {
		if _, ok := idx[required]; !ok {
			errs = append(errs, fmt.Sprintf("missing required column: %s", required))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	rows := []*domain.TurarRoom{}
	for n, record := range records {
		rowNum := n + 1
		rowValid := true

		row := &domain.TurarRoom{}
		row.Department, _ = fieldAt(record, idx, hdrTurarDepartment)
		row.RoomName, _ = fieldAt(record, idx, hdrTurarRoom)
		for _, pair := range []struct{ name, value string }{
			{hdrTurarDepartment, row.Department},
			{hdrTurarRoom, row.RoomName},
		} {
			if strings.TrimSpace(pair.value) == "" {
				errs = append(errs, fmt.Sprintf("Row %d: %s is required", rowNum, pair.name))
				rowValid = false
			}
		}

		if raw, _ := fieldAt(record, idx, hdrTurarEquipCode); strings.TrimSpace(raw) != "" {
			row.EquipmentCode = sql.NullString{String: raw, Valid: true}
		}
		if raw, _ := fieldAt(record, idx, hdrTurarEquipName); strings.TrimSpace(raw) != "" {
			row.EquipmentName = sql.NullString{String: raw, Valid: true}
		}
		if raw, _ := fieldAt(record, idx, hdrTurarQuantity); strings.TrimSpace(raw) != "" {
			qty, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("Row %d: %s must be a number", rowNum, hdrTurarQuantity))
				rowValid = false
			} else {
				row.Quantity = sql.NullInt64{Int64: qty, Valid: true}
			}
		}

		if rowValid {
			rows = append(rows, row)
		}
	}
	return rows, errs
}

// ============================================
// 组合键
// ============================================

// projectorCompositeKey must format floors exactly like the repo's
// ListCompositeKeys so "3,5" and "3.5" classify identically.
func projectorCompositeKey(r *domain.ProjectorRoom) string {
	return strconv.FormatFloat(r.Floor, 'f', -1, 64) + "|" + r.Block + "|" + r.Department + "|" + r.RoomCode + "|" + r.RoomName
}

func turarCompositeKey(r *domain.TurarRoom) string {
	code := ""
	if r.EquipmentCode.Valid {
		code = r.EquipmentCode.String
	}
	return r.Department + "|" + r.RoomName + "|" + code
}
