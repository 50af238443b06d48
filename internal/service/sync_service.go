package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medlink-data/internal/domain"
	"medlink-data/internal/repository"
	"medlink-data/internal/store"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DatasetClient 外部数据源客户端
// Fetches the canonical dataset dumps (combined_floors.json,
// turar_full.json) published by the facility data pipeline.
type DatasetClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewDatasetClient(baseURL string, logger *zap.Logger) *DatasetClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60*time.Second). // full dumps run to tens of thousands of rows
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	return &DatasetClient{httpClient: client, logger: logger}
}

// projectorRecord combined_floors.json 中的一行
type projectorRecord struct {
	Floor             float64  `json:"floor"`
	Block             string   `json:"block"`
	Department        string   `json:"department"`
	RoomCode          string   `json:"room_code"`
	RoomName          string   `json:"room_name"`
	Area              *float64 `json:"area"`
	EquipmentCode     *string  `json:"equipment_code"`
	EquipmentName     *string  `json:"equipment_name"`
	EquipmentUnit     *string  `json:"unit"`
	EquipmentQuantity *int64   `json:"quantity"`
	Notes             *string  `json:"notes"`
}

// turarRecord turar_full.json 中的一行
type turarRecord struct {
	Department    string  `json:"department"`
	RoomName      string  `json:"room_name"`
	EquipmentCode *string `json:"equipment_code"`
	EquipmentName *string `json:"equipment_name"`
	Quantity      *int64  `json:"quantity"`
}

func (c *DatasetClient) fetchProjector(ctx context.Context, file string) ([]projectorRecord, error) {
	var records []projectorRecord
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&records).
		Get("/" + file)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", file, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch %s: status %d", file, resp.StatusCode())
	}
	return records, nil
}

func (c *DatasetClient) fetchTurar(ctx context.Context, file string) ([]turarRecord, error) {
	var records []turarRecord
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&records).
		Get("/" + file)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", file, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch %s: status %d", file, resp.StatusCode())
	}
	return records, nil
}

// SyncService 数据同步服务接口
// Full syncs truncate the target table and reload it from the source
// dump; batch loads reload one 1000-row page at a time so an admin
// loop can drive very large dumps without a long-lived request.
type SyncService interface {
	SyncProjector(ctx context.Context) (*SyncResponse, error)
	SyncTurar(ctx context.Context) (*SyncResponse, error)
	SyncAll(ctx context.Context) (*SyncAllResponse, error)
	LoadProjectorBatch(ctx context.Context, req LoadBatchRequest) (*LoadBatchResponse, error)
	LoadTurarBatch(ctx context.Context, req LoadBatchRequest) (*LoadBatchResponse, error)
}

type syncService struct {
	client        *DatasetClient
	projectorFile string
	turarFile     string
	projector     repository.ProjectorRoomsRepo
	turar         repository.TurarRoomsRepo
	versions      *store.VersionTracker
	logger        *zap.Logger
}

func NewSyncService(
	client *DatasetClient,
	projectorFile, turarFile string,
	projector repository.ProjectorRoomsRepo,
	turar repository.TurarRoomsRepo,
	versions *store.VersionTracker,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		client:        client,
		projectorFile: projectorFile,
		turarFile:     turarFile,
		projector:     projector,
		turar:         turar,
		versions:      versions,
		logger:        logger,
	}
}

// ============================================
// 请求/响应结构
// ============================================

type SyncResponse struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
}

type SyncAllResponse struct {
	Projector *SyncResponse `json:"projector"`
	Turar     *SyncResponse `json:"turar"`
}

type LoadBatchRequest struct {
	Batch int `json:"batch"` // 0-based page index; batch 0 truncates first
}

type LoadBatchResponse struct {
	Inserted  int  `json:"inserted"`
	HasMore   bool `json:"has_more"`
	NextBatch int  `json:"next_batch"`
}

// ============================================
// 实现
// ============================================

func (s *syncService) SyncProjector(ctx context.Context) (*SyncResponse, error) {
	records, err := s.client.fetchProjector(ctx, s.projectorFile)
	if err != nil {
		return nil, err
	}
	rows := make([]*domain.ProjectorRoom, 0, len(records))
	for _, rec := range records {
		rows = append(rows, projectorRecordToRow(rec))
	}

	if err := s.projector.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("failed to truncate projector table: %w", err)
	}
	inserted, err := s.insertProjectorPaged(ctx, rows)
	if err != nil {
		return nil, err
	}

	s.versions.Bump(ctx, store.ViewProjectorEquipment)
	s.logger.Info("Projector dataset synced",
		zap.Int("fetched", len(records)),
		zap.Int("inserted", inserted))
	return &SyncResponse{Fetched: len(records), Inserted: inserted}, nil
}

func (s *syncService) SyncTurar(ctx context.Context) (*SyncResponse, error) {
	records, err := s.client.fetchTurar(ctx, s.turarFile)
	if err != nil {
		return nil, err
	}
	rows := make([]*domain.TurarRoom, 0, len(records))
	for _, rec := range records {
		rows = append(rows, turarRecordToRow(rec))
	}

	if err := s.turar.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("failed to truncate turar table: %w", err)
	}
	inserted, err := s.insertTurarPaged(ctx, rows)
	if err != nil {
		return nil, err
	}

	s.versions.Bump(ctx, store.ViewTurarMedical)
	s.logger.Info("Turar dataset synced",
		zap.Int("fetched", len(records)),
		zap.Int("inserted", inserted))
	return &SyncResponse{Fetched: len(records), Inserted: inserted}, nil
}

func (s *syncService) SyncAll(ctx context.Context) (*SyncAllResponse, error) {
	proj, err := s.SyncProjector(ctx)
	if err != nil {
		return nil, err
	}
	turar, err := s.SyncTurar(ctx)
	if err != nil {
		return nil, err
	}
	return &SyncAllResponse{Projector: proj, Turar: turar}, nil
}

func (s *syncService) LoadProjectorBatch(ctx context.Context, req LoadBatchRequest) (*LoadBatchResponse, error) {
	if req.Batch < 0 {
		return nil, fmt.Errorf("batch must be >= 0")
	}
	records, err := s.client.fetchProjector(ctx, s.projectorFile)
	if err != nil {
		return nil, err
	}

	if req.Batch == 0 {
		if err := s.projector.Truncate(ctx); err != nil {
			return nil, fmt.Errorf("failed to truncate projector table: %w", err)
		}
	}

	start := req.Batch * insertPageSize
	if start >= len(records) {
		return &LoadBatchResponse{HasMore: false, NextBatch: req.Batch}, nil
	}
	end := start + insertPageSize
	if end > len(records) {
		end = len(records)
	}

	rows := make([]*domain.ProjectorRoom, 0, end-start)
	for _, rec := range records[start:end] {
		rows = append(rows, projectorRecordToRow(rec))
	}
	inserted, err := s.projector.BulkInsert(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to insert projector batch %d: %w", req.Batch, err)
	}

	hasMore := end < len(records)
	if !hasMore {
		s.versions.Bump(ctx, store.ViewProjectorEquipment)
	}
	return &LoadBatchResponse{Inserted: inserted, HasMore: hasMore, NextBatch: req.Batch + 1}, nil
}

func (s *syncService) LoadTurarBatch(ctx context.Context, req LoadBatchRequest) (*LoadBatchResponse, error) {
	if req.Batch < 0 {
		return nil, fmt.Errorf("batch must be >= 0")
	}
	records, err := s.client.fetchTurar(ctx, s.turarFile)
	if err != nil {
		return nil, err
	}

	if req.Batch == 0 {
		if err := s.turar.Truncate(ctx); err != nil {
			return nil, fmt.Errorf("failed to truncate turar table: %w", err)
		}
	}

	start := req.Batch * insertPageSize
	if start >= len(records) {
		return &LoadBatchResponse{HasMore: false, NextBatch: req.Batch}, nil
	}
	end := start + insertPageSize
	if end > len(records) {
		end = len(records)
	}

	rows := make([]*domain.TurarRoom, 0, end-start)
	for _, rec := range records[start:end] {
		rows = append(rows, turarRecordToRow(rec))
	}
	inserted, err := s.turar.BulkInsert(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to insert turar batch %d: %w", req.Batch, err)
	}

	hasMore := end < len(records)
	if !hasMore {
		s.versions.Bump(ctx, store.ViewTurarMedical)
	}
	return &LoadBatchResponse{Inserted: inserted, HasMore: hasMore, NextBatch: req.Batch + 1}, nil
}

func (s *syncService) insertProjectorPaged(ctx context.Context, rows []*domain.ProjectorRoom) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += insertPageSize {
		end := start + insertPageSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := s.projector.BulkInsert(ctx, rows[start:end])
		if err != nil {
			return inserted, fmt.Errorf("failed to insert projector rows: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

func (s *syncService) insertTurarPaged(ctx context.Context, rows []*domain.TurarRoom) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += insertPageSize {
		end := start + insertPageSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := s.turar.BulkInsert(ctx, rows[start:end])
		if err != nil {
			return inserted, fmt.Errorf("failed to insert turar rows: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

func projectorRecordToRow(rec projectorRecord) *domain.ProjectorRoom {
	row := &domain.ProjectorRoom{
		Floor:      rec.Floor,
		Block:      rec.Block,
		Department: rec.Department,
		RoomCode:   rec.RoomCode,
		RoomName:   rec.RoomName,
	}
	if rec.Area != nil {
		row.Area = sql.NullFloat64{Float64: *rec.Area, Valid: true}
	}
	if rec.EquipmentCode != nil {
		row.EquipmentCode = sql.NullString{String: *rec.EquipmentCode, Valid: true}
	}
	if rec.EquipmentName != nil {
		row.EquipmentName = sql.NullString{String: *rec.EquipmentName, Valid: true}
	}
	if rec.EquipmentUnit != nil {
		row.EquipmentUnit = sql.NullString{String: *rec.EquipmentUnit, Valid: true}
	}
	if rec.EquipmentQuantity != nil {
		row.EquipmentQuantity = sql.NullInt64{Int64: *rec.EquipmentQuantity, Valid: true}
	}
	if rec.Notes != nil {
		row.Notes = sql.NullString{String: *rec.Notes, Valid: true}
	}
	return row
}

func turarRecordToRow(rec turarRecord) *domain.TurarRoom {
	row := &domain.TurarRoom{
		Department: rec.Department,
		RoomName:   rec.RoomName,
	}
	if rec.EquipmentCode != nil {
		row.EquipmentCode = sql.NullString{String: *rec.EquipmentCode, Valid: true}
	}
	if rec.EquipmentName != nil {
		row.EquipmentName = sql.NullString{String: *rec.EquipmentName, Valid: true}
	}
	if rec.Quantity != nil {
		row.Quantity = sql.NullInt64{Int64: *rec.Quantity, Valid: true}
	}
	return row
}
