package httpapi

import (
	"net/http"

	"medlink-data/internal/service"

	"go.uber.org/zap"
)

// CSV payloads: full imports run to a few MB at most.
const maxCSVBytes = 16 << 20

// ImportExportHandler CSV 导入与 Excel 导出 Handler
type ImportExportHandler struct {
	importer service.ImportService
	exporter service.ExportService
	logger   *zap.Logger
}

func NewImportExportHandler(importer service.ImportService, exporter service.ExportService, logger *zap.Logger) *ImportExportHandler {
	return &ImportExportHandler{importer: importer, exporter: exporter, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ImportExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/data/api/v1/import/projector/preview" && r.Method == http.MethodPost:
		h.PreviewProjector(w, r)
	case r.URL.Path == "/data/api/v1/import/projector/commit" && r.Method == http.MethodPost:
		h.CommitProjector(w, r)
	case r.URL.Path == "/data/api/v1/import/turar/preview" && r.Method == http.MethodPost:
		h.PreviewTurar(w, r)
	case r.URL.Path == "/data/api/v1/import/turar/commit" && r.Method == http.MethodPost:
		h.CommitTurar(w, r)
	case r.URL.Path == "/data/api/v1/export/projector.xlsx" && r.Method == http.MethodGet:
		h.ExportProjector(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ImportExportHandler) PreviewProjector(w http.ResponseWriter, r *http.Request) {
	csvText, err := readBodyText(r, maxCSVBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read request body"))
		return
	}

	resp, err := h.importer.PreviewProjector(r.Context(), csvText)
	if err != nil {
		h.logger.Error("Projector import preview failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ImportExportHandler) CommitProjector(w http.ResponseWriter, r *http.Request) {
	csvText, err := readBodyText(r, maxCSVBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read request body"))
		return
	}

	resp, err := h.importer.CommitProjector(r.Context(), csvText)
	if err != nil {
		h.logger.Error("Projector import commit failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ImportExportHandler) PreviewTurar(w http.ResponseWriter, r *http.Request) {
	csvText, err := readBodyText(r, maxCSVBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read request body"))
		return
	}

	resp, err := h.importer.PreviewTurar(r.Context(), csvText)
	if err != nil {
		h.logger.Error("Turar import preview failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ImportExportHandler) CommitTurar(w http.ResponseWriter, r *http.Request) {
	csvText, err := readBodyText(r, maxCSVBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read request body"))
		return
	}

	resp, err := h.importer.CommitTurar(r.Context(), csvText)
	if err != nil {
		h.logger.Error("Turar import commit failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ImportExportHandler) ExportProjector(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.ExportProjector(r.Context())
	if err != nil {
		h.logger.Error("Projector export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="projector.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
