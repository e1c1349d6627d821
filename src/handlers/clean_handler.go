package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/model"
	"github.com/paulcha3/group4-BDM-case/src/parsers"
	"github.com/paulcha3/group4-BDM-case/src/security/validation"
	"github.com/paulcha3/group4-BDM-case/src/services"
	"github.com/paulcha3/group4-BDM-case/src/utils"
)

type CleanHandler struct {
	cleaningService    services.CleaningService
	maxUploadSizeBytes int64
}

func NewCleanHandler(service services.CleaningService, maxUploadSizeBytes int64) *CleanHandler {
	return &CleanHandler{
		cleaningService:    service,
		maxUploadSizeBytes: maxUploadSizeBytes,
	}
}

// HandleClean accepts a multipart product table and returns the stored run.
func (h *CleanHandler) HandleClean(w http.ResponseWriter, r *http.Request) {
	subject, ok := GetSubjectFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	maxMB := h.maxUploadSizeBytes / (1024 * 1024)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSizeBytes)
	if err := r.ParseMultipartForm(h.maxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "subject", subject, "error", err, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", maxMB), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "subject", subject, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "subject", subject, "fileSize", fileHeader.Size, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", maxMB), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "subject", subject, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated by magic bytes", "subject", subject, "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	result, err := h.cleaningService.CleanDataset(r.Context(), services.CleanRequest{
		Source:     file,
		SourceName: fileHeader.Filename,
		Format:     r.FormValue("format"),
		Subject:    subject,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParsingFailed):
			logger.L.Warn("Cleaning failed while parsing input", "subject", subject, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing input file: %v", err), http.StatusBadRequest)
		default:
			logger.L.Error("Internal error cleaning upload", "subject", subject, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, result.Run, http.StatusCreated)
}

// HandleListRuns returns the most recent runs, newest first.
func (h *CleanHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.SendJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.cleaningService.ListRuns(r.Context(), limit)
	if err != nil {
		logger.L.Error("Error listing cleaning runs", "error", err)
		utils.SendJSONError(w, "Error retrieving cleaning runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []model.CleaningRun{}
	}
	utils.SendJSON(w, runs, http.StatusOK)
}

// HandleGetRun returns one run summary with ETag support.
func (h *CleanHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := h.cleaningService.GetRun(r.Context(), id)
	if err != nil {
		h.sendRunError(w, id, err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	currentETag, etagErr := utils.GenerateETag(run)
	if etagErr != nil {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error", "runID", id, "error", etagErr)
	} else {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		if utils.ETagMatches(r.Header.Get("If-None-Match"), quotedETag) {
			logger.L.Debug("ETag match for cleaning run", "runID", id)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	utils.SendJSON(w, run, http.StatusOK)
}

// HandleGetRunRecords streams the cleaned rows of a run as CSV.
func (h *CleanHandler) HandleGetRunRecords(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ds, err := h.cleaningService.GetRunDataset(r.Context(), id)
	if err != nil {
		h.sendRunError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
	if err := parsers.NewCSVWriter(true).Write(w, ds); err != nil {
		logger.L.Error("Error writing cleaned records", "runID", id, "error", err)
	}
}

func (h *CleanHandler) sendRunError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, services.ErrRunNotFound) {
		utils.SendJSONError(w, "cleaning run not found", http.StatusNotFound)
		return
	}
	logger.L.Error("Error retrieving cleaning run", "runID", id, "error", err)
	utils.SendJSONError(w, "Error retrieving cleaning run", http.StatusInternalServerError)
}
