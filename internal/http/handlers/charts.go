package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-portal/internal/archive"
	"github.com/wolfman30/clinic-portal/internal/charts"
	"github.com/wolfman30/clinic-portal/internal/compliance"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// ChartsHandler serves SOAP notes and their attachments.
type ChartsHandler struct {
	gw       gateway.Gateway
	files    *archive.Store
	audit    *compliance.AuditService
	contacts ContactSource
	logger   *logging.Logger
	now      func() time.Time
}

// NewChartsHandler creates the charts handler. files and audit may be nil.
func NewChartsHandler(gw gateway.Gateway, files *archive.Store, audit *compliance.AuditService, contacts ContactSource, logger *logging.Logger) *ChartsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChartsHandler{gw: gw, files: files, audit: audit, contacts: contacts, logger: logger, now: time.Now}
}

// FileView is an attachment with its download path.
type FileView struct {
	charts.File
	DownloadURL string `json:"downloadUrl"`
}

// ListRecords returns a patient's chart, newest visit first.
// GET /api/patients/{patientID}/records
func (h *ChartsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	patientID := chi.URLParam(r, "patientID")
	if _, err := h.gw.GetPatient(r.Context(), patientID); err != nil {
		writeGatewayError(w, h.logger, "patient", err)
		return
	}
	h.writeRecords(w, r, user, patientID)
}

// NewRecordDraft returns the blank SOAP form with default vitals.
// GET /api/patients/{patientID}/records/new
func (h *ChartsHandler) NewRecordDraft(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if _, err := h.gw.GetPatient(r.Context(), patientID); err != nil {
		writeGatewayError(w, h.logger, "patient", err)
		return
	}
	respond.JSON(w, http.StatusOK, charts.NewRecordDraft(patientID, h.now().UTC()))
}

// CreateRecord appends a SOAP note written by the signed-in provider.
// POST /api/patients/{patientID}/records
func (h *ChartsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	patientID := chi.URLParam(r, "patientID")
	if _, err := h.gw.GetPatient(r.Context(), patientID); err != nil {
		writeGatewayError(w, h.logger, "patient", err)
		return
	}

	var req charts.Record
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	record := charts.NewRecordDraft(patientID, h.now().UTC())
	if !req.VisitDate.IsZero() {
		record.VisitDate = req.VisitDate
	}
	if req.VisitType != "" {
		record.VisitType = req.VisitType
	}
	if req.VitalSigns != (charts.VitalSigns{}) {
		record.VitalSigns = req.VitalSigns
	}
	record.ProviderID = user.ID
	record.ChiefComplaint = req.ChiefComplaint
	record.Subjective = req.Subjective
	record.Objective = req.Objective
	record.Assessment = req.Assessment
	record.Plan = req.Plan

	created, err := h.gw.CreateRecord(r.Context(), record)
	if err != nil {
		writeGatewayError(w, h.logger, "record", err)
		return
	}
	recordAccess(r, h.audit, h.logger, user, compliance.EventRecordCreated, patientID, "medical_record", created.ID)
	h.logger.Info("medical record created", "record_id", created.ID, "patient_id", patientID, "provider_id", user.ID)
	respond.JSON(w, http.StatusCreated, created)
}

// ListOwnRecords returns the signed-in patient's chart.
// GET /api/me/records
func (h *ChartsHandler) ListOwnRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, ok := ownProfile(w, r, h.gw, h.contacts, h.logger, user)
	if !ok {
		return
	}
	h.writeRecords(w, r, user, profile.ID)
}

func (h *ChartsHandler) writeRecords(w http.ResponseWriter, r *http.Request, user session.User, patientID string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records, err := h.gw.ListRecords(r.Context(), patientID, limit)
	if err != nil {
		writeGatewayError(w, h.logger, "records", err)
		return
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	recordAccess(r, h.audit, h.logger, user, compliance.EventRecordsViewed, patientID, "medical_record", ids...)
	respond.JSON(w, http.StatusOK, map[string]any{"records": records})
}

// UploadFile stores a multipart "file" against a record.
// POST /api/records/{recordID}/files
func (h *ChartsHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !h.files.Enabled() {
		respond.Error(w, http.StatusServiceUnavailable, "attachments are not configured")
		return
	}
	record, ok := h.visibleRecord(w, r, user)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, archive.MaxFileBytes+1<<20)
	upload, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.Error(w, http.StatusRequestEntityTooLarge, archive.ErrTooLarge.Error())
			return
		}
		respond.Error(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer upload.Close()

	obj, err := h.files.Put(r.Context(), record.ID, header.Filename, header.Header.Get("Content-Type"), upload, header.Size)
	switch {
	case errors.Is(err, archive.ErrTooLarge):
		respond.Error(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, archive.ErrFileType):
		respond.Error(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case errors.Is(err, archive.ErrFileNameBlank):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to store attachment", "record_id", record.ID, "error", err)
		respond.Error(w, http.StatusBadGateway, "failed to store file")
		return
	}

	file, err := h.gw.CreateFile(r.Context(), charts.File{
		RecordID:   record.ID,
		FileName:   obj.FileName,
		FileType:   obj.ContentType,
		FileURL:    obj.Key,
		UploadedBy: user.ID,
	})
	if err != nil {
		if delErr := h.files.Delete(context.WithoutCancel(r.Context()), obj.Key); delErr != nil {
			h.logger.Error("orphaned chart attachment", "record_id", record.ID, "s3_key", obj.Key, "error", delErr)
		}
		writeGatewayError(w, h.logger, "file", err)
		return
	}
	recordAccess(r, h.audit, h.logger, user, compliance.EventFileUploaded, record.PatientID, "medical_file", file.ID)
	respond.JSON(w, http.StatusCreated, fileView(file))
}

// ListFiles returns a record's attachments.
// GET /api/records/{recordID}/files
func (h *ChartsHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	record, ok := h.visibleRecord(w, r, user)
	if !ok {
		return
	}
	files, err := h.gw.ListFiles(r.Context(), record.ID)
	if err != nil {
		writeGatewayError(w, h.logger, "files", err)
		return
	}
	out := make([]FileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView(f))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"files": out})
}

// DownloadFile streams an attachment.
// GET /api/records/{recordID}/files/{fileID}
func (h *ChartsHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	record, ok := h.visibleRecord(w, r, user)
	if !ok {
		return
	}
	files, err := h.gw.ListFiles(r.Context(), record.ID)
	if err != nil {
		writeGatewayError(w, h.logger, "files", err)
		return
	}
	fileID := chi.URLParam(r, "fileID")
	var file *charts.File
	for i := range files {
		if files[i].ID == fileID {
			file = &files[i]
			break
		}
	}
	if file == nil {
		respond.Error(w, http.StatusNotFound, "file not found")
		return
	}

	body, obj, err := h.files.Open(r.Context(), file.FileURL)
	switch {
	case errors.Is(err, archive.ErrDisabled):
		respond.Error(w, http.StatusServiceUnavailable, "attachments are not configured")
		return
	case errors.Is(err, archive.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "file not found")
		return
	case err != nil:
		h.logger.Error("failed to open attachment", "file_id", file.ID, "error", err)
		respond.Error(w, http.StatusBadGateway, "failed to read file")
		return
	}
	defer body.Close()

	recordAccess(r, h.audit, h.logger, user, compliance.EventFileDownloaded, record.PatientID, "medical_file", file.ID)
	contentType := obj.ContentType
	if contentType == "" {
		contentType = file.FileType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("attachment stream interrupted", "file_id", file.ID, "error", err)
	}
}

// visibleRecord loads {recordID}; patients only see records on their own profile.
func (h *ChartsHandler) visibleRecord(w http.ResponseWriter, r *http.Request, user session.User) (charts.Record, bool) {
	record, err := h.gw.GetRecord(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		writeGatewayError(w, h.logger, "record", err)
		return charts.Record{}, false
	}
	if user.Role == session.RolePatient {
		profile, ok := ownProfile(w, r, h.gw, h.contacts, h.logger, user)
		if !ok {
			return charts.Record{}, false
		}
		if profile.ID != record.PatientID {
			respond.Error(w, http.StatusNotFound, "record not found")
			return charts.Record{}, false
		}
	}
	return record, true
}

func fileView(f charts.File) FileView {
	return FileView{File: f, DownloadURL: "/api/records/" + f.RecordID + "/files/" + f.ID}
}
