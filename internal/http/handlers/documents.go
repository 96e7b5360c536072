package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/documents"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

// DocumentHandler stores vehicle paperwork in the blob store and its metadata in the database.
type DocumentHandler struct {
	store    storage.VehicleStore
	blobs    documents.BlobStore
	prefix   string
	maxBytes int64
	guard    Guard
	logger   *zap.Logger
}

func NewDocumentHandler(store storage.VehicleStore, blobs documents.BlobStore, prefix string, maxBytes int64,
	guard Guard, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{store: store, blobs: blobs, prefix: prefix, maxBytes: maxBytes, guard: guard, logger: logger}
}

func (h *DocumentHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/vehicles/{id}/documents", h.guard.With(rbac.VehiclesRead, h.handleList))
	mux.Handle("POST /api/vehicles/{id}/documents", h.guard.With(rbac.VehiclesWrite, h.handleUpload))
	mux.Handle("GET /api/vehicles/{id}/documents/{docID}", h.guard.With(rbac.VehiclesRead, h.handleDownload))
	mux.Handle("DELETE /api/vehicles/{id}/documents/{docID}", h.guard.With(rbac.VehiclesWrite, h.handleDelete))
}

func (h *DocumentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID := currentUser(r).ID
	if _, err := h.store.GetVehicle(r.Context(), userID, vehicleID); err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	docs, err := h.store.ListVehicleDocuments(r.Context(), userID, vehicleID)
	if err != nil {
		storeError(w, r, h.logger, err, "document")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", docs)
}

func (h *DocumentHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID := currentUser(r).ID
	if _, err := h.store.GetVehicle(r.Context(), userID, vehicleID); err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind := strings.TrimSpace(r.FormValue("kind"))
	if kind == "" {
		kind = "other"
	}
	if !models.ValidDocumentKind(kind) {
		respond.Error(w, http.StatusBadRequest, "unknown document kind")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if header.Size > h.maxBytes {
		respond.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	contentType, err := documents.CheckContentType(header.Header.Get("Content-Type"))
	if err != nil {
		respond.Error(w, http.StatusUnsupportedMediaType, "only PDF, JPEG, PNG and HEIC files are accepted")
		return
	}

	key := documents.ObjectKey(h.prefix, userID, vehicleID, header.Filename)
	if err := h.blobs.Put(r.Context(), key, contentType, file, header.Size); err != nil {
		h.logger.Error("upload document", zap.String("key", key), zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "failed to store document")
		return
	}
	doc, err := h.store.CreateVehicleDocument(r.Context(), models.VehicleDocument{
		VehicleID:   vehicleID,
		UserID:      userID,
		Kind:        kind,
		FileName:    documents.SanitizeFileName(header.Filename),
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   header.Size,
	})
	if err != nil {
		if delErr := h.blobs.Delete(r.Context(), key); delErr != nil {
			h.logger.Warn("remove orphaned document", zap.String("key", key), zap.Error(delErr))
		}
		storeError(w, r, h.logger, err, "document")
		return
	}
	respond.JSON(w, http.StatusCreated, "document uploaded", doc)
}

func (h *DocumentHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	body, info, err := h.blobs.Get(r.Context(), doc.ObjectKey)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "document content missing")
			return
		}
		h.logger.Error("download document", zap.Int64("document_id", doc.ID), zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "failed to fetch document")
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = doc.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+doc.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream document", zap.Int64("document_id", doc.ID), zap.Error(err))
	}
}

func (h *DocumentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteVehicleDocument(r.Context(), doc.UserID, doc.VehicleID, doc.ID); err != nil {
		storeError(w, r, h.logger, err, "document")
		return
	}
	if err := h.blobs.Delete(r.Context(), doc.ObjectKey); err != nil {
		h.logger.Warn("delete document object", zap.String("key", doc.ObjectKey), zap.Error(err))
	}
	respond.JSON(w, http.StatusOK, "document deleted", nil)
}

func (h *DocumentHandler) lookup(w http.ResponseWriter, r *http.Request) (models.VehicleDocument, bool) {
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return models.VehicleDocument{}, false
	}
	docID, ok := pathID(w, r, "docID")
	if !ok {
		return models.VehicleDocument{}, false
	}
	doc, err := h.store.GetVehicleDocument(r.Context(), currentUser(r).ID, vehicleID, docID)
	if err != nil {
		storeError(w, r, h.logger, err, "document")
		return models.VehicleDocument{}, false
	}
	return doc, true
}
