package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/translation-checkout-api/internal/extractor"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/services"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/gorilla/mux"
)

// MaxFilesPerUpload matches the number of documents one checkout session
// can describe in provider metadata.
const MaxFilesPerUpload = 6

type DocumentHandler struct {
	service     services.DocumentService
	maxFileSize int64
	logger      *utils.Logger
}

func NewDocumentHandler(service services.DocumentService, maxFileSize int64, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:     service,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (h *DocumentHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	limit := h.maxFileSize*MaxFilesPerUpload + maxJSONBody
	sizeMsg := fmt.Sprintf("File size exceeds %dMB limit", h.maxFileSize>>20)

	// Check Content-Length header first to reject oversized requests early
	if r.ContentLength > limit {
		respondError(h.logger, w, utils.NewBadRequestError(sizeMsg))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondError(h.logger, w, utils.NewBadRequestError(sizeMsg))
			return
		}
		respondError(h.logger, w, utils.NewBadRequestError("Invalid form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		respondError(h.logger, w, utils.NewBadRequestError("No file provided"))
		return
	}
	if len(headers) > MaxFilesPerUpload {
		respondError(h.logger, w, utils.NewBadRequestError(fmt.Sprintf("At most %d files can be uploaded at once", MaxFilesPerUpload)))
		return
	}

	base, err := uploadFields(r)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	reqs := make([]*models.UploadRequest, 0, len(headers))
	for _, header := range headers {
		req, err := h.readFile(header, sizeMsg)
		if err != nil {
			respondError(h.logger, w, err)
			return
		}

		req.OwnerID = base.OwnerID
		req.ClientName = base.ClientName
		req.PaymentMethod = base.PaymentMethod
		req.SourceLanguage = base.SourceLanguage
		req.TargetLanguage = base.TargetLanguage
		req.TranslationType = base.TranslationType
		req.IsNotarized = base.IsNotarized
		req.IsBankStatement = base.IsBankStatement
		req.Client = base.Client
		reqs = append(reqs, req)
	}

	resps, err := h.service.UploadDocuments(r.Context(), reqs)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, models.UploadBatchResponse{Documents: resps})
}

func uploadFields(r *http.Request) (*models.UploadRequest, error) {
	req := &models.UploadRequest{
		OwnerID:         strings.TrimSpace(r.FormValue("user_id")),
		ClientName:      strings.TrimSpace(r.FormValue("client_name")),
		PaymentMethod:   r.FormValue("payment_method"),
		SourceLanguage:  r.FormValue("source_language"),
		TargetLanguage:  r.FormValue("target_language"),
		TranslationType: r.FormValue("translation_type"),
		Client: models.ClientContext{
			UserAgent: r.UserAgent(),
		},
	}

	if req.OwnerID == "" {
		return nil, utils.NewBadRequestError("user_id is required")
	}

	var err error
	if req.IsNotarized, err = formBool(r, "is_notarized"); err != nil {
		return nil, err
	}
	if req.IsBankStatement, err = formBool(r, "is_bank_statement"); err != nil {
		return nil, err
	}
	if req.Client.Mobile, err = formBool(r, "mobile"); err != nil {
		return nil, err
	}

	return req, nil
}

func formBool(r *http.Request, key string) (bool, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, utils.NewBadRequestError(fmt.Sprintf("%s must be true or false", key))
	}
	return v, nil
}

func (h *DocumentHandler) readFile(header *multipart.FileHeader, sizeMsg string) (*models.UploadRequest, error) {
	if header.Size > h.maxFileSize {
		return nil, utils.NewBadRequestError(sizeMsg)
	}

	contentType := determineContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	if !isValidContentType(contentType) {
		return nil, utils.NewBadRequestError("Only PDF, DOCX, TXT and image files are allowed")
	}

	file, err := header.Open()
	if err != nil {
		return nil, utils.NewBadRequestError("No file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return nil, utils.NewInternalError("Failed to read file")
	}
	if int64(len(data)) > h.maxFileSize {
		return nil, utils.NewBadRequestError(sizeMsg)
	}
	if len(data) == 0 {
		return nil, utils.NewBadRequestError("Uploaded file is empty")
	}

	return &models.UploadRequest{
		File:        data,
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
	}, nil
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(h.logger, w, utils.NewBadRequestError("Document ID is required"))
		return
	}

	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, doc)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context(), mux.Vars(r)["ownerId"])
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, docs)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.DeleteDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, models.ReconcileResponse{RemovedRecords: res.RemovedRecords})
}

// determineContentType determines the content type from filename extension
// with fallback to the provided content type header
func determineContentType(filename, headerContentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractor.ContentTypePDF
	case ".docx":
		return extractor.ContentTypeDOCX
	case ".txt":
		return extractor.ContentTypeTXT
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".doc":
		// not supported, but gives a clearer error than octet-stream
		return "application/msword"
	}

	return strings.TrimSpace(strings.Split(headerContentType, ";")[0])
}

func isValidContentType(contentType string) bool {
	switch {
	case contentType == extractor.ContentTypePDF,
		extractor.IsDOCXContentType(contentType),
		extractor.IsTextContentType(contentType):
		return true
	case contentType == "image/jpeg", contentType == "image/png":
		return true
	}
	return false
}
