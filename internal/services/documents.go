package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/translation-checkout-api/internal/dispatch"
	"github.com/BerylCAtieno/translation-checkout-api/internal/extractor"
	"github.com/BerylCAtieno/translation-checkout-api/internal/metrics"
	"github.com/BerylCAtieno/translation-checkout-api/internal/models"
	"github.com/BerylCAtieno/translation-checkout-api/internal/pricing"
	"github.com/BerylCAtieno/translation-checkout-api/internal/reconcile"
	"github.com/BerylCAtieno/translation-checkout-api/internal/repository"
	"github.com/BerylCAtieno/translation-checkout-api/internal/storage"
	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

// PaymentCard is the only method settled through hosted checkout. Anything
// else is paid out of band and goes straight to processing.
const PaymentCard = "card"

const maxParallelUploads = 4

type DocumentService interface {
	UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	UploadDocuments(ctx context.Context, reqs []*models.UploadRequest) ([]*models.UploadResponse, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) (*reconcile.Result, error)
	SimulateFailure(ctx context.Context, id string) (*reconcile.Result, error)
	Reconcile(ctx context.Context, id string) (*reconcile.Result, error)
	CompleteDocument(ctx context.Context, id string) (*models.Document, error)
	RejectDocument(ctx context.Context, id string) (*models.Document, error)
	RecordVerification(ctx context.Context, req models.VerificationRequest) (*models.VerificationRecord, error)
	RecordTranslation(ctx context.Context, req models.TranslationRequest) (*models.TranslatedDocument, error)
}

type documentService struct {
	docs          repository.DocumentRepository
	verifications repository.VerificationRepository
	translated    repository.TranslatedRepository
	storage       storage.Storage
	counter       extractor.PageCounter
	pricing       *pricing.Engine
	cleaner       *reconcile.Cleaner
	notifier      dispatch.Notifier
	logger        *utils.Logger
}

func NewDocumentService(
	docs repository.DocumentRepository,
	verifications repository.VerificationRepository,
	translated repository.TranslatedRepository,
	store storage.Storage,
	counter extractor.PageCounter,
	engine *pricing.Engine,
	cleaner *reconcile.Cleaner,
	notifier dispatch.Notifier,
	logger *utils.Logger,
) DocumentService {
	return &documentService{
		docs:          docs,
		verifications: verifications,
		translated:    translated,
		storage:       store,
		counter:       counter,
		pricing:       engine,
		cleaner:       cleaner,
		notifier:      notifier,
		logger:        logger,
	}
}

func (s *documentService) UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	pages, err := s.counter.CountPages(req.File, req.ContentType)
	if err != nil {
		s.logger.Warn("Failed to count pages", "error", err, "filename", req.Filename, "content_type", req.ContentType)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Could not read %s: %v", req.Filename, err))
	}

	cost, err := s.pricing.Price(pages, req.IsNotarized, req.IsBankStatement)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Filename, err)
	}

	paymentMethod := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if paymentMethod == "" {
		paymentMethod = PaymentCard
	}

	doc := &models.Document{
		ID:              utils.GenerateID(),
		OwnerID:         req.OwnerID,
		Filename:        req.Filename,
		PageCount:       pages,
		Status:          models.StatusPending,
		ClientName:      req.ClientName,
		PaymentMethod:   paymentMethod,
		TotalCost:       cost,
		SourceLanguage:  req.SourceLanguage,
		TargetLanguage:  req.TargetLanguage,
		IsNotarized:     req.IsNotarized,
		IsBankStatement: req.IsBankStatement,
		TranslationType: req.TranslationType,
		ContentType:     req.ContentType,
		FileSize:        int64(len(req.File)),
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		s.logger.Error("Failed to save document to database", "error", err, "filename", req.Filename)
		return nil, utils.NewInternalError("Failed to save document metadata")
	}

	log := s.logger.With("doc_id", doc.ID, "owner_id", doc.OwnerID)

	key := storage.ObjectKey(doc.OwnerID, doc.Filename, time.Now())
	if err := s.storage.Upload(ctx, key, req.File, req.ContentType); err != nil {
		log.Error("Failed to upload to S3", "error", err, "s3_key", key)
		return nil, s.failUpload(ctx, doc, key, utils.NewInternalError("Failed to store document"))
	}

	fileRef := s.storage.URL(key)
	fileID := utils.GenerateID()
	doc.FileRef = &fileRef
	doc.FileID = &fileID

	if err := s.docs.Update(ctx, doc); err != nil {
		log.Error("Failed to record storage location", "error", err, "s3_key", key)
		return nil, s.failUpload(ctx, doc, key, err)
	}

	message := "Document uploaded successfully. Create a checkout session to pay for it."

	if paymentMethod != PaymentCard {
		if err := s.queueForProcessing(ctx, doc); err != nil {
			log.Error("Failed to queue document", "error", err, "payment_method", paymentMethod)
			return nil, s.failUpload(ctx, doc, key, err)
		}
		message = "Document uploaded and queued for processing."
	}

	log.Info("Document uploaded successfully",
		"filename", doc.Filename,
		"pages", pages,
		"total_cost", cost,
		"status", doc.Status,
		"mobile", req.Client.Mobile)

	return &models.UploadResponse{
		ID:          doc.ID,
		Filename:    doc.Filename,
		PageCount:   pages,
		TotalCost:   cost,
		Status:      doc.Status,
		FileID:      fileID,
		FilePath:    key,
		ContentType: doc.ContentType,
		CreatedAt:   doc.CreatedAt,
		Message:     message,
	}, nil
}

func validateUpload(req *models.UploadRequest) error {
	switch {
	case req == nil:
		return utils.NewBadRequestError("No file provided")
	case strings.TrimSpace(req.OwnerID) == "":
		return utils.NewBadRequestError("user_id is required")
	case strings.TrimSpace(req.Filename) == "":
		return utils.NewBadRequestError("Filename is required")
	case len(req.File) == 0:
		return utils.NewBadRequestError("Uploaded file is empty")
	}
	return nil
}

func (s *documentService) queueForProcessing(ctx context.Context, doc *models.Document) error {
	from := models.StatusPending
	updated, err := s.docs.Transition(ctx, doc.ID, &from, models.StatusProcessing)
	metrics.DocumentTransitions.WithLabelValues(string(models.StatusProcessing), metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	doc.Status = updated.Status
	doc.UpdatedAt = updated.UpdatedAt

	err = s.notifier.Notify(ctx, payloadFor(doc, doc.TotalCost))
	metrics.Dispatches.WithLabelValues(metrics.Outcome(err)).Inc()
	return err
}

// failUpload marks the document failed and removes whatever the upload
// already produced. cause is returned unchanged.
func (s *documentService) failUpload(ctx context.Context, doc *models.Document, key string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With("doc_id", doc.ID)

	snapshot, err := s.docs.MarkUploadFailed(ctx, doc.ID)
	if err != nil {
		log.Error("Failed to mark upload failed", "error", err)
		return cause
	}
	metrics.DocumentTransitions.WithLabelValues(string(models.StatusUploadFailed), "ok").Inc()

	// the object may exist even though the row never recorded it
	if snapshot.FileRef == nil && key != "" {
		snapshot.FileRef = &key
	}

	if res, err := s.cleaner.ReconcileDocument(ctx, snapshot); err != nil {
		log.Error("Automatic reconciliation failed", "error", err)
	} else {
		log.Info("Automatic reconciliation finished", "removed_records", res.RemovedRecords)
	}

	return cause
}

// UploadDocuments stages every file concurrently. The batch is all or
// nothing: when one file fails, the ones that succeeded are failed too.
func (s *documentService) UploadDocuments(ctx context.Context, reqs []*models.UploadRequest) ([]*models.UploadResponse, error) {
	if len(reqs) == 0 {
		return nil, utils.NewBadRequestError("No file provided")
	}

	results := make([]*models.UploadResponse, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			resp, err := s.UploadDocument(gctx, req)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, resp := range results {
			if resp == nil {
				continue
			}
			doc, getErr := s.docs.GetByID(context.WithoutCancel(ctx), resp.ID)
			if getErr != nil || doc == nil {
				s.logger.Error("Failed to roll back batch upload", "doc_id", resp.ID, "error", getErr)
				continue
			}
			_ = s.failUpload(ctx, doc, resp.FilePath, nil)
		}
		return nil, err
	}

	return results, nil
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}

	return doc, nil
}

func (s *documentService) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, utils.NewBadRequestError("Owner ID is required")
	}

	docs, err := s.docs.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "owner_id", ownerID)
		return nil, utils.NewInternalError("Failed to retrieve documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}

	return docs, nil
}

// DeleteDocument removes a document together with its downstream rows and
// stored object.
func (s *documentService) DeleteDocument(ctx context.Context, id string) (*reconcile.Result, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.cleaner.ReconcileDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to delete document")
	}

	s.logger.Info("Document deleted", "id", id, "removed_records", res.RemovedRecords)
	return res, nil
}

// SimulateFailure is the administrative repair action: it fails the
// document as if its upload had broken and runs reconciliation.
func (s *documentService) SimulateFailure(ctx context.Context, id string) (*reconcile.Result, error) {
	snapshot, err := s.docs.MarkUploadFailed(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.DocumentTransitions.WithLabelValues(string(models.StatusUploadFailed), "ok").Inc()

	s.logger.Warn("Document marked upload_failed by administrator", "id", id, "previous_status", snapshot.Status)
	return s.cleaner.ReconcileDocument(ctx, snapshot)
}

func (s *documentService) Reconcile(ctx context.Context, id string) (*reconcile.Result, error) {
	return s.cleaner.Reconcile(ctx, id)
}

func (s *documentService) CompleteDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.finish(ctx, id, models.StatusCompleted)
}

func (s *documentService) RejectDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.finish(ctx, id, models.StatusRejected)
}

func (s *documentService) finish(ctx context.Context, id string, to models.Status) (*models.Document, error) {
	from := models.StatusProcessing
	doc, err := s.docs.Transition(ctx, id, &from, to)
	metrics.DocumentTransitions.WithLabelValues(string(to), metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Document finished", "id", id, "status", to)
	return doc, nil
}

func (s *documentService) RecordVerification(ctx context.Context, req models.VerificationRequest) (*models.VerificationRecord, error) {
	if strings.TrimSpace(req.OwnerID) == "" || strings.TrimSpace(req.Filename) == "" {
		return nil, utils.NewBadRequestError("owner_id and filename are required")
	}

	if req.OriginalDocumentID != nil {
		doc, err := s.GetDocument(ctx, *req.OriginalDocumentID)
		if err != nil {
			return nil, err
		}
		if doc.Status == models.StatusUploadFailed {
			return nil, utils.NewConflictError("Document upload failed; it cannot be verified")
		}
	}

	rec := &models.VerificationRecord{
		ID:                 utils.GenerateID(),
		OriginalDocumentID: req.OriginalDocumentID,
		FileID:             req.FileID,
		OwnerID:            req.OwnerID,
		Filename:           req.Filename,
		ClientName:         req.ClientName,
	}
	if err := s.verifications.Create(ctx, rec); err != nil {
		s.logger.Error("Failed to save verification record", "error", err)
		return nil, utils.NewInternalError("Failed to save verification record")
	}

	s.logger.Info("Verification record created", "id", rec.ID, "owner_id", rec.OwnerID, "filename", rec.Filename)
	return rec, nil
}

func (s *documentService) RecordTranslation(ctx context.Context, req models.TranslationRequest) (*models.TranslatedDocument, error) {
	if strings.TrimSpace(req.VerificationID) == "" || strings.TrimSpace(req.TranslatedFileRef) == "" {
		return nil, utils.NewBadRequestError("verification_id and translated_file_ref are required")
	}

	rec, err := s.verifications.GetByID(ctx, req.VerificationID)
	if err != nil {
		s.logger.Error("Failed to load verification record", "error", err, "id", req.VerificationID)
		return nil, utils.NewInternalError("Failed to retrieve verification record")
	}
	if rec == nil {
		return nil, utils.NewNotFoundError("Verification record not found")
	}

	out := &models.TranslatedDocument{
		ID:                 utils.GenerateID(),
		OriginalDocumentID: &rec.ID,
		OwnerID:            rec.OwnerID,
		Filename:           rec.Filename,
		TranslatedFileRef:  req.TranslatedFileRef,
		IsAuthenticated:    req.AuthenticatedBy != nil,
		AuthenticatedBy:    req.AuthenticatedBy,
	}

	if rec.OriginalDocumentID != nil {
		doc, err := s.docs.GetByID(ctx, *rec.OriginalDocumentID)
		if err != nil {
			return nil, utils.NewInternalError("Failed to retrieve document")
		}
		if doc != nil {
			out.SourceLanguage = doc.SourceLanguage
			out.TargetLanguage = doc.TargetLanguage
			out.TotalCost = doc.TotalCost
		}
	}

	if out.IsAuthenticated {
		ts := time.Now().UTC()
		out.AuthenticationDate = &ts
	}

	if err := s.translated.Create(ctx, out); err != nil {
		s.logger.Error("Failed to save translated document", "error", err)
		return nil, utils.NewInternalError("Failed to save translated document")
	}

	s.logger.Info("Translated document recorded", "id", out.ID, "verification_id", rec.ID)
	return out, nil
}

func payloadFor(doc *models.Document, value int64) dispatch.Payload {
	p := dispatch.Payload{
		Filename:        doc.Filename,
		UserID:          doc.OwnerID,
		Pages:           doc.PageCount,
		Value:           value,
		IsBankStatement: doc.IsBankStatement,
		ClientName:      doc.ClientName,
		SourceLanguage:  doc.SourceLanguage,
		TargetLanguage:  doc.TargetLanguage,
		TranslationType: doc.TranslationType,
		MimeType:        doc.ContentType,
		Size:            doc.FileSize,
		PaymentMethod:   doc.PaymentMethod,
	}
	if doc.FileRef != nil {
		p.URL = *doc.FileRef
	}
	return p
}
