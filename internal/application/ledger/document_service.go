package ledger

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/ledger"
	"go.uber.org/zap"
)

// ProofStorage stores supporting documents for adjustments.
// This interface is implemented by the infrastructure layer (S3, MinIO, etc.)
type ProofStorage interface {
	// Upload stores the document under the given key
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// GenerateUploadURL generates a presigned URL for uploading a document
	// Returns the upload URL and expiration time
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectURL returns the stable URL an adjustment records as its document
	ObjectURL(storageKey string) string
}

// Proof document content types accepted for upload
var proofContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// DefaultMaxProofSize is the upload limit when none is configured
const DefaultMaxProofSize int64 = 5 << 20

// DocumentService stores proof documents for discounts and penalty waivers
type DocumentService struct {
	storage       ProofStorage
	audit         ledger.AuditSink
	maxSize       int64
	presignExpiry time.Duration
	logger        *zap.Logger
}

// DocumentServiceConfig holds the dependencies of DocumentService
type DocumentServiceConfig struct {
	Storage       ProofStorage
	AuditSink     ledger.AuditSink
	MaxSize       int64
	PresignExpiry time.Duration
	Logger        *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxProofSize
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &DocumentService{
		storage:       cfg.Storage,
		audit:         cfg.AuditSink,
		maxSize:       maxSize,
		presignExpiry: expiry,
		logger:        logger,
	}
}

// UploadProofInput is a proof document sent through the API
type UploadProofInput struct {
	DemandID    int64
	FileName    string
	ContentType string
	Data        []byte
	ActorID     string
}

// PresignProofInput asks for a direct upload URL
type PresignProofInput struct {
	DemandID    int64
	FileName    string
	ContentType string
	ActorID     string
}

// ProofDocument describes a stored proof document
type ProofDocument struct {
	StorageKey  string `json:"storage_key"`
	DocumentURL string `json:"document_url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// PresignedProof is a direct upload target for a proof document
type PresignedProof struct {
	StorageKey  string    `json:"storage_key"`
	UploadURL   string    `json:"upload_url"`
	DocumentURL string    `json:"document_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UploadProof stores a proof document and returns the URL to cite in an
// adjustment request
func (s *DocumentService) UploadProof(ctx context.Context, in UploadProofInput) (*ProofDocument, error) {
	ext, err := s.validate(in.DemandID, in.ContentType)
	if err != nil {
		return nil, err
	}
	size := int64(len(in.Data))
	if size == 0 {
		return nil, ledger.NewValidationError("file", "Document is empty")
	}
	if size > s.maxSize {
		return nil, ledger.NewValidationError("file",
			fmt.Sprintf("Document exceeds the %d byte limit", s.maxSize))
	}

	key := proofKey(in.DemandID, ext)
	if err := s.storage.Upload(ctx, key, in.Data, in.ContentType); err != nil {
		return nil, fmt.Errorf("upload proof document: %w", err)
	}

	doc := &ProofDocument{
		StorageKey:  key,
		DocumentURL: s.storage.ObjectURL(key),
		ContentType: in.ContentType,
		Size:        size,
	}

	entry := ledger.NewAuditEntry(ledger.AuditActionDocumentUploaded, ledger.AuditEntityDocument, key, in.ActorID,
		"Proof document uploaded for demand "+strconv.FormatInt(in.DemandID, 10)).
		WithMetadata(map[string]any{
			"demand_id":    in.DemandID,
			"file_name":    path.Base(in.FileName),
			"content_type": in.ContentType,
			"size":         size,
		})
	if s.audit != nil {
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Error("Failed to record document upload", zap.String("key", key), zap.Error(err))
		}
	}

	s.logger.Info("Proof document uploaded",
		zap.Int64("demand_id", in.DemandID),
		zap.String("key", key),
		zap.Int64("size", size))
	return doc, nil
}

// PresignProofUpload returns a presigned PUT URL so large documents can go
// straight to object storage
func (s *DocumentService) PresignProofUpload(ctx context.Context, in PresignProofInput) (*PresignedProof, error) {
	ext, err := s.validate(in.DemandID, in.ContentType)
	if err != nil {
		return nil, err
	}

	key := proofKey(in.DemandID, ext)
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, in.ContentType, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign proof upload: %w", err)
	}
	return &PresignedProof{
		StorageKey:  key,
		UploadURL:   uploadURL,
		DocumentURL: s.storage.ObjectURL(key),
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *DocumentService) validate(demandID int64, contentType string) (string, error) {
	if demandID <= 0 {
		return "", ledger.NewValidationError("demand_id", "Demand ID is required")
	}
	ext, ok := proofContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ledger.NewValidationError("content_type", "Only PDF, JPEG and PNG documents are accepted")
	}
	return ext, nil
}

// proofKey renders proofs/<demand>/<yyyy>/<uuid><ext>
func proofKey(demandID int64, ext string) string {
	return fmt.Sprintf("proofs/%d/%s/%s%s", demandID, time.Now().Format("2006"), uuid.NewString(), ext)
}
