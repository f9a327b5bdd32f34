package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/interfaces/http/dto"
)

// DocumentHandler accepts proof documents cited by adjustments
type DocumentHandler struct {
	BaseHandler
	documents DocumentUseCases
	maxSize   int64
}

// NewDocumentHandler creates a new DocumentHandler. maxSize bounds how much
// of an upload is read; the service applies its own limit to what it stores.
func NewDocumentHandler(documents DocumentUseCases, maxSize int64) *DocumentHandler {
	if maxSize <= 0 {
		maxSize = appledger.DefaultMaxProofSize
	}
	return &DocumentHandler{documents: documents, maxSize: maxSize}
}

// PresignProofRequest asks for a direct upload URL
//
//	@Description	Presigned proof upload request
type PresignProofRequest struct {
	DemandID    int64  `json:"demand_id" binding:"required,gt=0" example:"42"`
	FileName    string `json:"file_name" binding:"required,max=255" example:"rebate-order.pdf"`
	ContentType string `json:"content_type" binding:"required" example:"application/pdf" enums:"application/pdf,image/jpeg,image/png"`
}

// UploadProof godoc
//
//	@ID				uploadProofLedger
//	@Summary		Upload a proof document
//	@Description	Stores a PDF, JPEG or PNG proof and returns the document URL to cite in a discount or waiver
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			demand_id	formData	int		true	"Demand ID"
//	@Param			file		formData	file	true	"Proof document"
//	@Success		201			{object}	APIResponse[appledger.ProofDocument]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/documents [post]
func (h *DocumentHandler) UploadProof(c *gin.Context) {
	actor, ok := h.actingUser(c)
	if !ok {
		return
	}

	demandID, err := strconv.ParseInt(c.PostForm("demand_id"), 10, 64)
	if err != nil || demandID <= 0 {
		h.BadRequest(c, "demand_id must be a positive integer")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Document is too large")
			return
		}
		h.BadRequest(c, "A file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	// One extra byte lets the service see that the limit was crossed
	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	doc, err := h.documents.UploadProof(c.Request.Context(), appledger.UploadProofInput{
		DemandID:    demandID,
		FileName:    fileHeader.Filename,
		ContentType: detectContentType(data, fileHeader.Header.Get("Content-Type")),
		Data:        data,
		ActorID:     actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// detectContentType trusts the bytes over the declared type. The declared
// type is only used for an empty body, so the service reports emptiness
// rather than an unsupported type.
func detectContentType(data []byte, declared string) string {
	if len(data) == 0 {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			return mediaType
		}
		return declared
	}
	mediaType, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}

// PresignProofUpload godoc
//
//	@ID				presignProofUploadLedger
//	@Summary		Get a presigned upload URL for a proof document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PresignProofRequest	true	"Document"
//	@Success		201		{object}	APIResponse[appledger.PresignedProof]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/documents/presign [post]
func (h *DocumentHandler) PresignProofUpload(c *gin.Context) {
	actor, ok := h.actingUser(c)
	if !ok {
		return
	}

	var req PresignProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	presigned, err := h.documents.PresignProofUpload(c.Request.Context(), appledger.PresignProofInput{
		DemandID:    req.DemandID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		ActorID:     actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, presigned)
}
