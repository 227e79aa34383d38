package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/middleware"
	"github.com/finchapp/finch/finch-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReceiptHandler handles receipt HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// DraftTransactionResponse represents the extracted draft in API responses
type DraftTransactionResponse struct {
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	Date       *string         `json:"date"`
	Source     string          `json:"source"`
	CategoryID *int32          `json:"categoryId"`
	ReceiptID  *int32          `json:"receiptId"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID               int32                     `json:"id"`
	MerchantName     string                    `json:"merchantName"`
	AmountDetected   decimal.Decimal           `json:"amountDetected"`
	Context          string                    `json:"context,omitempty"`
	TransactionDate  *string                   `json:"transactionDate,omitempty"`
	IsProcessed      bool                      `json:"isProcessed"`
	DraftTransaction *DraftTransactionResponse `json:"draftTransaction"`
	FileURL          string                    `json:"fileUrl,omitempty"`
	CreatedAt        string                    `json:"createdAt"`
	UpdatedAt        string                    `json:"updatedAt"`
}

// DeleteAllReceiptsResponse reports how many receipts were removed
type DeleteAllReceiptsResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// ParseReceipt handles POST /api/v1/receipts/parse
func (h *ReceiptHandler) ParseReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return NewValidationError(c, "Receipt file is required", []ValidationError{
			{Field: "receipt", Message: "Attach the receipt image as multipart field 'receipt'"},
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return NewValidationError(c, "Could not read receipt file", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxReceiptImageSize+1))
	if err != nil {
		return NewValidationError(c, "Could not read receipt file", nil)
	}

	receipt, err := h.receiptService.ParseReceipt(c.Request().Context(), userID, data, fileHeader.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReceiptTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "receipt", Message: "File too large. Maximum size is 5MB"},
			})
		case errors.Is(err, service.ErrInvalidReceiptFormat):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "receipt", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case errors.Is(err, service.ErrInvalidReceiptImage):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "receipt", Message: "Invalid image data"},
			})
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse receipt")
		return NewBadGatewayError(c, "Failed to extract receipt data")
	}

	log.Info().Str("user_id", userID).Int32("receipt_id", receipt.ID).Str("merchant", receipt.MerchantName).Msg("Receipt parsed")

	return c.JSON(http.StatusCreated, toReceiptResponse(receipt, ""))
}

// GetReceipts handles GET /api/v1/receipts
func (h *ReceiptHandler) GetReceipts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	receipts, err := h.receiptService.GetReceipts(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get receipts")
		return NewInternalError(c, "Failed to get receipts")
	}

	response := make([]ReceiptResponse, len(receipts))
	for i, receipt := range receipts {
		response[i] = toReceiptResponse(receipt, "")
	}

	return c.JSON(http.StatusOK, response)
}

// GetReceipt handles GET /api/v1/receipts/:id
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	receipt, err := h.receiptService.GetReceiptByID(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Str("user_id", userID).Int("receipt_id", id).Msg("Failed to get receipt")
		return NewInternalError(c, "Failed to get receipt")
	}

	// Best effort: the receipt is still useful without its image URL
	fileURL, err := h.receiptService.GetReceiptFileURL(c.Request().Context(), userID, int32(id))
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Int("receipt_id", id).Msg("Failed to presign receipt image")
		fileURL = ""
	}

	return c.JSON(http.StatusOK, toReceiptResponse(receipt, fileURL))
}

// DeleteReceipt handles DELETE /api/v1/receipts/:id
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	if err := h.receiptService.DeleteReceipt(c.Request().Context(), userID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Str("user_id", userID).Int("receipt_id", id).Msg("Failed to delete receipt")
		return NewInternalError(c, "Failed to delete receipt")
	}

	log.Info().Str("user_id", userID).Int("receipt_id", id).Msg("Receipt deleted")
	return c.NoContent(http.StatusNoContent)
}

// DeleteAllReceipts handles DELETE /api/v1/receipts
func (h *ReceiptHandler) DeleteAllReceipts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	count, err := h.receiptService.DeleteAllReceipts(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoReceipts) {
			return NewNotFoundError(c, "No receipts found")
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to delete receipts")
		return NewInternalError(c, "Failed to delete receipts")
	}

	log.Info().Str("user_id", userID).Int64("count", count).Msg("All receipts deleted")
	return c.JSON(http.StatusOK, DeleteAllReceiptsResponse{DeletedCount: count})
}

// Helper function to convert domain.Receipt to ReceiptResponse
func toReceiptResponse(receipt *domain.Receipt, fileURL string) ReceiptResponse {
	resp := ReceiptResponse{
		ID:             receipt.ID,
		MerchantName:   receipt.MerchantName,
		AmountDetected: receipt.AmountDetected,
		Context:        receipt.Context,
		IsProcessed:    receipt.IsProcessed,
		FileURL:        fileURL,
		CreatedAt:      receipt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      receipt.UpdatedAt.Format(time.RFC3339),
	}
	if receipt.TransactionDate != nil {
		formatted := receipt.TransactionDate.Format(time.RFC3339)
		resp.TransactionDate = &formatted
	}
	if receipt.Draft != nil {
		draft := &DraftTransactionResponse{
			Type:       string(receipt.Draft.Type),
			Amount:     receipt.Draft.Amount,
			Note:       receipt.Draft.Note,
			Source:     receipt.Draft.Source,
			CategoryID: receipt.Draft.CategoryID,
			ReceiptID:  receipt.Draft.ReceiptID,
		}
		if receipt.Draft.Date != nil {
			formatted := receipt.Draft.Date.Format(time.RFC3339)
			draft.Date = &formatted
		}
		resp.DraftTransaction = draft
	}
	return resp
}
