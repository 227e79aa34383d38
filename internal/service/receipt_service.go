package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/ocr"
	"github.com/finchapp/finch/finch-backend/internal/repository/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	MaxReceiptImageSize = 5 * 1024 * 1024 // 5MB
	MaxReceiptWidth     = 1600
	ReceiptJPEGQuality  = 85
	PresignedURLExpiry  = 15 * time.Minute
)

var (
	ErrReceiptTooLarge      = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidReceiptFormat = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrInvalidReceiptImage  = errors.New("invalid image data")
)

// allowedReceiptExtensions maps upload extensions to content types
var allowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptService handles receipt parsing and lifecycle. Images go through a
// normalize step (downscale, re-encode as JPEG) before OCR; storage is
// optional and receipts keep no file reference when it is absent.
type ReceiptService struct {
	receiptRepo     domain.ReceiptRepository
	transactionRepo domain.TransactionRepository
	extractor       ocr.Extractor
	files           storage.FileRepository // nil when storage is not configured
}

// NewReceiptService creates a new ReceiptService. files may be nil.
func NewReceiptService(receiptRepo domain.ReceiptRepository, transactionRepo domain.TransactionRepository, extractor ocr.Extractor, files storage.FileRepository) *ReceiptService {
	return &ReceiptService{
		receiptRepo:     receiptRepo,
		transactionRepo: transactionRepo,
		extractor:       extractor,
		files:           files,
	}
}

// ParseReceipt runs the full ingestion flow: validate and normalize the
// image, upload it when storage is configured, extract fields via OCR,
// persist the receipt with its draft, then backfill the draft's receiptId.
func (s *ReceiptService) ParseReceipt(ctx context.Context, userID string, data []byte, filename string) (*domain.Receipt, error) {
	normalized, err := s.normalizeImage(data, filename)
	if err != nil {
		return nil, err
	}

	var fileKey *string
	if s.files != nil {
		key := fmt.Sprintf("receipts/%s/%s.jpg", userID, uuid.New().String())
		if _, err := s.files.Upload(ctx, key, bytes.NewReader(normalized), "image/jpeg", int64(len(normalized))); err != nil {
			return nil, fmt.Errorf("failed to store receipt image: %w", err)
		}
		fileKey = &key
	}

	fields, err := s.extractor.ExtractReceiptData(ctx, normalized)
	if err != nil {
		// The stored image is useless without a receipt row
		if fileKey != nil {
			if delErr := s.files.Delete(ctx, *fileKey); delErr != nil {
				log.Warn().Err(delErr).Str("key", *fileKey).Msg("failed to clean up receipt image")
			}
		}
		return nil, err
	}

	draftType := domain.TransactionTypeExpense
	if domain.TransactionType(fields.Type).IsValid() {
		draftType = domain.TransactionType(fields.Type)
	}

	receipt := &domain.Receipt{
		UserID:          userID,
		FileKey:         fileKey,
		MerchantName:    fields.Source,
		AmountDetected:  fields.Amount,
		Context:         fields.Note,
		TransactionDate: fields.Date,
		IsProcessed:     false,
		Draft: &domain.DraftTransaction{
			Type:   draftType,
			Amount: fields.Amount,
			Note:   fields.Note,
			Date:   fields.Date,
			Source: fields.Source,
			// CategoryID stays nil: the user picks it at confirmation time
		},
	}

	created, err := s.receiptRepo.Create(receipt)
	if err != nil {
		return nil, err
	}

	// Two-step linkage: the draft can only reference the receipt once the
	// row exists, so backfill the id now.
	draft := *created.Draft
	draft.ReceiptID = &created.ID
	return s.receiptRepo.UpdateDraft(userID, created.ID, &draft)
}

// GetReceipts retrieves all of the user's receipts, most recent first
func (s *ReceiptService) GetReceipts(userID string) ([]*domain.Receipt, error) {
	return s.receiptRepo.GetAllByUser(userID)
}

// GetReceiptByID retrieves a receipt by ID scoped to the user
func (s *ReceiptService) GetReceiptByID(userID string, id int32) (*domain.Receipt, error) {
	return s.receiptRepo.GetByID(userID, id)
}

// GetReceiptFileURL generates a short-lived presigned URL for the receipt's
// stored image. Empty string when the receipt has no stored file.
func (s *ReceiptService) GetReceiptFileURL(ctx context.Context, userID string, id int32) (string, error) {
	receipt, err := s.receiptRepo.GetByID(userID, id)
	if err != nil {
		return "", err
	}
	if receipt.FileKey == nil || s.files == nil {
		return "", nil
	}
	return s.files.PresignedURL(ctx, *receipt.FileKey, PresignedURLExpiry)
}

// DeleteReceipt deletes a receipt. Any transaction referencing it keeps
// existing but loses the link; the stored image is removed best effort.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, userID string, id int32) error {
	receipt, err := s.receiptRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.UnlinkReceipt(userID, id); err != nil {
		return err
	}

	if err := s.receiptRepo.Delete(userID, id); err != nil {
		return err
	}

	if receipt.FileKey != nil && s.files != nil {
		if err := s.files.Delete(ctx, *receipt.FileKey); err != nil {
			log.Warn().Err(err).Str("key", *receipt.FileKey).Msg("failed to delete receipt image")
		}
	}

	return nil
}

// DeleteAllReceipts deletes every receipt the user owns and returns the
// count. Owning none is an error, not a zero-count success.
func (s *ReceiptService) DeleteAllReceipts(ctx context.Context, userID string) (int64, error) {
	receipts, err := s.receiptRepo.GetAllByUser(userID)
	if err != nil {
		return 0, err
	}

	for _, receipt := range receipts {
		if err := s.transactionRepo.UnlinkReceipt(userID, receipt.ID); err != nil {
			return 0, err
		}
	}

	count, err := s.receiptRepo.DeleteAllByUser(userID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, domain.ErrNoReceipts
	}

	if s.files != nil {
		for _, receipt := range receipts {
			if receipt.FileKey == nil {
				continue
			}
			if err := s.files.Delete(ctx, *receipt.FileKey); err != nil {
				log.Warn().Err(err).Str("key", *receipt.FileKey).Msg("failed to delete receipt image")
			}
		}
	}

	return count, nil
}

// normalizeImage validates the upload and re-encodes it as a bounded JPEG so
// both storage and the OCR provider always see the same format.
func (s *ReceiptService) normalizeImage(data []byte, filename string) ([]byte, error) {
	if len(data) > MaxReceiptImageSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedReceiptExtensions[ext]; !ok {
		return nil, ErrInvalidReceiptFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidReceiptImage
	}

	if img.Bounds().Dx() > MaxReceiptWidth {
		img = imaging.Resize(img, MaxReceiptWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: ReceiptJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
