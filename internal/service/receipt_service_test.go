package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/ocr"
	"github.com/finchapp/finch/finch-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func receiptImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 120))
	for x := 0; x < 80; x++ {
		for y := 0; y < 120; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func extractedFields() *ocr.ReceiptFields {
	date := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	return &ocr.ReceiptFields{
		Type:   "expense",
		Amount: decimal.NewFromFloat(23.45),
		Note:   "supermarket run",
		Date:   &date,
		Source: "FreshMart",
	}
}

func TestParseReceipt_CreatesDraftWithBackfilledID(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	extractor := &testutil.MockExtractor{Fields: extractedFields()}
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, nil)

	userID := "auth0|user1"

	receipt, err := svc.ParseReceipt(context.Background(), userID, receiptImage(t), "receipt.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if receipt.IsProcessed {
		t.Error("Expected new receipt to be unprocessed")
	}
	if receipt.MerchantName != "FreshMart" {
		t.Errorf("Expected merchant 'FreshMart', got %s", receipt.MerchantName)
	}
	if receipt.Draft == nil {
		t.Fatal("Expected a draft transaction")
	}
	if receipt.Draft.CategoryID != nil {
		t.Error("Expected draft categoryId to stay nil")
	}
	if receipt.Draft.ReceiptID == nil || *receipt.Draft.ReceiptID != receipt.ID {
		t.Error("Expected draft receiptId to be backfilled with the receipt's own ID")
	}
	if !receipt.Draft.Amount.Equal(decimal.NewFromFloat(23.45)) {
		t.Errorf("Expected draft amount 23.45, got %s", receipt.Draft.Amount)
	}
	if receipt.FileKey != nil {
		t.Error("Expected no file key without storage configured")
	}
}

func TestParseReceipt_StoresImageWhenConfigured(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	extractor := &testutil.MockExtractor{Fields: extractedFields()}
	files := testutil.NewMockFileRepository()
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, files)

	receipt, err := svc.ParseReceipt(context.Background(), "auth0|user1", receiptImage(t), "receipt.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if receipt.FileKey == nil {
		t.Fatal("Expected a file key with storage configured")
	}
	if _, ok := files.Objects[*receipt.FileKey]; !ok {
		t.Error("Expected the normalized image to be uploaded under the file key")
	}
}

func TestParseReceipt_ExtractorFailureCleansUpImage(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	extractor := &testutil.MockExtractor{Err: errors.New("provider down")}
	files := testutil.NewMockFileRepository()
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, files)

	_, err := svc.ParseReceipt(context.Background(), "auth0|user1", receiptImage(t), "receipt.jpg")
	if err == nil {
		t.Fatal("Expected extractor failure to surface")
	}

	if len(files.Objects) != 0 {
		t.Error("Expected uploaded image to be removed after extraction failure")
	}
	if receipts, _ := receiptRepo.GetAllByUser("auth0|user1"); len(receipts) != 0 {
		t.Error("Expected no receipt row after extraction failure")
	}
}

func TestParseReceipt_RejectsBadUploads(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	extractor := &testutil.MockExtractor{Fields: extractedFields()}
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, nil)

	ctx := context.Background()

	if _, err := svc.ParseReceipt(ctx, "auth0|user1", receiptImage(t), "receipt.pdf"); err != ErrInvalidReceiptFormat {
		t.Errorf("Expected ErrInvalidReceiptFormat, got %v", err)
	}
	if _, err := svc.ParseReceipt(ctx, "auth0|user1", []byte("not an image"), "receipt.jpg"); err != ErrInvalidReceiptImage {
		t.Errorf("Expected ErrInvalidReceiptImage, got %v", err)
	}
	if _, err := svc.ParseReceipt(ctx, "auth0|user1", make([]byte, MaxReceiptImageSize+1), "receipt.jpg"); err != ErrReceiptTooLarge {
		t.Errorf("Expected ErrReceiptTooLarge, got %v", err)
	}
}

func TestParseReceipt_UnknownTypeDefaultsToExpense(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	fields := extractedFields()
	fields.Type = ""
	extractor := &testutil.MockExtractor{Fields: fields}
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, nil)

	receipt, err := svc.ParseReceipt(context.Background(), "auth0|user1", receiptImage(t), "receipt.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if receipt.Draft.Type != domain.TransactionTypeExpense {
		t.Errorf("Expected draft type to default to expense, got %s", receipt.Draft.Type)
	}
}

func TestDeleteReceipt_UnlinksTransaction(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	extractor := &testutil.MockExtractor{Fields: extractedFields()}
	files := testutil.NewMockFileRepository()
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, files)

	userID := "auth0|user1"
	key := "receipts/auth0|user1/abc.jpg"
	files.Objects[key] = []byte("jpeg")
	receiptRepo.AddReceipt(&domain.Receipt{ID: 7, UserID: userID, FileKey: &key, IsProcessed: true})

	receiptID := int32(7)
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, UserID: userID, Type: domain.TransactionTypeExpense,
		Amount: decimal.NewFromInt(10), Date: time.Now(), ReceiptID: &receiptID,
	})

	if err := svc.DeleteReceipt(context.Background(), userID, 7); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tx, err := transactionRepo.GetByID(userID, 1)
	if err != nil {
		t.Fatalf("Expected transaction to survive, got %v", err)
	}
	if tx.ReceiptID != nil {
		t.Error("Expected transaction receipt linkage to be cleared")
	}
	if _, ok := files.Objects[key]; ok {
		t.Error("Expected stored image to be deleted")
	}
	if _, err := receiptRepo.GetByID(userID, 7); err != domain.ErrReceiptNotFound {
		t.Errorf("Expected receipt gone, got %v", err)
	}
}

func TestDeleteAllReceipts_ErrorsWhenEmpty(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	extractor := &testutil.MockExtractor{Fields: extractedFields()}
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, nil)

	_, err := svc.DeleteAllReceipts(context.Background(), "auth0|user1")
	if err != domain.ErrNoReceipts {
		t.Errorf("Expected ErrNoReceipts, got %v", err)
	}
}

func TestDeleteAllReceipts_ReturnsCount(t *testing.T) {
	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	extractor := &testutil.MockExtractor{Fields: extractedFields()}
	svc := NewReceiptService(receiptRepo, transactionRepo, extractor, nil)

	userID := "auth0|user1"
	receiptRepo.AddReceipt(&domain.Receipt{ID: 1, UserID: userID})
	receiptRepo.AddReceipt(&domain.Receipt{ID: 2, UserID: userID})
	receiptRepo.AddReceipt(&domain.Receipt{ID: 3, UserID: "auth0|other"})

	count, err := svc.DeleteAllReceipts(context.Background(), userID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 deleted, got %d", count)
	}

	// The other user's receipts are untouched
	if _, err := receiptRepo.GetByID("auth0|other", 3); err != nil {
		t.Errorf("Expected other user's receipt to survive, got %v", err)
	}
}
