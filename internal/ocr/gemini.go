package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// receiptPrompt instructs the model to answer with exactly one minified
// JSON object matching the draft-transaction shape. categoryId is a
// placeholder the client replaces; unknown fields must be null, not omitted.
const receiptPrompt = `You are a receipt parser.
Respond ONLY with valid, minified JSON:
{"type":"income|expense","amount":number,"note":string,"date":ISO8601,"source":string,"categoryId":null}
- 'type' is "income" if money was received, "expense" if it is a purchase.
- 'categoryId' is just a placeholder, to be replaced client-side.
- 'note' should not be longer than 6 words.
- If a field is not found, set it to null.
- No markdown, no extra text, no code fences, no comments.`

// GeminiClient implements Extractor against the Gemini generateContent API.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewGeminiClient creates a client for the given API key and model.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// NewGeminiClientWithBaseURL creates a client against a custom endpoint.
// Used by tests.
func NewGeminiClientWithBaseURL(apiKey, model, baseURL string) *GeminiClient {
	c := NewGeminiClient(apiKey, model)
	c.baseURL = baseURL
	return c
}

// Request/response wire types for generateContent.

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// parsedReceipt mirrors the JSON object the prompt demands. Everything is a
// pointer because the provider sets unknown fields to null.
type parsedReceipt struct {
	Type   *string  `json:"type"`
	Amount *float64 `json:"amount"`
	Note   *string  `json:"note"`
	Date   *string  `json:"date"`
	Source *string  `json:"source"`
}

// ExtractReceiptData sends the image with the fixed instruction and decodes
// the single JSON object the provider returns. Any provider failure —
// non-2xx status, malformed body, missing content — surfaces as one error;
// there is no partial recovery.
func (c *GeminiClient) ExtractReceiptData(ctx context.Context, image []byte) (*ReceiptFields, error) {
	reqBody := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{Text: receiptPrompt},
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gemini response: %w", err)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("malformed gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return nil, fmt.Errorf("gemini API error [%s - %d]: %s", decoded.Error.Status, decoded.Error.Code, decoded.Error.Message)
		}
		return nil, fmt.Errorf("gemini API returned status %d", resp.StatusCode)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini response contained no content")
	}

	var parsed parsedReceipt
	if err := json.Unmarshal([]byte(decoded.Candidates[0].Content.Parts[0].Text), &parsed); err != nil {
		return nil, fmt.Errorf("gemini returned invalid receipt JSON: %w", err)
	}

	return parsed.toFields(), nil
}

func (p *parsedReceipt) toFields() *ReceiptFields {
	fields := &ReceiptFields{}
	if p.Type != nil {
		fields.Type = *p.Type
	}
	if p.Amount != nil {
		fields.Amount = decimal.NewFromFloat(*p.Amount)
	}
	if p.Note != nil {
		fields.Note = *p.Note
	}
	if p.Source != nil {
		fields.Source = *p.Source
	}
	if p.Date != nil {
		if t, err := time.Parse(time.RFC3339, *p.Date); err == nil {
			fields.Date = &t
		} else if t, err := time.Parse("2006-01-02", *p.Date); err == nil {
			fields.Date = &t
		}
	}
	return fields
}
