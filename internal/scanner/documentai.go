package scanner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DocumentAI calls a Google Document AI receipt processor over REST and maps
// its entities onto an Extraction.
type DocumentAI struct {
	endpoint  string
	processor string
	token     string
	client    *http.Client
}

// DocumentAIConfig identifies the processor to call.
type DocumentAIConfig struct {
	// Endpoint is the API base, e.g. https://documentai.googleapis.com.
	Endpoint string
	// Project, Location and Processor name the receipt processor.
	Project   string
	Location  string
	Processor string
	// Token is the bearer token sent with each request.
	Token string
}

// NewDocumentAI builds a client for the configured processor.
func NewDocumentAI(cfg DocumentAIConfig) *DocumentAI {
	return &DocumentAI{
		endpoint:  cfg.Endpoint,
		processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.Project, cfg.Location, cfg.Processor),
		token:     cfg.Token,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type processRequest struct {
	RawDocument rawDocument `json:"rawDocument"`
}

type rawDocument struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type processResponse struct {
	Document struct {
		Entities []struct {
			Type        string `json:"type"`
			MentionText string `json:"mentionText"`
		} `json:"entities"`
	} `json:"document"`
}

// Extract sends the image to the processor and picks out the total_amount,
// supplier_name and receipt_date entities.
func (d *DocumentAI) Extract(ctx context.Context, image []byte) (Extraction, error) {
	payload := processRequest{
		RawDocument: rawDocument{
			Content:  base64.StdEncoding.EncodeToString(image),
			MimeType: "image/jpeg",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Extraction{}, fmt.Errorf("marshal process request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/%s:process", d.endpoint, d.processor)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Extraction{}, fmt.Errorf("build process request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Extraction{}, fmt.Errorf("call document processor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Extraction{}, fmt.Errorf("document processor returned %d: %s", resp.StatusCode, msg)
	}

	var pr processResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Extraction{}, fmt.Errorf("decode process response: %w", err)
	}

	var ex Extraction
	for _, entity := range pr.Document.Entities {
		switch entity.Type {
		case "total_amount":
			ex.TotalAmount = entity.MentionText
		case "supplier_name":
			ex.SupplierName = entity.MentionText
		case "receipt_date":
			ex.ReceiptDate = entity.MentionText
		}
	}
	return ex, nil
}

var _ Extractor = (*DocumentAI)(nil)
