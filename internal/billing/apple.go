package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"modulehub/internal/observability"
)

const (
	providerApple = "apple"

	// AppleStatusSandboxReceipt means a sandbox receipt was sent to the production endpoint.
	AppleStatusSandboxReceipt = 21007
)

// AppleVerifier checks in-app purchase receipts with Apple.
type AppleVerifier interface {
	Verify(ctx context.Context, receipt string) (VerifyResult, error)
}

// VerifyResult is the outcome of a receipt check.
type VerifyResult struct {
	Verified bool
	Sandbox  bool
	Status   int
}

type appleVerifier struct {
	client     *http.Client
	productURL string
	receiptURL string
}

// NewAppleVerifier returns a verifier posting to productURL first and to
// receiptURL when Apple reports a sandbox receipt.
func NewAppleVerifier(productURL, receiptURL string, client *http.Client) AppleVerifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &appleVerifier{client: client, productURL: productURL, receiptURL: receiptURL}
}

type appleStatus struct {
	Status int `json:"status"`
}

// Verify reports success only when the production endpoint answers with
// the sandbox-receipt status and the receipt endpoint was then reached.
func (v *appleVerifier) Verify(ctx context.Context, receipt string) (VerifyResult, error) {
	ctx, span := observability.StartClientSpan(ctx, providerApple, "receipt.verify")
	done := observability.TrackProviderCall(providerApple, "receipt.verify")

	res, err := v.verify(ctx, receipt)
	done(err)
	observability.EndSpan(span, err)
	return res, err
}

func (v *appleVerifier) verify(ctx context.Context, receipt string) (VerifyResult, error) {
	status, body, err := v.post(ctx, v.productURL, receipt)
	if err != nil {
		return VerifyResult{}, err
	}
	if status != http.StatusOK {
		return VerifyResult{}, nil
	}

	var parsed appleStatus
	if err := json.Unmarshal(body, &parsed); err != nil {
		return VerifyResult{}, fmt.Errorf("decode apple response: %w", err)
	}
	if parsed.Status != AppleStatusSandboxReceipt {
		return VerifyResult{Status: parsed.Status}, nil
	}

	if _, _, err := v.post(ctx, v.receiptURL, receipt); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Verified: true, Sandbox: true, Status: parsed.Status}, nil
}

func (v *appleVerifier) post(ctx context.Context, url, receipt string) (int, []byte, error) {
	payload, err := json.Marshal(map[string]string{"receipt-data": receipt})
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("apple verify request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
