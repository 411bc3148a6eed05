package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

// Payload is what the processing pipeline expects. Field names are fixed
// by the pipeline.
type Payload struct {
	Filename        string `json:"filename"`
	URL             string `json:"url"`
	UserID          string `json:"user_id"`
	Pages           int    `json:"paginas"`
	Value           int64  `json:"valor"`
	IsBankStatement bool   `json:"is_bank_statement"`
	ClientName      string `json:"client_name"`
	SourceLanguage  string `json:"idioma_raiz"`
	TargetLanguage  string `json:"idioma_destino"`
	TranslationType string `json:"tipo_trad"`
	MimeType        string `json:"mimetype"`
	Size            int64  `json:"size"`
	PaymentMethod   string `json:"payment_method"`
}

type Notifier interface {
	Notify(ctx context.Context, payload Payload) error
}

type webhookNotifier struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *utils.Logger
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *utils.Logger) Notifier {
	return &webhookNotifier{
		url:     url,
		timeout: timeout,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
			},
		},
		logger: logger,
	}
}

// Notify posts the payload once. The caller must treat an error as the
// document not having been queued.
func (n *webhookNotifier) Notify(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDispatch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		n.logger.Error("Processing webhook rejected document",
			"status", resp.StatusCode,
			"filename", payload.Filename,
			"body", string(respBody))
		return fmt.Errorf("%w: processing webhook returned status %d", utils.ErrDispatch, resp.StatusCode)
	}

	n.logger.Info("Document dispatched for processing", "filename", payload.Filename, "user_id", payload.UserID)
	return nil
}
