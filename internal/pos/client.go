// Package pos es el cliente HTTP del registro de clientes del POS remoto.
package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inventory-service/internal/models"

	"go.uber.org/zap"
)

const (
	clientsPath  = "/api/pos/clients"
	apiKeyHeader = "X-API-Key"
	opSyncClient = "pos sync client"
)

// ErrNotConfigured el POS remoto no tiene URL configurada
var ErrNotConfigured = errors.New("pos base url not configured")

// Syncer registra un cliente en el POS y retorna su pos_id
type Syncer interface {
	SyncClient(ctx context.Context, client *models.Client) (string, error)
}

// Client cliente HTTP del POS
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient crea el cliente; timeout <= 0 usa 10s
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type clientPayload struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email string  `json:"email"`
	POSID *string `json:"pos_id"`
}

// clientResponse pos_id puede llegar como string o como número según la versión del POS
type clientResponse struct {
	POSID interface{} `json:"pos_id"`
}

func (r clientResponse) posID() string {
	switch v := r.POSID.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// SyncClient envía el cliente al POS. Cualquier falla (transporte, timeout, no-2xx,
// JSON inválido o pos_id vacío) se retorna como *models.ConnectivityError.
func (c *Client) SyncClient(ctx context.Context, client *models.Client) (string, error) {
	if c.baseURL == "" {
		return "", &models.ConnectivityError{Op: opSyncClient, Err: ErrNotConfigured}
	}

	body, err := json.Marshal(clientPayload{
		ID:    client.ID,
		Name:  client.Name,
		Phone: client.Phone,
		Email: client.Email,
		POSID: client.POSID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+clientsPath, bytes.NewReader(body))
	if err != nil {
		return "", &models.ConnectivityError{Op: opSyncClient, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &models.ConnectivityError{Op: opSyncClient, Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &models.ConnectivityError{
			Op:         opSyncClient,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(data))),
		}
	}

	var parsed clientResponse
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return "", &models.ConnectivityError{Op: opSyncClient, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}
	posID := parsed.posID()
	if posID == "" {
		return "", &models.ConnectivityError{Op: opSyncClient, StatusCode: resp.StatusCode, Err: errors.New("response without pos_id")}
	}

	c.logger.Debug("🔍 [DEBUG] Cliente sincronizado con POS",
		zap.String("client_id", client.ID),
		zap.String("pos_id", posID),
		zap.Duration("latency", time.Since(start)))

	return posID, nil
}
