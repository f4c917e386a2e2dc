package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de sincronización de un cliente con el POS
const (
	ClientStateLocal      = "local"
	ClientStateSynced     = "synced"
	ClientStateSyncFailed = "sync_failed"
)

// Client representa la tabla clients
type Client struct {
	ID             string          `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Phone          string          `json:"phone" db:"phone"`
	Email          string          `json:"email" db:"email"`
	POSID          *string         `json:"pos_id" db:"pos_id"`
	SyncFailed     bool            `json:"sync_failed" db:"sync_failed"`
	LastSynced     *time.Time      `json:"last_synced" db:"last_synced"`
	TotalSpent     decimal.Decimal `json:"total_spent" db:"total_spent"`
	PendingPayment decimal.Decimal `json:"pending_payment" db:"pending_payment"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// SyncState deriva el estado de la máquina Local → Synced / SyncFailed
func (c *Client) SyncState() string {
	switch {
	case c.SyncFailed:
		return ClientStateSyncFailed
	case c.POSID != nil && c.LastSynced != nil:
		return ClientStateSynced
	default:
		return ClientStateLocal
	}
}

// Matches búsqueda simple por nombre o teléfono, sin distinguir mayúsculas
func (c *Client) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Phone), q)
}

// Clone copia el cliente para no compartir punteros entre goroutines
func (c *Client) Clone() *Client {
	cp := *c
	if c.POSID != nil {
		id := *c.POSID
		cp.POSID = &id
	}
	if c.LastSynced != nil {
		t := *c.LastSynced
		cp.LastSynced = &t
	}
	return &cp
}
