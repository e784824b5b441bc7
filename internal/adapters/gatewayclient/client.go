// Package gatewayclient implements the transfer gateway and asset registry
// ports against a remote assetflow server.
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/assetflow/internal/adapters/httpapi"
	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ctxutil"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client talks to the gateway HTTP API. Network failures and timeouts
// surface as transport errors; error responses keep their kind.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ============================================================================
// TransferGateway
// ============================================================================

// CreateTransfer posts a new transfer request.
func (c *Client) CreateTransfer(ctx context.Context, req primary.CreateTransferRequest) (*primary.Transfer, error) {
	var t primary.Transfer
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransfer retrieves a transfer by ID.
func (c *Client) GetTransfer(ctx context.Context, id int64) (*primary.Transfer, error) {
	var t primary.Transfer
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/transfers/%d", id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransfers retrieves transfers matching the given filters.
func (c *Client) ListTransfers(ctx context.Context, filters primary.TransferFilters) ([]*primary.Transfer, error) {
	q := url.Values{}
	setInt(q, "asset_id", filters.AssetID)
	setInt(q, "requester_id", filters.RequesterID)
	setInt(q, "limit", int64(filters.Limit))
	if filters.State != "" {
		q.Set("state", string(filters.State))
	}

	var transfers []*primary.Transfer
	if err := c.do(ctx, http.MethodGet, "/v1/transfers", q, nil, &transfers); err != nil {
		return nil, err
	}
	return transfers, nil
}

// FindPending returns the pending transfer for an asset, or nil if none.
func (c *Client) FindPending(ctx context.Context, assetID int64) (*primary.Transfer, error) {
	transfers, err := c.ListTransfers(ctx, primary.TransferFilters{
		AssetID: assetID,
		State:   transfer.StatePending,
		Limit:   1,
	})
	if err != nil || len(transfers) == 0 {
		return nil, err
	}
	return transfers[0], nil
}

// ApproveTransfer approves a pending transfer.
func (c *Client) ApproveTransfer(ctx context.Context, id int64, notes string, autoEffectuate bool) (*primary.Transfer, error) {
	var t primary.Transfer
	body := httpapi.ApproveRequest{Notes: notes, AutoEffectuate: autoEffectuate}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/transfers/%d/approve", id), nil, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// RejectTransfer rejects a pending transfer.
func (c *Client) RejectTransfer(ctx context.Context, id int64, reason string) (*primary.Transfer, error) {
	var t primary.Transfer
	body := httpapi.RejectRequest{Reason: reason}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/transfers/%d/reject", id), nil, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// EffectuateTransfer applies an approved transfer.
func (c *Client) EffectuateTransfer(ctx context.Context, id int64) (*primary.Transfer, error) {
	var t primary.Transfer
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/transfers/%d/effectuate", id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// WriteAuditLog appends an audit log entry.
func (c *Client) WriteAuditLog(ctx context.Context, entry primary.AuditEntry) (*primary.AuditLog, error) {
	var log primary.AuditLog
	if err := c.do(ctx, http.MethodPost, "/v1/audit-logs", nil, entry, &log); err != nil {
		if apperrors.Is(err, apperrors.KindAuditLog) {
			return nil, err
		}
		return nil, apperrors.AuditLog(err)
	}
	return &log, nil
}

// ListAuditLogs retrieves audit log entries.
func (c *Client) ListAuditLogs(ctx context.Context, filters primary.AuditLogFilters) ([]*primary.AuditLog, error) {
	q := url.Values{}
	if filters.Entity != "" {
		q.Set("entity", filters.Entity)
	}
	setInt(q, "entity_id", filters.EntityID)
	setInt(q, "actor_id", filters.ActorID)
	setInt(q, "limit", int64(filters.Limit))

	var logs []*primary.AuditLog
	if err := c.do(ctx, http.MethodGet, "/v1/audit-logs", q, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ============================================================================
// AssetRegistry
// ============================================================================

// ListAssets retrieves assets matching the given filters.
func (c *Client) ListAssets(ctx context.Context, filters primary.AssetFilters) ([]*primary.Asset, error) {
	q := url.Values{}
	setInt(q, "sector_id", filters.SectorID)
	setInt(q, "custodian_id", filters.CustodianID)
	if filters.Status != "" {
		q.Set("status", string(filters.Status))
	}

	var assets []*primary.Asset
	if err := c.do(ctx, http.MethodGet, "/v1/assets", q, nil, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetAsset retrieves an asset by ID.
func (c *Client) GetAsset(ctx context.Context, id int64) (*primary.Asset, error) {
	var a primary.Asset
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/assets/%d", id), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SectorExists reports whether a sector exists.
func (c *Client) SectorExists(ctx context.Context, id int64) (bool, error) {
	sectors, err := c.ListSectors(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range sectors {
		if s.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// CustodianExists reports whether a custodian exists.
func (c *Client) CustodianExists(ctx context.Context, id int64) (bool, error) {
	custodians, err := c.ListCustodians(ctx)
	if err != nil {
		return false, err
	}
	for _, cu := range custodians {
		if cu.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// ListSectors retrieves all sectors.
func (c *Client) ListSectors(ctx context.Context) ([]*primary.Sector, error) {
	var sectors []*primary.Sector
	if err := c.do(ctx, http.MethodGet, "/v1/sectors", nil, nil, &sectors); err != nil {
		return nil, err
	}
	return sectors, nil
}

// ListCustodians retrieves all custodians.
func (c *Client) ListCustodians(ctx context.Context) ([]*primary.Custodian, error) {
	var custodians []*primary.Custodian
	if err := c.do(ctx, http.MethodGet, "/v1/custodians", nil, nil, &custodians); err != nil {
		return nil, err
	}
	return custodians, nil
}

// ============================================================================
// Transport
// ============================================================================

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if caller, ok := ctxutil.CallerFromContext(ctx); ok {
		req.Header.Set(httpapi.HeaderActorID, strconv.FormatInt(caller.ID, 10))
		req.Header.Set(httpapi.HeaderActorRole, caller.Role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Transport(fmt.Errorf("failed to decode %s %s response: %w", method, path, err))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body httpapi.ErrorBody
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &body) == nil && (body.Error.Kind != "" || body.Error.Message != "") {
		return body.Error.Err(resp.StatusCode)
	}
	return &apperrors.Error{
		Kind:    apperrors.KindFromHTTPStatus(resp.StatusCode),
		Message: fmt.Sprintf("gateway returned %s", resp.Status),
	}
}

func setInt(q url.Values, name string, v int64) {
	if v != 0 {
		q.Set(name, strconv.FormatInt(v, 10))
	}
}

var (
	_ primary.TransferGateway = (*Client)(nil)
	_ primary.AssetRegistry   = (*Client)(nil)
)
