package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/assetflow/internal/core/transfer"
	"github.com/example/assetflow/internal/ctxutil"
	apperrors "github.com/example/assetflow/internal/errors"
	"github.com/example/assetflow/internal/ports/primary"
)

// Server serves the gateway API.
type Server struct {
	gateway  primary.TransferGateway
	registry primary.AssetRegistry
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewServer creates a Server. A nil gatherer serves the default registry
// at /metrics.
func NewServer(gateway primary.TransferGateway, registry primary.AssetRegistry, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		gateway:  gateway,
		registry: registry,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Handler returns the root handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /v1/assets", s.listAssets)
	mux.HandleFunc("GET /v1/assets/{id}", s.getAsset)
	mux.HandleFunc("GET /v1/sectors", s.listSectors)
	mux.HandleFunc("GET /v1/custodians", s.listCustodians)

	mux.HandleFunc("GET /v1/transfers", s.listTransfers)
	mux.HandleFunc("POST /v1/transfers", s.createTransfer)
	mux.HandleFunc("GET /v1/transfers/{id}", s.getTransfer)
	mux.HandleFunc("POST /v1/transfers/{id}/approve", s.approveTransfer)
	mux.HandleFunc("POST /v1/transfers/{id}/reject", s.rejectTransfer)
	mux.HandleFunc("POST /v1/transfers/{id}/effectuate", s.effectuateTransfer)

	mux.HandleFunc("GET /v1/audit-logs", s.listAuditLogs)
	mux.HandleFunc("POST /v1/audit-logs", s.writeAuditLog)

	return s.logRequests(withCaller(mux))
}

// withCaller places the caller identity headers into the request context.
// Requests without an identity proceed; the gateway refuses mutations.
func withCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderActorID)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, apperrors.ValidationField(HeaderActorID, "must be a positive integer"))
			return
		}
		ctx := ctxutil.WithCaller(r.Context(), ctxutil.Caller{ID: id, Role: r.Header.Get(HeaderActorRole)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// ============================================================================
// Registry
// ============================================================================

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	q := queryParser{r: r}
	filters := primary.AssetFilters{
		SectorID:    q.intValue("sector_id"),
		CustodianID: q.intValue("custodian_id"),
		Status:      transfer.AssetStatus(r.URL.Query().Get("status")),
	}
	if err := q.err(); err != nil {
		writeError(w, err)
		return
	}
	assets, err := s.registry.ListAssets(r.Context(), filters)
	respond(w, http.StatusOK, assets, err)
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	asset, err := s.registry.GetAsset(r.Context(), id)
	respond(w, http.StatusOK, asset, err)
}

func (s *Server) listSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := s.registry.ListSectors(r.Context())
	respond(w, http.StatusOK, sectors, err)
}

func (s *Server) listCustodians(w http.ResponseWriter, r *http.Request) {
	custodians, err := s.registry.ListCustodians(r.Context())
	respond(w, http.StatusOK, custodians, err)
}

// ============================================================================
// Transfers
// ============================================================================

func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	q := queryParser{r: r}
	filters := primary.TransferFilters{
		AssetID:     q.intValue("asset_id"),
		RequesterID: q.intValue("requester_id"),
		Limit:       int(q.intValue("limit")),
	}
	if raw := r.URL.Query().Get("state"); raw != "" {
		state, ok := transfer.ParseState(raw)
		if !ok {
			writeError(w, apperrors.ValidationField("state", fmt.Sprintf("unknown state %q", raw)))
			return
		}
		filters.State = state
	}
	if err := q.err(); err != nil {
		writeError(w, err)
		return
	}
	transfers, err := s.gateway.ListTransfers(r.Context(), filters)
	respond(w, http.StatusOK, transfers, err)
}

func (s *Server) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req primary.CreateTransferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.gateway.CreateTransfer(r.Context(), req)
	respond(w, http.StatusCreated, created, err)
}

func (s *Server) getTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.gateway.GetTransfer(r.Context(), id)
	respond(w, http.StatusOK, t, err)
}

func (s *Server) approveTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req ApproveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := s.gateway.ApproveTransfer(r.Context(), id, req.Notes, req.AutoEffectuate)
	respond(w, http.StatusOK, t, err)
}

func (s *Server) rejectTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req RejectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := s.gateway.RejectTransfer(r.Context(), id, req.Reason)
	respond(w, http.StatusOK, t, err)
}

func (s *Server) effectuateTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.gateway.EffectuateTransfer(r.Context(), id)
	respond(w, http.StatusOK, t, err)
}

// ============================================================================
// Audit log
// ============================================================================

func (s *Server) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := queryParser{r: r}
	filters := primary.AuditLogFilters{
		Entity:   r.URL.Query().Get("entity"),
		EntityID: q.intValue("entity_id"),
		ActorID:  q.intValue("actor_id"),
		Limit:    int(q.intValue("limit")),
	}
	if err := q.err(); err != nil {
		writeError(w, err)
		return
	}
	logs, err := s.gateway.ListAuditLogs(r.Context(), filters)
	respond(w, http.StatusOK, logs, err)
}

func (s *Server) writeAuditLog(w http.ResponseWriter, r *http.Request) {
	var entry primary.AuditEntry
	if err := decodeBody(r, &entry); err != nil {
		writeError(w, err)
		return
	}
	log, err := s.gateway.WriteAuditLog(r.Context(), entry)
	respond(w, http.StatusCreated, log, err)
}

// ============================================================================
// Helpers
// ============================================================================

// queryParser collects integer query parameter errors.
type queryParser struct {
	r      *http.Request
	fields map[string]string
}

func (q *queryParser) intValue(name string) int64 {
	raw := q.r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if q.fields == nil {
			q.fields = map[string]string{}
		}
		q.fields[name] = "must be an integer"
	}
	return v
}

func (q *queryParser) err() error {
	if len(q.fields) == 0 {
		return nil
	}
	return apperrors.Validation(q.fields)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, apperrors.ValidationField("id", "must be an integer")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.ValidationField("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func respond(w http.ResponseWriter, status int, payload any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = &apperrors.Error{Kind: apperrors.KindInternal, Message: err.Error()}
	}
	message := appErr.Message
	if message == "" {
		message = appErr.Error()
	}
	writeJSON(w, apperrors.HTTPStatus(appErr.Kind), ErrorBody{Error: ErrorDetail{
		Kind:    appErr.Kind,
		Message: message,
		Fields:  appErr.Fields,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
