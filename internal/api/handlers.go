// Package api exposes HTTP handlers for the credit service.
package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/credits/internal/auth"
	"example.com/credits/internal/domain"
	"example.com/credits/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/logs", h.logs)
	mux.HandleFunc("/v1/logs/", h.logByID)
	mux.HandleFunc("/v1/ledger", h.ledger)
	mux.HandleFunc("/v1/payouts", h.payouts)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createLog(w, r)
	case http.MethodGet:
		h.listLogs(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) logByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/logs/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing log id")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.deleteLog(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createLog(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeLogsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope logs:write required")
		return
	}

	var req CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	logEntry, err := h.service.AppendLog(r.Context(), domain.AppendLogInput{
		OwnerID:  claims.Subject,
		Type:     req.Type,
		Date:     req.Date,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toLogView(*logEntry))
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeLogsRead) && !claims.HasScope(auth.ScopeLogsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope logs:read required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursorToken := r.URL.Query().Get("cursor")
	cursor, err := persistence.DecodeCursor(cursorToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	logs, next, err := h.service.ListLogs(r.Context(), claims.Subject, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]LogView, 0, len(logs))
	for _, l := range logs {
		items = append(items, toLogView(l))
	}

	resp := ListLogsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteLog(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	admin := claims.HasScope(auth.ScopeCreditsAdmin)
	if !admin && !claims.HasScope(auth.ScopeLogsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope logs:write required")
		return
	}

	if err := h.service.DeleteLog(r.Context(), claims.Subject, id, admin); err != nil {
		if errors.Is(err, domain.ErrLogNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity log not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeCreditsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope credits:read required")
		return
	}

	snapshot, err := h.service.GetLedger(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	payouts := make([]PayoutView, 0, len(snapshot.Payouts))
	for _, p := range snapshot.Payouts {
		payouts = append(payouts, toPayoutView(p))
	}

	resp := LedgerResponse{
		TotalCredits:   snapshot.Total,
		MonthlyCredits: snapshot.Monthly,
		PaidCredits:    snapshot.Paid,
		Balance:        snapshot.Balance,
		Payouts:        payouts,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) payouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.requestPayout(w, r)
	case http.MethodGet:
		h.listPayouts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) requestPayout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopePayoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope payouts:write required")
		return
	}

	var req RequestPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	decision, err := h.service.RequestPayout(r.Context(), claims.Subject, parseAmount(req.Amount))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be a positive number")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := RequestPayoutResponse{
		PayoutID:  decision.PayoutID,
		Status:    string(decision.Status),
		Flagged:   decision.Flagged,
		RiskScore: decision.RiskScore,
		Message:   decision.Message,
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeCreditsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope credits:read required")
		return
	}

	owner := claims.Subject
	if requested := r.URL.Query().Get("owner_id"); requested != "" && claims.HasScope(auth.ScopeCreditsAdmin) {
		owner = requested
	}

	payouts, err := h.service.ListPayouts(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]PayoutView, 0, len(payouts))
	for _, p := range payouts {
		items = append(items, toPayoutView(p))
	}
	writeJSON(w, http.StatusOK, ListPayoutsResponse{Items: items})
}

// parseAmount tolerates clients sending the amount as a JSON number or a
// quoted string. Anything unusable maps to NaN so the domain rejects it.
func parseAmount(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return math.NaN()
		}
		return parsed
	default:
		return math.NaN()
	}
}

// CreateLogRequest is the payload for POST /v1/logs.
type CreateLogRequest struct {
	Type     string   `json:"type"`
	Date     string   `json:"date"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
	Notes    string   `json:"notes"`
}

// LogView exposes a stored activity log.
type LogView struct {
	LogID     string    `json:"log_id"`
	OwnerID   string    `json:"owner_id"`
	Type      string    `json:"type"`
	Date      string    `json:"date"`
	Quantity  *float64  `json:"quantity,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogsResponse packages list results.
type ListLogsResponse struct {
	Items      []LogView `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// LedgerResponse is the derived credit position for the caller.
type LedgerResponse struct {
	TotalCredits   float64            `json:"total_credits"`
	MonthlyCredits map[string]float64 `json:"monthly_credits"`
	PaidCredits    float64            `json:"paid_credits"`
	Balance        float64            `json:"balance"`
	Payouts        []PayoutView       `json:"payouts"`
}

// RequestPayoutRequest is the payload for POST /v1/payouts. Amount is typed
// loosely so malformed values reach the domain validator instead of failing
// JSON decoding with an opaque error.
type RequestPayoutRequest struct {
	Amount any `json:"amount"`
}

// RequestPayoutResponse describes the screening outcome.
type RequestPayoutResponse struct {
	PayoutID  string  `json:"payout_id"`
	Status    string  `json:"status"`
	Flagged   bool    `json:"flagged"`
	RiskScore float64 `json:"risk_score"`
	Message   string  `json:"message"`
}

// AnomalyView exposes one detected anomaly.
type AnomalyView struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// PayoutView exposes a stored payout record.
type PayoutView struct {
	PayoutID  string        `json:"payout_id"`
	OwnerID   string        `json:"owner_id"`
	Amount    float64       `json:"amount"`
	Status    string        `json:"status"`
	Flagged   bool          `json:"flagged"`
	RiskScore float64       `json:"risk_score"`
	Anomalies []AnomalyView `json:"anomalies,omitempty"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ListPayoutsResponse packages payout history results.
type ListPayoutsResponse struct {
	Items []PayoutView `json:"items"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toLogView(l domain.ActivityLog) LogView {
	return LogView{
		LogID:     l.ID,
		OwnerID:   l.OwnerID,
		Type:      l.Type,
		Date:      l.Date,
		Quantity:  l.Quantity,
		Unit:      l.Unit,
		Notes:     l.Notes,
		CreatedAt: l.CreatedAt,
	}
}

func toPayoutView(p domain.Payout) PayoutView {
	anomalies := make([]AnomalyView, 0, len(p.Anomalies))
	for _, a := range p.Anomalies {
		anomalies = append(anomalies, AnomalyView{
			Type:        a.Type,
			Severity:    a.Severity,
			Description: a.Description,
		})
	}
	return PayoutView{
		PayoutID:  p.ID,
		OwnerID:   p.OwnerID,
		Amount:    p.Amount,
		Status:    string(p.Status),
		Flagged:   p.Flagged,
		RiskScore: p.RiskScore,
		Anomalies: anomalies,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
}
