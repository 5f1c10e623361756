/*
handlers.go - HTTP API handlers for the CPAP cost-share estimator

PURPOSE:
  Exposes the cost-share engine and the fee schedule via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the factory,
  the engine and the statement renderer.

ENDPOINTS:
  Estimates:
    POST   /api/estimates                     Run an estimate
    POST   /api/estimates/statement           Estimate as a PDF statement
                                              (?format=text for plain text)
    POST   /api/allocations                   Split a single charge

  Catalog:
    GET    /api/catalog/items                 List the fee schedule
    POST   /api/catalog/items                 Add or replace an item
    GET    /api/catalog/items/{code}          Get one item
    DELETE /api/catalog/items/{code}          Remove an item and its alternates
    GET    /api/catalog/items/{code}/alternates  List substitutions for a slot
    POST   /api/catalog/items/{code}/alternates  Add or replace a substitution
    POST   /api/catalog/reset                 Restore the default fee schedule

  Scenarios:
    GET    /api/scenarios                     List canned plan scenarios
    POST   /api/scenarios/{id}/estimate       Run the standard setup under one

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve plan defaults and items (factory)
  3. Run the engine (costshare.Simulate / Allocate)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid input
  - 404: Unknown item code or alternate
  - 500: Internal errors

  Nothing about a patient or a plan is stored. Estimates are computed per
  request and discarded.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Canned plan scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/costshare"
	"github.com/warp/cpap-estimator/factory"
	"github.com/warp/cpap-estimator/logging"
	"github.com/warp/cpap-estimator/statement"
)

// maxBodyBytes bounds request bodies. A full estimate request is a few KB.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Catalog catalog.Store
	Factory *factory.EstimateFactory

	// Logo is printed at the top of PDF statements when set.
	Logo []byte

	now   func() time.Time
	newID func() string
}

// NewHandler creates a new handler backed by the given fee schedule store.
func NewHandler(st catalog.Store, logo []byte) *Handler {
	return &Handler{
		Catalog: st,
		Factory: factory.NewEstimateFactory(st),
		Logo:    logo,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// =============================================================================
// ESTIMATE HANDLERS
// =============================================================================

// CreateEstimate runs an estimate.
// POST /api/estimates
func (h *Handler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	var req factory.EstimateJSON
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	est, err := h.estimate(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "Failed to compute estimate", err)
		return
	}

	writeJSON(w, http.StatusOK, toEstimateDTO(h.newID(), h.now().UTC(), est))
}

// CreateStatement renders an estimate as the patient statement.
// POST /api/estimates/statement
func (h *Handler) CreateStatement(w http.ResponseWriter, r *http.Request) {
	var req StatementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	est, err := h.estimate(r.Context(), req.EstimateJSON)
	if err != nil {
		writeDomainError(w, r, "Failed to compute estimate", err)
		return
	}

	id := h.newID()
	doc := statement.Build(est, statement.Options{
		Date:        h.now(),
		PatientName: req.PatientName,
		DOB:         req.DOB,
		Reference:   id,
		Logo:        h.Logo,
	})

	var buf bytes.Buffer
	contentType := "application/pdf"
	if r.URL.Query().Get("format") == "text" {
		contentType = "text/plain; charset=utf-8"
		err = statement.RenderText(&buf, doc)
	} else {
		err = statement.RenderPDF(&buf, doc)
	}
	if err != nil {
		writeDomainError(w, r, "Failed to render statement", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if contentType == "application/pdf" {
		w.Header().Set("Content-Disposition", `attachment; filename="cpap_eob.pdf"`)
	}
	w.Header().Set("X-Estimate-ID", id)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// CreateAllocation splits a single charge against the given balances.
// POST /api/allocations
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate := factory.DefaultPlan().CoinsuranceRate
	switch {
	case req.CoinsuranceRate != nil && req.CoinsurancePercent != nil:
		writeError(w, http.StatusBadRequest, "Invalid input",
			costshare.InvalidInput("coinsurance", "", "give coinsurance_percent or coinsurance_rate, not both"))
		return
	case req.CoinsurancePercent != nil:
		rate = req.CoinsurancePercent.Div(decimal.NewFromInt(100))
	case req.CoinsuranceRate != nil:
		rate = *req.CoinsuranceRate
	}

	a, err := costshare.Allocate(req.Amount, req.DeductibleRemaining, req.OOPRemaining, rate)
	if err != nil {
		writeDomainError(w, r, "Failed to allocate charge", err)
		return
	}

	writeJSON(w, http.StatusOK, AllocationDTO{
		Patient:             a.Patient,
		Insurer:             a.Insurer,
		DeductibleRemaining: a.DeductibleRemaining,
		OOPRemaining:        a.OOPRemaining,
	})
}

// estimate resolves req against the fee schedule and simulates it.
func (h *Handler) estimate(ctx context.Context, req factory.EstimateJSON) (costshare.Estimate, error) {
	resolved, err := h.Factory.Build(ctx, req)
	if err != nil {
		return costshare.Estimate{}, err
	}
	return costshare.Simulate(resolved.Items, resolved.Plan)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCatalogItems returns the fee schedule in statement order.
// GET /api/catalog/items
func (h *Handler) ListCatalogItems(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Catalog.ListItems(r.Context())
	if err != nil {
		writeDomainError(w, r, "Failed to list fee schedule", err)
		return
	}

	dtos := make([]CatalogItemDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toCatalogItemDTO(e.Item, e.Position)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCatalogItem returns one fee schedule item.
// GET /api/catalog/items/{code}
func (h *Handler) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	e, err := h.Catalog.GetItem(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, r, "Item not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toCatalogItemDTO(e.Item, e.Position))
}

// SaveCatalogItem adds or replaces a fee schedule item.
// POST /api/catalog/items
func (h *Handler) SaveCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req CatalogItemDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := validItem(req)
	if err != nil {
		writeDomainError(w, r, "Invalid item", err)
		return
	}

	ctx := r.Context()
	if err := h.Catalog.SaveItem(ctx, catalog.Entry{Item: item, Position: req.Position}); err != nil {
		writeDomainError(w, r, "Failed to save item", err)
		return
	}

	saved, err := h.Catalog.GetItem(ctx, item.Code)
	if err != nil {
		writeDomainError(w, r, "Failed to reload item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCatalogItemDTO(saved.Item, saved.Position))
}

// DeleteCatalogItem removes an item and its alternates.
// DELETE /api/catalog/items/{code}
func (h *Handler) DeleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.Catalog.DeleteItem(r.Context(), code); err != nil {
		writeDomainError(w, r, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAlternates returns the substitutions for a slot.
// GET /api/catalog/items/{code}/alternates
func (h *Handler) ListAlternates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slot := chi.URLParam(r, "code")

	if _, err := h.Catalog.GetItem(ctx, slot); err != nil {
		writeDomainError(w, r, "Item not found", err)
		return
	}

	alts, err := h.Catalog.ListAlternates(ctx, slot)
	if err != nil {
		writeDomainError(w, r, "Failed to list alternates", err)
		return
	}

	dtos := make([]AlternateDTO, len(alts))
	for i, a := range alts {
		dtos[i] = toAlternateDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveAlternate adds or replaces a substitution for a slot.
// POST /api/catalog/items/{code}/alternates
func (h *Handler) SaveAlternate(w http.ResponseWriter, r *http.Request) {
	var req CatalogItemDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := validItem(req)
	if err != nil {
		writeDomainError(w, r, "Invalid alternate", err)
		return
	}

	a := catalog.Alternate{Slot: chi.URLParam(r, "code"), Item: item, Position: req.Position}
	if err := h.Catalog.SaveAlternate(r.Context(), a); err != nil {
		writeDomainError(w, r, "Failed to save alternate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAlternateDTO(a))
}

// ResetCatalog restores the default fee schedule and alternates.
// POST /api/catalog/reset
func (h *Handler) ResetCatalog(w http.ResponseWriter, r *http.Request) {
	if err := catalog.Seed(r.Context(), h.Catalog); err != nil {
		writeDomainError(w, r, "Failed to reset fee schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func validItem(d CatalogItemDTO) (costshare.BillableItem, error) {
	if d.Code == "" {
		return costshare.BillableItem{}, costshare.InvalidInput("code", "", "required")
	}
	item := d.toItem()
	if item.Description == "" {
		item.Description = item.Code
	}
	if err := item.Validate(); err != nil {
		return costshare.BillableItem{}, err
	}
	return item, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and catalog errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case costshare.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case catalog.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		logging.FromContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(message)
		writeError(w, http.StatusInternalServerError, message, fmt.Errorf("internal error"))
	}
}
