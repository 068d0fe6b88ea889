package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opensource-finance/tradewatch/internal/domain"
	"github.com/opensource-finance/tradewatch/internal/scoring"
)

// MaxBatchSize caps the number of records accepted by POST /score/batch.
const MaxBatchSize = 10000

// Handler holds dependencies for API handlers.
type Handler struct {
	scorer  *scoring.Scorer
	version string
}

// NewHandler creates a new API handler.
func NewHandler(scorer *scoring.Scorer, version string) *Handler {
	return &Handler{
		scorer:  scorer,
		version: version,
	}
}

// ResponseMetadata is attached to every scoring response.
type ResponseMetadata struct {
	TraceID string `json:"traceId"`
	TotalMs int64  `json:"totalMs"`
	Version string `json:"version"`
}

// ScoreResponse is the response for POST /score.
type ScoreResponse struct {
	domain.ScoredTransaction
	Metadata ResponseMetadata `json:"metadata"`
}

// BatchRequest is the request body for POST /score/batch.
type BatchRequest struct {
	Transactions []domain.TransactionInput `json:"transactions"`
}

// BatchResponse is the response for POST /score/batch.
type BatchResponse struct {
	BatchID  string                     `json:"batchId"`
	Results  []domain.ScoredTransaction `json:"results"`
	Errors   []domain.RecordError       `json:"errors,omitempty"`
	Scored   int                        `json:"scored"`
	Rejected int                        `json:"rejected"`
	Metadata ResponseMetadata           `json:"metadata"`
}

// Score handles POST /score requests.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req domain.TransactionInput
	if !decodeBody(w, r, &req) {
		return
	}

	_, span := tracer.Start(ctx, "scoring.score")
	scored, err := h.scorer.ScoreInput(&req)
	if err != nil {
		span.RecordError(err)
		span.End()
		writeScoreError(w, err)
		return
	}
	span.End()
	annotate(ctx,
		attribute.String("transaction.id", scored.ID),
		attribute.Float64("risk.score", scored.RiskScore),
		attribute.String("risk.tier", string(scored.RiskTier)),
	)

	slog.Debug("transaction scored",
		"transaction_id", scored.ID,
		"risk_score", scored.RiskScore,
		"risk_tier", scored.RiskTier,
		"triggered_rules", scored.TriggeredRules,
	)

	writeJSON(w, http.StatusOK, ScoreResponse{
		ScoredTransaction: *scored,
		Metadata:          h.metadata(r, start),
	})
}

// ScoreBatch handles POST /score/batch requests. Records are scored
// independently; a rejected record is reported without failing the batch.
// With ?sort=desc the results are ranked by descending risk score.
func (h *Handler) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req BatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.Transactions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transactions must not be empty",
		})
		return
	}
	if len(req.Transactions) > MaxBatchSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"error": "batch too large",
			"limit": MaxBatchSize,
		})
		return
	}

	sortOrder := r.URL.Query().Get("sort")
	if sortOrder != "" && sortOrder != "desc" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "sort must be \"desc\" when given",
		})
		return
	}

	batchID := uuid.New().String()

	_, span := tracer.Start(ctx, "scoring.batch")
	batch := h.scorer.ScoreBatch(req.Transactions)
	span.End()
	annotate(ctx,
		attribute.String("batch.id", batchID),
		attribute.Int("batch.size", len(req.Transactions)),
		attribute.Int("batch.scored", len(batch.Results)),
		attribute.Int("batch.rejected", len(batch.Errors)),
	)

	results := batch.Results
	if sortOrder == "desc" {
		results = scoring.RankByScore(results)
	}

	writeJSON(w, http.StatusOK, BatchResponse{
		BatchID:  batchID,
		Results:  results,
		Errors:   batch.Errors,
		Scored:   len(batch.Results),
		Rejected: len(batch.Errors),
		Metadata: h.metadata(r, start),
	})
}

// RulesResponse is the response for GET /rules.
type RulesResponse struct {
	Rules  []domain.RuleConfig  `json:"rules"`
	Count  int                  `json:"count"`
	Config domain.ScoringConfig `json:"config"`
}

// ListRules returns the loaded rule table and thresholds.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	cfg := h.scorer.Engine().Config()
	ruleList := cfg.Rules
	cfg.Rules = nil

	writeJSON(w, http.StatusOK, RulesResponse{
		Rules:  ruleList,
		Count:  len(ruleList),
		Config: cfg,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.scorer == nil || h.scorer.Engine().RulesCount() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func (h *Handler) metadata(r *http.Request, start time.Time) ResponseMetadata {
	return ResponseMetadata{
		TraceID: GetTraceID(r.Context()),
		TotalMs: time.Since(start).Milliseconds(),
		Version: h.version,
	}
}

// decodeBody reads a JSON body into v and answers 400 or 413 on failure.
// A record field of the wrong type is not a failure here; it travels on
// the record's DecodeErr and is rejected by the scorer.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"error": "request body too large",
			"limit": tooLarge.Limit,
		})
		return false
	}

	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": "invalid JSON request body",
	})
	return false
}

func writeScoreError(w http.ResponseWriter, err error) {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
			"field": fe.Field,
		})
		return
	}

	slog.Error("scoring failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "scoring failed",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
