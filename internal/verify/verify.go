// Package verify asks a language model to settle requirement matches that
// embedding similarity alone left ambiguous.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/prompts"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// DefaultMaxConcurrent bounds outstanding verifier calls
const DefaultMaxConcurrent = 4

// Outcome labels for metrics
const (
	OutcomeMatched   = "matched"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
)

// VerificationTransportError means the verifier could not produce a verdict.
// It is never fatal: the match keeps its deterministic result.
type VerificationTransportError struct {
	RequirementID string
	Message       string
	Cause         error
}

func (e *VerificationTransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("verify %s: %s: %v", e.RequirementID, e.Message, e.Cause)
	}
	return fmt.Sprintf("verify %s: %s", e.RequirementID, e.Message)
}

func (e *VerificationTransportError) Unwrap() error {
	return e.Cause
}

// Verdict is the model's decision on one requirement/evidence pair
type Verdict struct {
	Matched   bool   `json:"matched"`
	Rationale string `json:"rationale"`
}

// Verifier makes bounded-concurrency verification calls.
type Verifier struct {
	client        llm.Client
	sem           *semaphore.Weighted
	maxConcurrent int
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewVerifier creates a verifier allowing at most maxConcurrent outstanding calls.
func NewVerifier(client llm.Client, maxConcurrent int, log *zap.Logger, m *metrics.Metrics) *Verifier {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Verifier{
		client:        client,
		sem:           semaphore.NewWeighted(int64(maxConcurrent)),
		maxConcurrent: maxConcurrent,
		logger:        logger.WithFields(log, logger.CommonFields("", client.GetModel(llm.TierLite))...),
		metrics:       m,
	}
}

// MaxConcurrent returns the concurrency bound
func (v *Verifier) MaxConcurrent() int {
	return v.maxConcurrent
}

// Verify asks whether evidence satisfies req. Waiting for a slot honours
// ctx; a cancelled wait returns the context error unwrapped.
func (v *Verifier) Verify(ctx context.Context, req types.ParsedRequirement, evidence string) (Verdict, error) {
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return Verdict{}, err
	}
	defer v.sem.Release(1)

	prompt := prompts.Format(prompts.MustGet(prompts.VerifyFile, prompts.KeyVerifyRequirement), map[string]string{
		"Requirement": req.Description,
		"Category":    string(req.Category),
		"Evidence":    evidence,
	})

	response, err := v.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return Verdict{}, &VerificationTransportError{RequirementID: req.ID, Message: "language model call failed", Cause: err}
	}

	var raw struct {
		Matched   *bool  `json:"matched"`
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(response)), &raw); err != nil {
		return Verdict{}, &VerificationTransportError{RequirementID: req.ID, Message: "unparseable verdict", Cause: err}
	}
	if raw.Matched == nil {
		return Verdict{}, &VerificationTransportError{RequirementID: req.ID, Message: "verdict has no matched field"}
	}
	return Verdict{Matched: *raw.Matched, Rationale: raw.Rationale}, nil
}

// Resolve applies the verification policy to a deterministic result. Only
// medium-confidence results are escalated. A confirmed match becomes
// high/matched and a rejection low/unmatched, both llm_verified. A failed
// call returns the result unmodified; the outage is only visible in the
// verifier metric and the warning log. The only error returned is context
// cancellation.
func (v *Verifier) Resolve(ctx context.Context, req types.ParsedRequirement, result types.MatchResult) (types.MatchResult, error) {
	if result.Confidence != types.ConfidenceMedium {
		return result, nil
	}

	log := v.logger.With(zap.String(logger.FieldRequirementID, req.ID))
	verdict, err := v.Verify(ctx, req, result.Evidence)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var transportErr *VerificationTransportError
		if !errors.As(err, &transportErr) {
			return result, err
		}
		v.metrics.ObserveVerifier(OutcomeTransport)
		log.Warn("verification unavailable; keeping deterministic result", zap.Error(err))
		return result, nil
	}

	result.Verification = types.VerificationLLM
	if verdict.Rationale != "" {
		result.Rationale = verdict.Rationale
	}
	if verdict.Matched {
		v.metrics.ObserveVerifier(OutcomeMatched)
		result.Matched = true
		result.Confidence = types.ConfidenceHigh
	} else {
		v.metrics.ObserveVerifier(OutcomeRejected)
		result.Matched = false
		result.Confidence = types.ConfidenceLow
	}
	log.Debug("requirement verified", zap.Bool("matched", verdict.Matched))
	return result, nil
}
