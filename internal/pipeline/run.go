// Package pipeline wires extraction, matching, verification, gating, and
// score composition into the engine behind the public API.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/claims"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/gate"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/matching"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/scoring"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/verify"
)

// Stage names reported through ProgressEvent
const (
	StageExtract = "extract"
	StageMatch   = "match"
	StageGate    = "gate"
	StageCompose = "compose"
)

// ProgressEvent represents a progress update during a scoring run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called from the caller's goroutine, never concurrently
type ProgressCallback func(event ProgressEvent)

// Options holds the engine's collaborators. Extractor, Embedder, and
// Matcher are required; a nil Verifier disables verification.
type Options struct {
	Extractor  *claims.Extractor
	Embedder   llm.Embedder
	Matcher    *matching.Matcher
	Verifier   *verify.Verifier
	Gate       *gate.Gate
	Weights    *scoring.Weights
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	OnProgress ProgressCallback
}

// Engine runs scoring. It is safe for concurrent use.
type Engine struct {
	extractor  *claims.Extractor
	embedder   llm.Embedder
	matcher    *matching.Matcher
	verifier   *verify.Verifier
	gate       *gate.Gate
	weights    scoring.Weights
	logger     *zap.Logger
	metrics    *metrics.Metrics
	onProgress ProgressCallback
}

// New creates an engine
func New(opts Options) (*Engine, error) {
	if opts.Extractor == nil {
		return nil, errors.New("pipeline: extractor is required")
	}
	if opts.Embedder == nil {
		return nil, errors.New("pipeline: embedder is required")
	}
	if opts.Matcher == nil {
		return nil, errors.New("pipeline: matcher is required")
	}
	if opts.Gate == nil {
		opts.Gate = gate.New(gate.DefaultConfig())
	}
	weights := scoring.DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Engine{
		extractor:  opts.Extractor,
		embedder:   opts.Embedder,
		matcher:    opts.Matcher,
		verifier:   opts.Verifier,
		gate:       opts.Gate,
		weights:    weights,
		logger:     logger.WithFields(opts.Logger),
		metrics:    opts.Metrics,
		onProgress: opts.OnProgress,
	}, nil
}

func (e *Engine) emit(runID, step, message string, content any) {
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{Step: step, Message: message, RunID: runID, Content: content})
	}
}

// ExtractClaims returns the claim object for text. Failures are *claims.ExtractionError.
func (e *Engine) ExtractClaims(ctx context.Context, text string, kind types.DocumentKind) (*claims.Extraction, error) {
	return e.extractor.Extract(ctx, text, kind)
}

// ExtractResume extracts a resume claim object
func (e *Engine) ExtractResume(ctx context.Context, text string) (*types.ParsedResume, error) {
	return e.extractor.ExtractResume(ctx, text)
}

// ExtractJD extracts a job description claim object
func (e *Engine) ExtractJD(ctx context.Context, text string) (*types.ParsedJD, error) {
	return e.extractor.ExtractJD(ctx, text)
}

// ScoreMatch scores a resume against a job description. Each requirement
// is matched and, if ambiguous, verified concurrently; all results are
// gathered before the caps and the final score are computed. Results keep
// the job description's requirement order. On cancellation no partial
// result is returned.
func (e *Engine) ScoreMatch(ctx context.Context, resume *types.ParsedResume, jd *types.ParsedJD) (*types.ScoreResult, error) {
	if resume == nil || jd == nil {
		return nil, errors.New("pipeline: resume and job description are required")
	}
	started := time.Now()
	runID := uuid.NewString()
	log := e.logger.With(zap.String(logger.FieldRunID, runID))

	matches, err := e.matchAll(ctx, log, resume, jd)
	if err != nil {
		return nil, err
	}
	e.emit(runID, StageMatch, fmt.Sprintf("Matched %d requirements", len(matches)), matches)

	caps := e.gate.ComputeCaps(resume, jd, matches)
	e.emit(runID, StageGate, fmt.Sprintf("Role alignment %s", caps.Alignment.Relation), caps.Applied())

	blend := scoring.Blend(matches, resume, jd, e.weights)
	result := scoring.Compose(blend, caps, matches)
	result.RunID = runID
	e.emit(runID, StageCompose, result.Justification, result)

	e.metrics.ObserveScore(time.Since(started).Seconds(), result.Score, result.BindingCap)
	log.Info("scored match",
		zap.Float64("score", result.Score),
		zap.Float64("blend", result.BlendScore),
		zap.String("binding_cap", result.BindingCap),
		zap.Int("requirements", len(matches)),
	)
	return result, nil
}

func (e *Engine) matchAll(ctx context.Context, log *zap.Logger, resume *types.ParsedResume, jd *types.ParsedJD) ([]types.MatchResult, error) {
	session := e.matcher.NewSession(ctx, resume, jd.Requirements, e.embedder)
	matches := make([]types.MatchResult, len(jd.Requirements))

	g, gCtx := errgroup.WithContext(ctx)
	for i, req := range jd.Requirements {
		i, req := i, req
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			result, err := session.Match(gCtx, req)
			if err != nil {
				var malformed *matching.MalformedRequirementError
				if !errors.As(err, &malformed) {
					return err
				}
				log.Warn("requirement could not be matched",
					zap.String(logger.FieldRequirementID, req.ID),
					zap.Error(err),
				)
				matches[i] = result
				return nil
			}

			if e.verifier != nil {
				result, err = e.verifier.Resolve(gCtx, req, result)
				if err != nil {
					return err
				}
			}
			matches[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, m := range matches {
		e.metrics.ObserveMatch(string(m.Confidence), string(m.Verification))
	}
	return matches, nil
}

// ScoreText extracts both documents concurrently and scores them. Any
// extraction failure aborts the run.
func (e *Engine) ScoreText(ctx context.Context, resumeText, jdText string) (*types.ScoreResult, error) {
	var resume *types.ParsedResume
	var jd *types.ParsedJD

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := e.extractor.ExtractResume(gCtx, resumeText)
		if err != nil {
			return err
		}
		resume = r
		return nil
	})
	g.Go(func() error {
		j, err := e.extractor.ExtractJD(gCtx, jdText)
		if err != nil {
			return err
		}
		jd = j
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.emit("", StageExtract, fmt.Sprintf("Extracted resume and job description (%d requirements)", len(jd.Requirements)), nil)

	return e.ScoreMatch(ctx, resume, jd)
}
