// Package claims turns raw resume and job description text into structured
// claim objects with one language model call per distinct document.
package claims

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/prompts"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/schemas"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
	artifacts "github.com/matsha05/recruiter-in-your-pocket-sub007/schemas"
)

// DefaultMaxInputChars bounds the text sent to the model, in runes.
const DefaultMaxInputChars = 20000

// maxAttempts is the initial call plus one retry.
const maxAttempts = 2

// Extraction is an immutable claim object for one document.
// Exactly one of Resume or JD is set, according to Kind.
type Extraction struct {
	Kind     types.DocumentKind
	CacheKey string
	Resume   *types.ParsedResume
	JD       *types.ParsedJD
}

// MarshalClaims encodes the claim object without the envelope
func (e *Extraction) MarshalClaims() ([]byte, error) {
	if e.Kind == types.KindResume {
		return json.Marshal(e.Resume)
	}
	return json.Marshal(e.JD)
}

// Options configures an Extractor
type Options struct {
	MaxInputChars int
	Cache         *Cache
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// Extractor calls the model, validates and coerces its output, and caches results.
type Extractor struct {
	client        llm.Client
	cache         *Cache
	maxInputChars int
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewExtractor creates an extractor. A nil Cache gets a fresh in-memory one.
func NewExtractor(client llm.Client, opts Options) *Extractor {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.Cache == nil {
		opts.Cache = NewCache(opts.Logger, opts.Metrics)
	}
	return &Extractor{
		client:        client,
		cache:         opts.Cache,
		maxInputChars: opts.MaxInputChars,
		logger:        logger.WithFields(opts.Logger, logger.CommonFields("", client.GetModel(llm.TierStandard))...),
		metrics:       opts.Metrics,
	}
}

// Extract returns the claim object for rawText. Identical documents return
// the identical Extraction without another model call.
func (x *Extractor) Extract(ctx context.Context, rawText string, kind types.DocumentKind) (*Extraction, error) {
	if !kind.Valid() {
		return nil, &ExtractionError{Kind: kind, Stage: StageInput, Message: "unsupported document kind"}
	}
	text := Truncate(strings.TrimSpace(rawText), x.maxInputChars)
	if text == "" {
		return nil, &ExtractionError{Kind: kind, Stage: StageInput, Message: "document is empty"}
	}

	key := Key(kind, text)
	return x.cache.GetOrCompute(ctx, key, kind, func(ctx context.Context) (*Extraction, error) {
		return x.extract(ctx, text, kind, key)
	})
}

// ExtractResume extracts a resume
func (x *Extractor) ExtractResume(ctx context.Context, rawText string) (*types.ParsedResume, error) {
	e, err := x.Extract(ctx, rawText, types.KindResume)
	if err != nil {
		return nil, err
	}
	return e.Resume, nil
}

// ExtractJD extracts a job description
func (x *Extractor) ExtractJD(ctx context.Context, rawText string) (*types.ParsedJD, error) {
	e, err := x.Extract(ctx, rawText, types.KindJD)
	if err != nil {
		return nil, err
	}
	return e.JD, nil
}

func (x *Extractor) extract(ctx context.Context, text string, kind types.DocumentKind, key string) (*Extraction, error) {
	log := x.logger.With(zap.String(logger.FieldDocKind, string(kind)), logger.CacheKey(key))
	prompt := buildPrompt(kind, text)

	var lastErr *ExtractionError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		x.metrics.ObserveExtraction(string(kind))

		e, err := x.attempt(ctx, prompt, kind)
		if err == nil {
			e.CacheKey = key
			log.Debug("extracted claims", zap.Int("attempt", attempt))
			return e, nil
		}
		lastErr = err
		log.Warn("extraction attempt failed",
			zap.Int("attempt", attempt),
			zap.String("stage", err.Stage),
			zap.Error(err.Cause),
		)
		if ctx.Err() != nil {
			break
		}
	}

	x.metrics.ObserveExtractionFailure(string(kind), lastErr.Stage)
	return nil, lastErr
}

func (x *Extractor) attempt(ctx context.Context, prompt string, kind types.DocumentKind) (*Extraction, *ExtractionError) {
	response, err := x.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &ExtractionError{Kind: kind, Stage: StageTransport, Message: "language model call failed", Cause: err}
	}

	payload := []byte(llm.CleanJSONBlock(response))
	if !json.Valid(payload) {
		return nil, &ExtractionError{
			Kind:    kind,
			Stage:   StageParse,
			Message: "response is not valid JSON",
			Cause:   errors.New(logger.TruncateForLog(response, 200)),
		}
	}

	if err := schemas.Validate(schemaFor(kind), payload); err != nil {
		return nil, &ExtractionError{Kind: kind, Stage: StageSchema, Message: "response does not match the claims schema", Cause: err}
	}

	e := &Extraction{Kind: kind}
	switch kind {
	case types.KindResume:
		e.Resume, err = decodeResume(payload)
		if err == nil {
			err = e.Resume.Validate()
		}
	default:
		e.JD, err = decodeJD(payload)
		if err == nil {
			err = e.JD.Validate()
		}
	}
	if err != nil {
		return nil, &ExtractionError{Kind: kind, Stage: StageParse, Message: "failed to decode claims", Cause: err}
	}
	return e, nil
}

func buildPrompt(kind types.DocumentKind, text string) string {
	if kind == types.KindResume {
		return llm.BuildExtractionPrompt(llm.ResumeClaimsSchema(prompts.MustGet(prompts.ClaimsFile, prompts.KeyExtractResume)), text)
	}
	return llm.BuildExtractionPrompt(llm.JDClaimsSchema(prompts.MustGet(prompts.ClaimsFile, prompts.KeyExtractJD)), text)
}

func schemaFor(kind types.DocumentKind) string {
	if kind == types.KindResume {
		return artifacts.ResumeClaims
	}
	return artifacts.JDClaims
}

// Key is the content address of a document: the kind followed by the sha256
// of the kind and the whitespace-normalized text.
func Key(kind types.DocumentKind, text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + normalized))
	return fmt.Sprintf("%s:%s", kind, hex.EncodeToString(sum[:]))
}

// Truncate cuts text to at most limit runes. A non-positive limit disables it.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
