package db

import (
	"strings"
	"time"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS claim_extractions (
    cache_key  TEXT PRIMARY KEY,
    kind       TEXT NOT NULL,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_claim_extractions_kind ON claim_extractions (kind);
`

// ExtractionRecord represents a row of claim_extractions
type ExtractionRecord struct {
	CacheKey  string    `json:"cache_key"`
	Kind      string    `json:"kind"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KindFromKey returns the document kind encoded before the first ":" of a
// cache key ("resume:ab12..." -> "resume"), or "unknown".
func KindFromKey(key string) string {
	kind, _, ok := strings.Cut(key, ":")
	if !ok || kind == "" {
		return "unknown"
	}
	return kind
}
