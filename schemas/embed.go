// Package schemas embeds the JSON Schema artifacts for claim objects and score results.
package schemas

import "embed"

// Schema file names.
const (
	ResumeClaims = "resume_claims.schema.json"
	JDClaims     = "jd_claims.schema.json"
	ScoreResult  = "score_result.schema.json"
)

// Files holds every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS
