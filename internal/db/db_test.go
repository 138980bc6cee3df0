package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"resume:0f3a", "resume"},
		{"jd:abcd", "jd"},
		{"no-separator", "unknown"},
		{":abcd", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, KindFromKey(tt.key))
		})
	}
}

func TestExtractionStoreName(t *testing.T) {
	db := &DB{}
	assert.Equal(t, "postgres", db.Extractions().Name())
}

func TestCloseWithoutPool(t *testing.T) {
	db := &DB{}
	assert.NotPanics(t, db.Close)
}
