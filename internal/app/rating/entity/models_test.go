package entity

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===================== RatingSnapshot Tests =====================

func TestSnapshotValid(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		maxScore int
		want     bool
	}{
		{"typical rating", 4.7, 5, true},
		{"score equals ceiling", 5.0, 5, true},
		{"zero score", 0, 5, false},
		{"score above ceiling", 5.1, 5, false},
		{"custom ceiling", 7.5, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &RatingSnapshot{Score: tt.score, MaxScore: tt.maxScore}
			assert.Equal(t, tt.want, s.Valid())
		})
	}
}

func TestSnapshotJSON_FieldNames(t *testing.T) {
	// Arrange: имена полей - внешний контракт read API
	reviewCount := 1523
	s := RatingSnapshot{
		Score:       4.7,
		ReviewCount: &reviewCount,
		MaxScore:    5,
		Reviews:     []Review{},
		Timestamp:   time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC),
		URL:         "https://example.com/review",
	}

	// Act
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	// Assert
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, field := range []string{"score", "reviewCount", "maxScore", "reviews", "timestamp", "url"} {
		assert.Contains(t, decoded, field)
	}
}

func TestSnapshotJSON_NilReviewCount(t *testing.T) {
	raw, err := json.Marshal(RatingSnapshot{Score: 4.2, MaxScore: 5, Reviews: []Review{}})
	require.NoError(t, err)

	// nil сериализуется как null, не как 0
	assert.Contains(t, string(raw), `"reviewCount":null`)
}

// ===================== Review Tests =====================

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name   string
		review Review
		want   string
	}{
		{"id wins over text", Review{ID: "r1", Text: "Toppen"}, "r1"},
		{"text lowercased", Review{Text: "Mycket Bra"}, "mycket bra"},
		{"title as fallback", Review{Title: "Snabb Leverans"}, "snabb leverans"},
		{"long text truncated", Review{Text: strings.Repeat("A", 80)}, strings.Repeat("a", 50)},
		{"multibyte text truncated on runes", Review{Text: strings.Repeat("Å", 60)}, strings.Repeat("å", 50)},
		{"unidentifiable", Review{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.review.IdentityKey())
		})
	}
}
