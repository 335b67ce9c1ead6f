package models

import (
	"math"
	"time"
)

const (
	maxLitigationMentions = 5
	maxRiskyParagraphs    = 5
)

// RiskyParagraph is an excerpt flagged by the disclosure analysis
type RiskyParagraph struct {
	Excerpt string `json:"excerpt"`
	Reason  string `json:"reason"`
}

// DisclosureResults is the structured judgement returned by the language
// model service for a filing.
type DisclosureResults struct {
	DisclosureRiskScore    float64          `json:"disclosure_risk_score"`
	SentimentScore         float64          `json:"sentiment_score"`
	RiskFactorSentiment    string           `json:"risk_factor_sentiment"`
	RegulatoryKeywordCount int              `json:"regulatory_keyword_count"`
	LitigationMentions     []string         `json:"litigation_mentions"`
	RiskyParagraphs        []RiskyParagraph `json:"risky_paragraphs"`
	ExecutiveSummary       string           `json:"executive_summary"`
}

// Normalize clamps scores to [0, 100] and trims the lists
func (r *DisclosureResults) Normalize() {
	r.DisclosureRiskScore = clampScore(r.DisclosureRiskScore)
	r.SentimentScore = clampScore(r.SentimentScore)
	if r.RegulatoryKeywordCount < 0 {
		r.RegulatoryKeywordCount = 0
	}
	if len(r.LitigationMentions) > maxLitigationMentions {
		r.LitigationMentions = r.LitigationMentions[:maxLitigationMentions]
	}
	if len(r.RiskyParagraphs) > maxRiskyParagraphs {
		r.RiskyParagraphs = r.RiskyParagraphs[:maxRiskyParagraphs]
	}
	if r.LitigationMentions == nil {
		r.LitigationMentions = []string{}
	}
	if r.RiskyParagraphs == nil {
		r.RiskyParagraphs = []RiskyParagraph{}
	}
}

// DisclosureAnalysis is a persisted disclosure analysis of an uploaded filing
type DisclosureAnalysis struct {
	ID                  string            `json:"id"`
	UserID              string            `json:"user_id"`
	UploadID            *string           `json:"upload_id"`
	FileName            *string           `json:"file_name"`
	DisclosureRiskScore *float64          `json:"disclosure_risk_score"`
	SentimentScore      *float64          `json:"sentiment_score"`
	Results             DisclosureResults `json:"results"`
	CreatedAt           time.Time         `json:"created_at"`
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return math.Min(100, math.Max(0, v))
}
