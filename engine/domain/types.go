// Package domain defines the interview record model, constants, and the
// validation gate that every record passes before enrichment.
package domain

import "strings"

// EmbeddingDim is the output dimension of the embedding model. Every non-empty
// embedding in the system has exactly this length.
const EmbeddingDim = 384

// Demographics holds free-form interviewee attributes. All fields are optional.
type Demographics struct {
	Age    string `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
	Major  string `json:"major,omitempty"`
	Year   string `json:"year,omitempty"`
	Other  string `json:"other,omitempty"`
}

// String serializes demographics into a single searchable line.
func (d Demographics) String() string {
	parts := make([]string, 0, 5)
	for _, v := range []string{d.Age, d.Gender, d.Major, d.Year, d.Other} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Summary is one categorized summary section of an interview.
type Summary struct {
	Category    string    `json:"category"`
	Title       string    `json:"title,omitempty"`
	SummaryText string    `json:"summaryText"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// Theme is a recurring topic identified across an interview.
type Theme struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Frequency       int       `json:"frequency,omitempty"`
	ImpactScore     float64   `json:"impactScore,omitempty"`
	Actionable      bool      `json:"actionable,omitempty"`
	Category        string    `json:"category,omitempty"`
	RelatedQuoteIDs []string  `json:"relatedQuoteIds,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
}

// Quote is a verbatim interviewee statement.
type Quote struct {
	ID              string    `json:"id"`
	QuoteText       string    `json:"quoteText"`
	Context         string    `json:"context,omitempty"`
	Timestamp       string    `json:"timestamp,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Sentiment       string    `json:"sentiment,omitempty"`
	Significance    string    `json:"significance,omitempty"`
	RelatedThemeIDs []string  `json:"relatedThemeIds,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
}

// TimelinePoint is a dated or phased event in the interviewee's account.
type TimelinePoint struct {
	EventDescription string    `json:"eventDescription"`
	Timeframe        string    `json:"timeframe,omitempty"`
	Category         string    `json:"category,omitempty"`
	Sentiment        string    `json:"sentiment,omitempty"`
	Embedding        []float32 `json:"embedding,omitempty"`
}

// ImprovementArea is an actionable finding derived from the interview.
type ImprovementArea struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	Stakeholders []string  `json:"stakeholders,omitempty"`
	ActionItems  []string  `json:"actionItems,omitempty"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// Analysis groups the ordered sub-entity sequences of one interview. Absent
// sequences unmarshal to nil and are treated everywhere as empty.
type Analysis struct {
	Summaries        []Summary         `json:"summaries,omitempty"`
	Themes           []Theme           `json:"themes,omitempty"`
	Quotes           []Quote           `json:"quotes,omitempty"`
	Timeline         []TimelinePoint   `json:"timeline,omitempty"`
	ImprovementAreas []ImprovementArea `json:"improvementAreas,omitempty"`
}

// InterviewRecord is the root entity, one per interview. CategoryEmbeddings
// and TagEmbeddings are derived by the enricher and never present in raw
// input; everything else is source of truth.
type InterviewRecord struct {
	InterviewID  string       `json:"interviewId"`
	Interviewee  string       `json:"interviewee,omitempty"`
	Demographics Demographics `json:"demographics"`
	Analysis     Analysis     `json:"analysis"`

	CategoryEmbeddings map[string][]float32 `json:"categoryEmbeddings,omitempty"`
	TagEmbeddings      map[string][]float32 `json:"tagEmbeddings,omitempty"`
}

// DisplayName returns the interviewee name, falling back to the record id.
func (r *InterviewRecord) DisplayName() string {
	if r.Interviewee != "" {
		return r.Interviewee
	}
	return r.InterviewID
}
