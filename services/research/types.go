package research

import (
	"encoding/json"
	"time"
)

const (
	KindCompetition = "competition"
	KindRanking     = "ranking"
	KindStrategy    = "strategy"
)

// CompetitionReport estimates how contested a keyword is.
type CompetitionReport struct {
	Keyword            string   `json:"keyword"`
	Score              int      `json:"score"`
	Tier               string   `json:"tier"`
	Rationale          string   `json:"rationale"`
	TopCompetitors     []string `json:"top_competitors"`
	EasierAlternatives []string `json:"easier_alternatives"`
}

// PageProfile is the measurable evidence pulled out of a fetched page,
// the model never sees the raw HTML.
type PageProfile struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	WordCount    int    `json:"word_count"`
	HeadingCount int    `json:"heading_count"`
	LinkCount    int    `json:"link_count"`
	KeywordHits  int    `json:"keyword_hits"`
}

// BlogRanking benchmarks one page against a keyword.
type BlogRanking struct {
	Keyword    string      `json:"keyword"`
	Url        string      `json:"url"`
	Profile    PageProfile `json:"profile"`
	Score      int         `json:"score"`
	Strengths  []string    `json:"strengths"`
	Weaknesses []string    `json:"weaknesses"`
	Actions    []string    `json:"actions"`
}

type TopicCluster struct {
	Topic  string   `json:"topic"`
	Intent string   `json:"intent"`
	Titles []string `json:"titles"`
}

// StrategyReport groups suggestion evidence into content clusters.
type StrategyReport struct {
	Keyword  string         `json:"keyword"`
	Clusters []TopicCluster `json:"clusters"`
	Summary  string         `json:"summary"`
}

// StoredReport is a persisted report of any kind; Payload holds the
// original report JSON untouched.
type StoredReport struct {
	Slug      string          `json:"slug"`
	Kind      string          `json:"kind"`
	Keyword   string          `json:"keyword"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
