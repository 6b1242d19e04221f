package score

// Rating labels used across every scoring level.
const (
	RatingGreen   = "green"
	RatingYellow  = "yellow"
	RatingRed     = "red"
	RatingMissing = "missing"
)

// IndicatorSnapshot is the latest normalized observation for a
// (bank, indicator) pair at scoring time.
type IndicatorSnapshot struct {
	BankID             string         `json:"bank_id"`
	IndicatorID        string         `json:"indicator_id"`
	Pillar             string         `json:"pillar"`
	Period             string         `json:"period"`
	Value              *float64       `json:"value"`
	Unit               string         `json:"unit"`
	SourceID           string         `json:"source_id"`
	NormalizationRunID string         `json:"normalization_run_id"`
	Metadata           map[string]any `json:"metadata"`
}

// IndicatorScore is the rated value of a single indicator.
type IndicatorScore struct {
	BankID             string         `json:"bank_id"`
	IndicatorID        string         `json:"indicator_id"`
	Pillar             string         `json:"pillar"`
	Period             string         `json:"period"`
	Value              *float64       `json:"value"`
	Score              float64        `json:"score"`
	Rating             string         `json:"rating"`
	Weight             float64        `json:"weight"`
	Unit               string         `json:"unit"`
	SourceID           string         `json:"source_id"`
	NormalizationRunID string         `json:"normalization_run_id"`
	Metadata           map[string]any `json:"metadata"`
}

// PillarScore aggregates one CAMELS pillar for one bank.
type PillarScore struct {
	BankID     string           `json:"bank_id"`
	Pillar     string           `json:"pillar"`
	Score      float64          `json:"score"`
	Rating     string           `json:"rating"`
	Weight     float64          `json:"weight"`
	Period     string           `json:"period"`
	Indicators []IndicatorScore `json:"indicators"`
	Metadata   map[string]any   `json:"metadata"`
}

// CompositeScore is the top-level weighted rating for a bank.
type CompositeScore struct {
	BankID   string         `json:"bank_id"`
	Score    float64        `json:"score"`
	Rating   string         `json:"rating"`
	Period   string         `json:"period"`
	Pillars  []PillarScore  `json:"pillars"`
	Metadata map[string]any `json:"metadata"`
}

// Output carries the results of one full scoring pass.
type Output struct {
	Scores               []CompositeScore
	BanksWithValues      int
	IndicatorsWithValues int
	LatestPeriod         string
}

// Summary condenses a scoring run for stage logging.
type Summary struct {
	BanksEvaluated       int
	BanksWithData        int
	IndicatorsWithValues int
	LatestPeriod         string
}
