package models

// ValidateStrategyRequest carries a strategy document for validation or
// resolution over the API. The body is the raw YAML text.
type ValidateStrategyRequest struct {
	YAML string `json:"yaml" validate:"required"`
}

// ValidationIssueResponse is one reported violation.
type ValidationIssueResponse struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// ValidationReportResponse is the API shape of a validation run.
type ValidationReportResponse struct {
	Valid    bool                      `json:"valid"`
	Errors   []ValidationIssueResponse `json:"errors"`
	Warnings []ValidationIssueResponse `json:"warnings"`
}

// ResolvedFeatureResponse is the API shape of one resolved feature.
type ResolvedFeatureResponse struct {
	FeatureID       string `json:"feature_id"`
	Timeframe       string `json:"timeframe"`
	FuzzySetID      string `json:"fuzzy_set_id"`
	Membership      string `json:"membership"`
	IndicatorID     string `json:"indicator_id"`
	IndicatorOutput string `json:"indicator_output,omitempty"`
}

// CandleResponse is the API shape of one OHLCV bucket.
type CandleResponse struct {
	Bucket    string  `json:"bucket"`
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// ResolveStrategyResponse lists the canonical feature order for a strategy.
type ResolveStrategyResponse struct {
	Strategy string                    `json:"strategy"`
	Features []ResolvedFeatureResponse `json:"features"`
}
