package domain

// ImportSummary is returned to the caller after every ingestion run.
type ImportSummary struct {
	Imported           int      `json:"imported"`
	Total              int      `json:"total"`
	Categorized        int      `json:"categorized"`
	AICategorized      int      `json:"aiCategorized"`
	KeywordCategorized int      `json:"keywordCategorized"`
	Uncategorized      int      `json:"uncategorized"`
	Skipped            int      `json:"skipped"`
	Errors             []string `json:"errors"`
}
