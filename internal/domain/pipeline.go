package domain

// StageStatus is the lifecycle state of one pipeline stage.
type StageStatus string

const (
	StageNotRun                StageStatus = "not_run"
	StageRunning               StageStatus = "running"
	StageSucceeded             StageStatus = "succeeded"
	StageSucceededWithFallback StageStatus = "succeeded_with_fallback"
	StageFailed                StageStatus = "failed"
)

// Stage names used in reports.
const (
	StageExtractItems  = "extract_items"
	StageComparePrices = "compare_prices"
	StageRestock       = "restock"
)

// StageReport records how a stage ended, with diagnostics on failure.
type StageReport struct {
	Name       string      `json:"name"`
	Status     StageStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	RawOutput  string      `json:"raw_output,omitempty"`
	DurationMS int64       `json:"duration_ms"`
}

// Failed reports whether the stage ended in StageFailed.
func (r StageReport) Failed() bool { return r.Status == StageFailed }

// PipelineResult is the envelope returned by an image-to-restock run.
type PipelineResult struct {
	RunID        string          `json:"run_id"`
	ImageURL     string          `json:"image_url,omitempty"`
	Items        []GroceryItem   `json:"items"`
	UsedFallback bool            `json:"used_fallback"`
	Comparison   PriceComparison `json:"comparison"`
	RestockList  []RestockEntry  `json:"restock_list"`
	Stages       []StageReport   `json:"stages"`
}

// Stage returns the report for name, or a NotRun report if absent.
func (p *PipelineResult) Stage(name string) StageReport {
	for _, s := range p.Stages {
		if s.Name == name {
			return s
		}
	}
	return StageReport{Name: name, Status: StageNotRun}
}
