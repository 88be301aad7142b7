package model

// CognitiveDepth is the classifier's preferred difficulty proxy.
type CognitiveDepth string

const (
	CognitiveDepthFluency     CognitiveDepth = "Fluency"
	CognitiveDepthConceptual  CognitiveDepth = "Conceptual"
	CognitiveDepthApplication CognitiveDepth = "Application"
	CognitiveDepthSynthesis   CognitiveDepth = "Synthesis"
)

// CurationFilters is the "filters" object of a classifier response.
type CurationFilters struct {
	Domain           string         `json:"domain,omitempty"`
	Topic            string         `json:"topic,omitempty"`
	CognitiveDepth   CognitiveDepth `json:"cognitiveDepth,omitempty"`
	ScaffoldLevelMin *int           `json:"scaffoldLevelMin,omitempty"`
	ScaffoldLevelMax *int           `json:"scaffoldLevelMax,omitempty"`
}

// FilterDescriptor is the structured output of the classification service.
type FilterDescriptor struct {
	Filters       CurationFilters `json:"filters"`
	Count         int             `json:"count"`
	Justification string          `json:"justification"`
}

// CurationResult is what curation hands back to the caller.
type CurationResult struct {
	Candidates    []Question `json:"candidates"`
	Requested     int        `json:"requested"`
	Shortfall     int        `json:"shortfall"`
	Justification string     `json:"justification"`
}

// SuggestRequest asks the curator for candidates.
type SuggestRequest struct {
	Prompt    string   `json:"prompt" binding:"required,min=3,max=2000"`
	Count     int      `json:"count" binding:"omitempty,min=1,max=100"`
	Selection []string `json:"selection"`
}
