package pipeline

// Payload is the step-specific data carried by a Step. The arms are keyed by
// the step that usually produces them; any step may carry any arm.
type Payload interface {
	payload()
}

// Classification is the result of the classification step.
type Classification struct {
	Category   string  `json:"category"`
	Intent     string  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Hit is one retrieved chunk.
type Hit struct {
	ID     string  `json:"id"`
	Text   string  `json:"text,omitempty"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// SearchHits is the result of the search step.
type SearchHits struct {
	Hits []Hit `json:"hits"`
}

// Generation is the (possibly partial) answer of the generation step.
type Generation struct {
	Answer string `json:"answer"`
	Done   bool   `json:"done,omitempty"`
}

// ConfidenceScores is the result of the confidence step.
type ConfidenceScores struct {
	Overall    float64 `json:"overall"`
	Retrieval  float64 `json:"retrieval,omitempty"`
	Generation float64 `json:"generation,omitempty"`
}

// Followups is the result of the follow-up step.
type Followups struct {
	Questions []string `json:"questions"`
}

// ErrorMessage is stored as the step payload by StepError.
type ErrorMessage string

// Raw carries a payload whose shape has no dedicated arm yet.
type Raw struct {
	Value any `json:"value"`
}

func (Classification) payload()   {}
func (SearchHits) payload()       {}
func (Generation) payload()       {}
func (ConfidenceScores) payload() {}
func (Followups) payload()        {}
func (ErrorMessage) payload()     {}
func (Raw) payload()              {}
