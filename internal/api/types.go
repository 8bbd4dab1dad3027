package api

// InterrogateRequest is the body of POST /tagger/v1/interrogate.
//
// Threshold is a pointer so an omitted field can fall back to the
// configured default; an explicit 0 stays 0.
type InterrogateRequest struct {
	Image       string   `json:"image"`
	Model       string   `json:"model"`
	Threshold   *float64 `json:"threshold"`
	Queue       string   `json:"queue"`
	NameInQueue string   `json:"name_in_queue"`
}

// InterrogateResponse carries the simple caption form: score maps keyed
// "tag" and "rating".
type InterrogateResponse struct {
	Caption map[string]map[string]float64 `json:"caption"`
}

// CategorizedRequest is the body of POST /tagger/v1/interrogate-categorized.
type CategorizedRequest struct {
	Image     string   `json:"image"`
	Model     string   `json:"model"`
	Threshold *float64 `json:"threshold"`
}

// CategorizedResponse splits tags into characters (category 4) and the rest.
type CategorizedResponse struct {
	Ratings    map[string]float64 `json:"ratings"`
	Characters map[string]float64 `json:"characters"`
	Tags       map[string]float64 `json:"tags"`
}

// BatchRequest is the body of POST /tagger/v1/interrogate-batch.
type BatchRequest struct {
	Images    []string `json:"images"`
	Model     string   `json:"model"`
	Threshold *float64 `json:"threshold"`
}

// BatchResponse lists one categorized caption per input image, in order.
type BatchResponse struct {
	Captions []CategorizedResponse `json:"captions"`
}

// InterrogatorsResponse lists the available model identifiers.
type InterrogatorsResponse struct {
	Models []string `json:"models"`
}

// HistoryEntry is one recorded interrogation.
type HistoryEntry struct {
	ID        int64   `json:"id"`
	Queue     string  `json:"queue"`
	Name      string  `json:"name"`
	Model     string  `json:"model"`
	TagCount  int     `json:"tag_count"`
	TopTag    string  `json:"top_tag,omitempty"`
	TopScore  float64 `json:"top_score,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// HistoryResponse lists recent interrogations, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
