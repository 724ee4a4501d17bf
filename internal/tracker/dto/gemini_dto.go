package dto

// GeminiAPIRequest is the request payload for the Gemini API.
type GeminiAPIRequest struct {
	Contents []Content `json:"contents"`
}

// Content represents the content of a request or response.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a part of the content.
type Part struct {
	Text string `json:"text"`
}

// GeminiAPIResponse is the response from the Gemini API.
type GeminiAPIResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a candidate response from the Gemini API.
type Candidate struct {
	Content Content `json:"content"`
}

// ExtractionResult is the structured JSON the extraction prompt asks for.
type ExtractionResult struct {
	Items []ExtractionItem `json:"items"`
}

// ExtractionItem is one recommender line from the raw weekly text. Stocks
// is a space-separated list of stock names.
type ExtractionItem struct {
	Name     string `json:"name"`
	Stocks   string `json:"stocks"`
	Original string `json:"original"`
}

// RecommendationPair is one expanded (recommender, stock) pair.
type RecommendationPair struct {
	Recommender string
	StockName   string
	Original    string
}
