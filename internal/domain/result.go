package domain

// FetchStatus tags the outcome of a featured-articles request.
type FetchStatus string

const (
	StatusSuccess FetchStatus = "success"
	StatusNoData  FetchStatus = "no_data"
	StatusError   FetchStatus = "error"
)

// FetchResult is the terminal answer handed to callers of the featured pipeline.
// Data is set only for StatusSuccess and is never empty in that case.
type FetchResult struct {
	Status        FetchStatus       `json:"status"`
	Data          []FeaturedArticle `json:"data,omitempty"`
	Message       string            `json:"message,omitempty"`
	Language      string            `json:"language"`
	RequestedDate string            `json:"requestedDate"`
	ResolvedDate  string            `json:"resolvedDate,omitempty"`
	FromCache     bool              `json:"fromCache,omitempty"`
}

// Success builds a success result; an empty list collapses to no_data.
func Success(articles []FeaturedArticle) FetchResult {
	if len(articles) == 0 {
		return NoData()
	}
	return FetchResult{Status: StatusSuccess, Data: articles}
}

// NoData builds the calm "nothing published" result.
func NoData() FetchResult {
	return FetchResult{Status: StatusNoData}
}

// Failure builds an error result carrying a human readable message.
func Failure(message string) FetchResult {
	return FetchResult{Status: StatusError, Message: message}
}
