package domain

// SearchPage is one page of a MediaWiki generator=search response.
type SearchPage struct {
	PageID       int64             `json:"pageid"`
	Index        int               `json:"index"`
	Title        string            `json:"title"`
	Extract      string            `json:"extract,omitempty"`
	CanonicalURL string            `json:"canonicalurl,omitempty"`
	Thumbnail    *Thumbnail        `json:"thumbnail,omitempty"`
	Terms        *SearchTerms      `json:"terms,omitempty"`
	PageProps    map[string]string `json:"pageprops,omitempty"`
}

// SearchTerms carries wikibase terms attached to a page.
type SearchTerms struct {
	Alias       []string `json:"alias,omitempty"`
	Label       []string `json:"label,omitempty"`
	Description []string `json:"description,omitempty"`
}

// SearchItem is the lightweight record rendered for a search hit.
type SearchItem struct {
	Index int      `json:"i"`
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
	Link  string   `json:"link"`
	Image string   `json:"image"`
}

// SearchResult groups the mapped search hits for a term.
type SearchResult struct {
	Term     string       `json:"term"`
	Language string       `json:"language"`
	Items    []SearchItem `json:"items"`
}
