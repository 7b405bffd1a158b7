package domain

// FeaturedArticle is one entry of the trending list shown for a day.
type FeaturedArticle struct {
	Rank           int    `json:"rank"`
	Title          string `json:"title"`
	Text           string `json:"text"`
	Link           string `json:"link"`
	Image          string `json:"image,omitempty"`
	Views          int64  `json:"views"`
	ViewsFormatted string `json:"viewsFormatted"`
}

// PageViewItem is a ranked row of the pageviews aggregation.
type PageViewItem struct {
	Article string `json:"article"`
	Views   int64  `json:"views"`
	Rank    int    `json:"rank"`
}

// PageDetail mirrors the page summary payload fields the pipeline reads.
type PageDetail struct {
	Title        string       `json:"title"`
	Thumbnail    *Thumbnail   `json:"thumbnail,omitempty"`
	Extract      string       `json:"extract,omitempty"`
	Description  string       `json:"description,omitempty"`
	ContentURLs  *ContentURLs `json:"content_urls,omitempty"`
	CanonicalURL string       `json:"canonicalurl,omitempty"`
	Type         string       `json:"type,omitempty"`
}

// Thumbnail holds an image reference of a page.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ContentURLs groups canonical article links per platform.
type ContentURLs struct {
	Desktop *PageURLs `json:"desktop,omitempty"`
	Mobile  *PageURLs `json:"mobile,omitempty"`
}

// PageURLs is the link set of one platform.
type PageURLs struct {
	Page string `json:"page"`
}

// DesktopPage returns the desktop article URL when the payload carries one.
func (d PageDetail) DesktopPage() string {
	if d.ContentURLs == nil || d.ContentURLs.Desktop == nil {
		return ""
	}
	return d.ContentURLs.Desktop.Page
}

// ThumbnailSource returns the thumbnail URL or an empty string.
func (d PageDetail) ThumbnailSource() string {
	if d.Thumbnail == nil {
		return ""
	}
	return d.Thumbnail.Source
}
