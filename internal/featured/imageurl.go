// Package featured holds the trending-articles pipeline: date resolution,
// page enrichment, filtering and the per-day cache.
package featured

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var widthMarker = regexp.MustCompile(`^(\d+)px-`)

// NormalizeImageURL rewrites the "<n>px-" width token of a thumbnail filename to width.
// URLs without the token are returned unchanged. A non-nil error means the URL
// could not be parsed; the original URL is still returned and is safe to use.
func NormalizeImageURL(raw string, width int) (string, error) {
	if raw == "" || width <= 0 || !strings.Contains(raw, "px-") {
		return raw, nil
	}
	if _, err := url.Parse(raw); err != nil {
		return raw, fmt.Errorf("normalize image url: %w", err)
	}

	end := len(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		end = i
	}
	slash := strings.LastIndex(raw[:end], "/")
	filename := raw[slash+1 : end]

	loc := widthMarker.FindStringSubmatchIndex(filename)
	if loc == nil {
		return raw, nil
	}

	digitsEnd := slash + 1 + loc[3]
	return raw[:slash+1] + strconv.Itoa(width) + raw[digitsEnd:], nil
}
