package wikimedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"WikiTrends/internal/domain"
)

type topResponse struct {
	Items []struct {
		Project  string                `json:"project"`
		Articles []domain.PageViewItem `json:"articles"`
	} `json:"items"`
}

// TopPages returns the busiest pages of day in the order the API ranks them.
// A 404 means the day is not aggregated yet and wraps domain.ErrNotPublished.
func (c *Client) TopPages(ctx context.Context, language string, day time.Time) ([]domain.PageViewItem, error) {
	target := expandRaw(c.pageviewsURL, "lang", language, "date", day.Format("2006/01/02"))

	var payload topResponse
	if err := c.getJSON(ctx, target, &payload); err != nil {
		var statusErr *domain.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s: %w", language, day.Format("2006-01-02"), domain.ErrNotPublished)
		}
		return nil, err
	}

	if len(payload.Items) == 0 {
		return nil, nil
	}
	return payload.Items[0].Articles, nil
}
