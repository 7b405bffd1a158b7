package wikimedia

import (
	"context"
	"fmt"

	"WikiTrends/internal/domain"
)

// PageDetails fetches the REST page summary of title. It never retries; a
// missing page surfaces as an *domain.HTTPStatusError matching domain.ErrNotFound.
func (c *Client) PageDetails(ctx context.Context, language, title string) (domain.PageDetail, error) {
	target := expand(c.summaryURL, "lang", language, "title", title)

	var detail domain.PageDetail
	if err := c.getJSON(ctx, target, &detail); err != nil {
		return domain.PageDetail{}, fmt.Errorf("page details %s/%s: %w", language, title, err)
	}
	return detail, nil
}
