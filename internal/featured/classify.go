package featured

import (
	"context"
	"errors"
	"strings"

	"WikiTrends/internal/domain"
)

// Outcome is the verdict on an upstream answer.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeTransportError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ClassifyDetail decides whether a page summary is usable. Lookups cut short
// by context cancellation or deadline are OutcomeCancelled.
func ClassifyDetail(detail domain.PageDetail, err error) Outcome {
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OutcomeNotFound
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return OutcomeCancelled
		}
		return OutcomeTransportError
	}

	title := strings.TrimSpace(detail.Title)
	if title == "" {
		return OutcomeNotFound
	}
	if strings.Contains(strings.ToLower(title), "not found") {
		return OutcomeNotFound
	}
	if strings.HasSuffix(detail.Type, "/not_found") {
		return OutcomeNotFound
	}
	return OutcomeOK
}

// ClassifyPageViews decides whether a pageviews answer holds data for its day.
// An empty ranked list counts as "not published yet".
func ClassifyPageViews(items []domain.PageViewItem, err error) Outcome {
	if err != nil {
		if errors.Is(err, domain.ErrNotPublished) {
			return OutcomeNotFound
		}
		return OutcomeTransportError
	}
	if len(items) == 0 {
		return OutcomeNotFound
	}
	return OutcomeOK
}
