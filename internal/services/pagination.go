package services

import (
	"context"
	"fmt"
	"net/url"
)

// Page is a response that can be walked with [FetchAll].
type Page[T any] interface {
	Envelope
	Items() []T
	NextPage() (string, bool)
}

// Getter performs a decoded GET. [*Client] implements it.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, out Envelope) error
}

var _ Getter = (*Client)(nil)

// FetchAll returns the items of first followed by those of every linked page, in server order.
//
// Each next link is requested exactly once and passed through unchanged. The walk ends when a page has no next link.
// An error envelope on any page stops the walk and is returned with the items gathered so far.
func FetchAll[T any, R any, P interface {
	*R
	Page[T]
}](ctx context.Context, g Getter, first P) ([]T, error) {
	if err := first.failure().Err(); err != nil {
		return nil, fmt.Errorf("first page: %w", err)
	}

	items := append([]T(nil), first.Items()...)
	next, ok := first.NextPage()

	for ok {
		page := P(new(R))
		if err := g.Get(ctx, next, nil, page); err != nil {
			return items, err
		}
		if err := page.failure().Err(); err != nil {
			return items, fmt.Errorf("page %s: %w", next, err)
		}

		items = append(items, page.Items()...)
		next, ok = page.NextPage()
	}

	return items, nil
}
