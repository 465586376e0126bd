package spotifyapi

import "context"

// Page is one slice of a paged Spotify collection together with the cursor
// information needed to fetch the next slice.
type Page[T any] struct {
	Items []T
	Limit int
	Next  string
}

// collectPages drains a paged collection by calling fetch with an increasing
// offset until a page reports no next cursor. The offset advances by the
// limit the server reported for each page.
func collectPages[T any](ctx context.Context, fetch func(ctx context.Context, offset int) (Page[T], error)) ([]T, error) {
	var all []T

	offset := 0
	for {
		page, err := fetch(ctx, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if page.Next == "" {
			return all, nil
		}
		offset += page.Limit
	}
}
