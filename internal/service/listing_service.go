// Package service contains the application's business rules. Services take the
// acting user explicitly and return models.AppError values.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PageSize is the number of posts on every listing page.
const PageSize = 10

// ParsePage turns a raw ?page= value into a page number of at least 1.
// Anything that is not an integer means the first page. Integers too large to
// represent come back as math.MaxInt so that Page clamps them to the last page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return n
	}
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NumPages is the number of pages needed for total items. An empty
// collection still has one (empty) page.
func NumPages(total int64) int {
	if total <= 0 {
		return 1
	}
	return int((total + PageSize - 1) / PageSize)
}

// ListingService produces paginated, newest-first post listings.
type ListingService struct {
	posts      repository.PostRepository
	indexCache *cache.PageCache
}

// NewListingService returns a ListingService. indexCache may be nil.
func NewListingService(posts repository.PostRepository, indexCache *cache.PageCache) *ListingService {
	return &ListingService{posts: posts, indexCache: indexCache}
}

// Page returns the requested page of scope. Out-of-range pages clamp to the
// nearest existing page.
func (s *ListingService) Page(ctx context.Context, scope repository.PostScope, rawPage string) (*models.PostPage, error) {
	ctx, span := observability.StartServiceSpan(ctx, "listing", "Page")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	total, err := s.posts.Count(ctx, scope)
	if err != nil {
		return nil, err
	}

	numPages := NumPages(total)
	number := min(ParsePage(rawPage), numPages)
	span.SetAttributes(attribute.Int("page.number", number), attribute.Int64("page.total", total))

	items := []*models.Post{}
	if total > 0 {
		items, err = s.posts.List(ctx, scope, PageSize, (number-1)*PageSize)
		if err != nil {
			return nil, err
		}
	}

	page := &models.PostPage{
		Items:       items,
		Number:      number,
		NumPages:    numPages,
		Total:       total,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
	if page.HasNext {
		next := number + 1
		page.NextPage = &next
	}
	if page.HasPrevious {
		prev := number - 1
		page.PrevPage = &prev
	}
	return page, nil
}

// Index is the site-wide listing, optionally filtered by search. Whole pages
// are served from the page cache until its TTL runs out, so recent writes may
// not be visible yet.
func (s *ListingService) Index(ctx context.Context, search, rawPage string) (*models.PostPage, error) {
	if s.indexCache == nil {
		return s.Page(ctx, repository.AllPosts(search), rawPage)
	}

	var page models.PostPage
	key := s.indexCache.Key(search, rawPage)
	err := s.indexCache.Fetch(ctx, key, &page, func() error {
		fresh, err := s.Page(ctx, repository.AllPosts(search), rawPage)
		if err != nil {
			return err
		}
		page = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}
