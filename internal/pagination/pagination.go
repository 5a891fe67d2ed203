// Package pagination pages an aggregation pipeline: it appends skip/limit,
// counts the same stages concurrently and reports page metadata.
package pagination

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	ds "vidtube/internal/docstore"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int64.
	MaxPage = math.MaxInt32
)

// Options selects one page. Construct it with ParseOptions or NewOptions so
// both fields are at least 1.
type Options struct {
	Page  int
	Limit int
}

// NewOptions replaces values below 1 with the defaults and caps page and
// limit.
func NewOptions(page, limit int) Options {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Options{Page: page, Limit: limit}
}

// ParseOptions reads page and limit from query-string values. Missing or
// non-numeric values fall back to the defaults.
func ParseOptions(page, limit string) Options {
	return NewOptions(atoiOr(page, DefaultPage), atoiOr(limit, DefaultLimit))
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

// Skip is the number of documents before the page.
func (o Options) Skip() int64 { return int64(o.Page-1) * int64(o.Limit) }

// Page is one page of results.
type Page[T any] struct {
	Docs          []T   `json:"docs"`
	TotalDocs     int64 `json:"totalDocs"`
	Limit         int   `json:"limit"`
	Page          int   `json:"page"`
	TotalPages    int   `json:"totalPages"`
	PagingCounter int64 `json:"pagingCounter"`
	HasPrevPage   bool  `json:"hasPrevPage"`
	HasNextPage   bool  `json:"hasNextPage"`
	PrevPage      *int  `json:"prevPage"`
	NextPage      *int  `json:"nextPage"`
}

// NewPage computes the metadata for docs at opts out of total documents.
// totalPages is never below 1, even for an empty result.
func NewPage[T any](docs []T, total int64, opts Options) *Page[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := int((total + int64(opts.Limit) - 1) / int64(opts.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	p := &Page[T]{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         opts.Limit,
		Page:          opts.Page,
		TotalPages:    totalPages,
		PagingCounter: opts.Skip() + 1,
		HasPrevPage:   opts.Page > 1,
		HasNextPage:   opts.Page < totalPages,
	}
	if p.HasPrevPage {
		prev := opts.Page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := opts.Page + 1
		p.NextPage = &next
	}
	return p
}

// Paginate runs one page of p over coll together with a count of everything
// p yields. Stable ordering across pages is only guaranteed when p sorts.
func Paginate[T any](ctx context.Context, coll ds.Collection, p ds.Pipeline, opts Options) (*Page[T], error) {
	opts = NewOptions(opts.Page, opts.Limit)

	var (
		docs  []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := coll.Aggregate(gctx, p.Append(ds.Skip{N: opts.Skip()}, ds.Limit{N: int64(opts.Limit)}))
		if err != nil {
			return fmt.Errorf("page query: %w", err)
		}
		docs, err = ds.DecodeAll[T](raw)
		return err
	})
	g.Go(func() error {
		raw, err := coll.Aggregate(gctx, p.Append(ds.Count{Field: "totalDocs"}))
		if err != nil {
			return fmt.Errorf("count query: %w", err)
		}
		if len(raw) > 0 {
			total = toInt64(raw[0]["totalDocs"])
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewPage(docs, total, opts), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
