package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Page is one slice of a listing plus where it sits in the whole.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// pageQuery reads offset and limit, clamping them into range.
func pageQuery(c *fiber.Ctx) (offset, limit int) {
	offset = max(c.QueryInt("offset", 0), 0)
	limit = c.QueryInt("limit", defaultPageLimit)
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return offset, limit
}

// paginate cuts items to the requested window. A window past the end
// yields an empty, non-nil page.
func paginate[T any](items []T, offset, limit int) Page[T] {
	total := len(items)
	data := []T{}
	if offset < total {
		data = items[offset:min(offset+limit, total)]
	}
	return Page[T]{Data: data, Pagination: Pagination{Offset: offset, Limit: limit, Total: total}}
}

// SetLinkHeaders adds RFC 8288 first/prev/next/last links. Query
// parameters other than offset and limit are carried over so a filtered
// listing stays filtered.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	c.Context().QueryArgs().CopyTo(args)
	args.SetUint("limit", p.Limit)

	link := func(offset int, rel string) string {
		args.SetUint("offset", offset)
		return "<" + c.Path() + "?" + args.String() + `>; rel="` + rel + `"`
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	links = append(links, link(max(p.Total-p.Limit, 0), "last"))

	c.Set("Link", strings.Join(links, ", "))
}
