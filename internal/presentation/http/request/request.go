// Package request reads common query parameters from Echo requests.
package request

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bigp7952/siggil-sub002/internal/listing"
	"github.com/bigp7952/siggil-sub002/pkg/errorbank"
)

// Int reads an integer query parameter, returning def when it is absent.
func Int(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errorbank.BadRequest("invalid "+name, errorbank.WithCause(err), errorbank.WithDetail(name, raw))
	}
	return v, nil
}

// Bool reads an optional boolean query parameter; nil means absent.
func Bool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errorbank.BadRequest("invalid "+name, errorbank.WithCause(err), errorbank.WithDetail(name, raw))
	}
	return &v, nil
}

// Page reads page and per_page.
func Page(c echo.Context) (listing.Page, error) {
	page, err := Int(c, "page", 1)
	if err != nil {
		return listing.Page{}, err
	}
	perPage, err := Int(c, "per_page", listing.DefaultPerPage)
	if err != nil {
		return listing.Page{}, err
	}
	return listing.Page{Page: page, PerPage: perPage}.Normalize(), nil
}

// Sort reads the sort parameter, falling back to def for unknown fields.
func Sort(c echo.Context, def listing.Sort, allowed ...string) listing.Sort {
	return listing.ParseSort(c.QueryParam("sort"), def, allowed...)
}

// DateRange reads from and to as RFC 3339 timestamps or plain dates. A plain
// "to" date includes the whole day.
func DateRange(c echo.Context) (listing.DateRange, error) {
	var r listing.DateRange
	if raw := c.QueryParam("from"); raw != "" {
		t, ok := listing.ParseDate(raw, false)
		if !ok {
			return r, errorbank.BadRequest("invalid from date", errorbank.WithDetail("from", raw))
		}
		r.From = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, ok := listing.ParseDate(raw, true)
		if !ok {
			return r, errorbank.BadRequest("invalid to date", errorbank.WithDetail("to", raw))
		}
		r.To = t
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, errorbank.BadRequest("to must not be before from")
	}
	return r, nil
}
