// Package pagination holds the page arithmetic shared by every listing endpoint.
// Nothing here does I/O; inputs come from query strings, outputs feed the store and the envelope.
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultPage is used whenever the client omits page or sends garbage.
const DefaultPage = 1

// ErrInvalidArgument is returned by the arithmetic helpers for inputs they cannot divide by.
var ErrInvalidArgument = errors.New("invalid argument")

// PageRequest is the page/limit pair a client asked for, already coerced to integers.
type PageRequest struct {
	Page  int
	Limit int
}

// SkipTake is the offset/limit window handed to a bulk query.
type SkipTake struct {
	Skip int
	Take int
}

// Info is the pagination block carried next to the data in a paginated envelope.
type Info struct {
	Page           int `json:"page"`
	TotalPages     int `json:"totalPages"`
	RemainingPages int `json:"remainingPages"`
}

// ParsePageRequest coerces raw query values. Absent or non-numeric page falls back to 1,
// absent or non-numeric limit to defaultLimit. Page below 1 is clamped to 1 and limit
// below 1 falls back to defaultLimit, so Resolve never yields a negative skip.
func ParsePageRequest(rawPage, rawLimit string, defaultLimit int) PageRequest {
	if defaultLimit < 1 {
		defaultLimit = 1
	}
	page := parseIntOr(rawPage, DefaultPage)
	if page < 1 {
		page = DefaultPage
	}
	limit := parseIntOr(rawLimit, defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

func parseIntOr(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// Resolve turns a page request into the skip/take window for the store. A skip that
// would overflow saturates at math.MaxInt, so a far-out page still fetches nothing.
func Resolve(p PageRequest) SkipTake {
	if p.Page <= 1 || p.Limit <= 0 {
		return SkipTake{Skip: 0, Take: p.Limit}
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return SkipTake{Skip: math.MaxInt, Take: p.Limit}
	}
	return SkipTake{Skip: (p.Page - 1) * p.Limit, Take: p.Limit}
}

// CalcTotalPages returns ceil(totalCount / limit).
func CalcTotalPages(totalCount, limit int) (int, error) {
	if limit <= 0 {
		return 0, ErrInvalidArgument
	}
	if totalCount < 0 {
		return 0, ErrInvalidArgument
	}
	pages := totalCount / limit
	if totalCount%limit != 0 {
		pages++
	}
	return pages, nil
}

// CalcRemainingPages returns currentPage - totalPages exactly as the public API has always
// reported it. The value is negative while the client is still inside the result set;
// callers surface it through ClampRemaining.
func CalcRemainingPages(totalPages, currentPage int) int {
	return currentPage - totalPages
}

// ClampRemaining hides negative remaining-page values: anything <= -1 becomes 0.
func ClampRemaining(raw int) int {
	if raw <= -1 {
		return 0
	}
	return raw
}

// NewInfo computes the pagination block for a non-empty page.
func NewInfo(p PageRequest, totalCount int) (Info, error) {
	totalPages, err := CalcTotalPages(totalCount, p.Limit)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Page:           p.Page,
		TotalPages:     totalPages,
		RemainingPages: ClampRemaining(CalcRemainingPages(totalPages, p.Page)),
	}, nil
}

// EmptyInfo is the block reported for an empty page: the total is forced to zero
// whatever the count query returned.
func EmptyInfo(p PageRequest) Info {
	return Info{Page: p.Page}
}
