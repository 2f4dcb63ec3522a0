package params

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultLimit = 15
	maxLimit     = 30

	// maxPage keeps (page-1)*limit and page*limit inside int.
	maxPage = math.MaxInt / maxLimit
)

// Pagination holds pagination info and computed metadata.
//
// /stores?page=2&limit=30 → Pagination{Limit:30, Page:2, Offset:30}
// → LIMIT 30 OFFSET 30 → ComputeMeta(total) fills TotalPages, HasNext, HasPrev.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination parses ?limit=...&page=... safely. Keys are case sensitive.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{
		Limit: defaultLimit,
		Page:  1,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = defaultLimit
			case limit > maxLimit:
				p.Limit = maxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = min(page, maxPage)
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeMeta updates pagination after fetching total count.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = (p.Page * p.Limit) < total
}

// ParseSort returns ?sort= when it is one of allowed, otherwise allowed[0].
func ParseSort(q url.Values, allowed ...string) string {
	s := strings.ToLower(strings.TrimSpace(q.Get("sort")))
	for _, a := range allowed {
		if s == a {
			return a
		}
	}
	if len(allowed) == 0 {
		return ""
	}
	return allowed[0]
}

var ErrInvalidLocation = errors.New("lat, lng and radius must be numbers; radius between 1 and 50000 meters")

// Nearby is an optional ?lat=&lng=&radius= filter.
type Nearby struct {
	Lat    float64
	Lng    float64
	Radius float64 // meters
}

// ParseNearby returns nil when none of the keys are present.
func ParseNearby(q url.Values) (*Nearby, error) {
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, ErrInvalidLocation
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, ErrInvalidLocation
	}

	radius := 3000.0
	if r := q.Get("radius"); r != "" {
		radius, err = strconv.ParseFloat(r, 64)
		if err != nil || radius < 1 || radius > 50000 {
			return nil, ErrInvalidLocation
		}
	}

	return &Nearby{Lat: lat, Lng: lng, Radius: radius}, nil
}
