package helpers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (Page-1)*Limit far from overflowing.
	MaxPage = 1_000_000
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) TotalPages(total int64) int64 {
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// ParsePagination reads page and limit query values. Empty values take the
// defaults. Page is capped at MaxPage and limit at MaxLimit.
func ParsePagination(page, limit string) (Pagination, error) {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}
	if page != "" {
		n, err := StringToInt(page)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid page number")
		}
		p.Page = min(n, MaxPage)
	}
	if limit != "" {
		n, err := StringToInt(limit)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid limit")
		}
		p.Limit = min(n, MaxLimit)
	}
	return p, nil
}

// FlexInt decodes from a JSON number or a numeric string.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := StringToInt(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*n = FlexInt(v)
	return nil
}

// TagList decodes from a comma-separated string or a JSON array of strings.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*t = ParseTags(raw)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a string or a list of strings")
	}
	*t = ParseTags(strings.Join(list, ","))
	return nil
}

// ParseTags splits a comma-separated tag string, trims each entry and drops
// empty ones.
func ParseTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ParseEventDate accepts a calendar date, interpreted as midnight in loc, or
// an RFC 3339 timestamp.
func ParseEventDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
