// Package userquery turns raw listing parameters into a bounded domain.ListQuery.
// Build never fails; out-of-range or unknown values fall back to defaults.
package userquery

import (
	"math"
	"strconv"
	"strings"

	"user-admin/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxSearchLen = 100

	// MaxPage keeps (page-1)*limit inside 32 bits for every allowed limit.
	MaxPage = math.MaxInt32 / MaxLimit
)

// Params holds the raw query-string values; gin binds them with ShouldBindQuery.
type Params struct {
	Page      string `form:"page"`
	Limit     string `form:"limit"`
	Search    string `form:"search"`
	Filter    string `form:"filter"`
	Sort      string `form:"sort"`
	Direction string `form:"direction"`
}

func Build(p Params) domain.ListQuery {
	return domain.ListQuery{
		Page:      page(p.Page),
		Limit:     limit(p.Limit),
		Search:    search(p.Search),
		Filter:    filter(p.Filter),
		Sort:      sortField(p.Sort),
		Direction: direction(p.Direction),
	}
}

func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func page(s string) int {
	return min(max(atoiDefault(s, DefaultPage), 1), MaxPage)
}

func limit(s string) int {
	return min(max(atoiDefault(s, DefaultLimit), 1), MaxLimit)
}

func search(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > MaxSearchLen {
		s = string(r[:MaxSearchLen])
	}
	return s
}

func filter(s string) domain.FilterField {
	switch domain.FilterField(s) {
	case domain.FilterName:
		return domain.FilterName
	case domain.FilterEmail:
		return domain.FilterEmail
	}
	return domain.FilterAny
}

func sortField(s string) domain.SortField {
	switch domain.SortField(s) {
	case domain.SortID, domain.SortName, domain.SortEmail:
		return domain.SortField(s)
	}
	return domain.SortCreatedAt
}

func direction(s string) domain.SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(domain.SortAsc)) {
		return domain.SortAsc
	}
	return domain.SortDesc
}
