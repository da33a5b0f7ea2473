package models

import (
	"net/url"
	"strconv"
)

// ListParams are the query parameters of the backend list contract
type ListParams struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Search    string `json:"search,omitempty"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`   // YYYY-MM-DD
	Status    string `json:"status,omitempty"`
}

// Values encodes the parameters as a query string, omitting empty ones
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.StartDate != "" {
		v.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		v.Set("endDate", p.EndDate)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	return v
}

// Page is one page of a backend list response
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Pages      int `json:"pages"`
	TotalCount int `json:"totalCount"`
}
