// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes without behavior.
package model

import "time"

// PublicAgency represents a federal government body that owns travel records.
type PublicAgency struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Acronym   string    `json:"acronym,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Travel is one official trip paid by an agency.
type Travel struct {
	ID           int64     `json:"id"`
	AgencyCode   string    `json:"agency_code"`
	TravelerName string    `json:"traveler_name"`
	Destination  string    `json:"destination"`
	Reason       string    `json:"reason"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Value        float64   `json:"value"` // total expense in BRL
}

// SearchFilter holds the four date-range boundaries of a travel search.
// Dates stay in the raw form the caller typed them (e.g. 01/03/2021); the
// upstream API interprets them.
type SearchFilter struct {
	StartDateFrom  string `json:"start_date_from"`
	StartDateUntil string `json:"start_date_until"`
	EndDateFrom    string `json:"end_date_from"`
	EndDateUntil   string `json:"end_date_until"`
}

// TravelPage is a read-only query result for one page of an agency's travels.
type TravelPage struct {
	Items       []Travel `json:"items"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	HasMore     bool     `json:"has_more"`
	ExpensesSum float64  `json:"expenses_sum"`
}
