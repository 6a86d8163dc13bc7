package domain

import "time"

// Place is a named point of interest. RecordIDs holds the ids of the
// AstroRecords observed for this place; the persistence layer keeps the
// relation symmetric with AstroRecord.PlaceIDs.
type Place struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country,omitempty"`
	RecordIDs []int  `json:"record_ids"`
}

// AstroRecord is a dated sunrise/sunset observation for a coordinate pair.
// Sunrise and Sunset are populated only via enrichment, never from client
// input.
type AstroRecord struct {
	ID        int       `json:"id"`
	Date      Date      `json:"date"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
	PlaceIDs  []int     `json:"place_ids"`
}

// SunTimes is the result of one enrichment call.
type SunTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// PlaceInput carries the mutable fields of a Place.
//
// RecordIDs distinguishes three cases: nil leaves existing relations
// untouched, an empty slice clears them, a non-empty slice replaces the whole
// relation set. Callers must not collapse nil and empty.
type PlaceInput struct {
	Name      string `json:"name"`
	Country   string `json:"country"`
	RecordIDs *[]int `json:"record_ids"`
}

// AstroRecordInput carries the mutable fields of an AstroRecord. PlaceIDs
// follows the same nil/empty/non-empty policy as PlaceInput.RecordIDs.
type AstroRecordInput struct {
	Date      Date    `json:"date"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceIDs  *[]int  `json:"place_ids"`
}
