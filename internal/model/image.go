package model

import "time"

// Detection represents a single object found by the detection network.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// ClassifiedImage is one successfully processed upload. The category is
// assigned once at processing time and never changes.
type ClassifiedImage struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"sourceName"`
	Category    Category  `json:"category"`
	PersonCount int       `json:"personCount"`
	ProcessedAt time.Time `json:"processedAt"`
}
