package model

import "time"

// Venue mirrors the `venues` table. A venue belongs to a single owner and
// references the administrative area it sits in. OpeningTime and
// ClosingTime are "HH:MM" strings validated at the handler layer.
type Venue struct {
	ID                 uint64    `json:"id"`
	OwnerID            uint64    `json:"owner_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Address            string    `json:"address,omitempty"`
	Lat                *float64  `json:"lat,omitempty"`
	Lng                *float64  `json:"lng,omitempty"`
	Image              string    `json:"image,omitempty"`
	IsActive           bool      `json:"is_active"`
	IsUnderMaintenance bool      `json:"is_under_maintenance"`
	ProvinceID         *uint64   `json:"province_id,omitempty"`
	DistrictID         *uint64   `json:"district_id,omitempty"`
	WardID             *uint64   `json:"ward_id,omitempty"`
	OpeningTime        string    `json:"opening_time,omitempty"`
	ClosingTime        string    `json:"closing_time,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
