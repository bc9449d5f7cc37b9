package model

// Province, District and Ward mirror the three-level administrative
// hierarchy used for venue addresses. Codes come from the national
// administrative-unit dataset loaded by cmd/import-locations.

type Province struct {
	ID   uint64 `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type District struct {
	ID         uint64 `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	ProvinceID uint64 `json:"province_id"`
}

type Ward struct {
	ID         uint64 `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	DistrictID uint64 `json:"district_id"`
}
