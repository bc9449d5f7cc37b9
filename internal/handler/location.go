package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/response"
)

// LocationHandler serves the read-only administrative-area lookups used
// by venue forms and filters.
type LocationHandler struct {
	Locations *repository.LocationRepo
}

func NewLocationHandler(locations *repository.LocationRepo) *LocationHandler {
	return &LocationHandler{Locations: locations}
}

// ListProvinces handles GET /v1/locations/provinces.
func (h *LocationHandler) ListProvinces(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	provinces, err := h.Locations.Provinces(ctx)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Success", provinces)
}

// ListDistricts handles GET /v1/locations/provinces/:id/districts.
func (h *LocationHandler) ListDistricts(c echo.Context) error {
	pid, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	districts, err := h.Locations.DistrictsByProvince(ctx, pid)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Success", districts)
}

// ListWards handles GET /v1/locations/districts/:id/wards.
func (h *LocationHandler) ListWards(c echo.Context) error {
	did, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	wards, err := h.Locations.WardsByDistrict(ctx, did)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Success", wards)
}

// GetProvince handles GET /v1/locations/provinces/:id.
func (h *LocationHandler) GetProvince(c echo.Context) error {
	pid, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Locations.ProvinceByID(ctx, pid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("province not found")
		}
		return err
	}
	return response.OK(c, http.StatusOK, "Success", p)
}

// GetDistrict handles GET /v1/locations/districts/:id.
func (h *LocationHandler) GetDistrict(c echo.Context) error {
	did, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Locations.DistrictByID(ctx, did)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("district not found")
		}
		return err
	}
	return response.OK(c, http.StatusOK, "Success", d)
}

// GetWard handles GET /v1/locations/wards/:id.
func (h *LocationHandler) GetWard(c echo.Context) error {
	wid, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	w, err := h.Locations.WardByID(ctx, wid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("ward not found")
		}
		return err
	}
	return response.OK(c, http.StatusOK, "Success", w)
}
