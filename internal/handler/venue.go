package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/config"
	"github.com/sporthub/venue-booking/internal/middleware"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/queue"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/response"
	queue_publisher "github.com/sporthub/venue-booking/internal/service"
)

// VenueHandler serves the public venue browse surface and the owner/admin
// CRUD surface.
type VenueHandler struct {
	Cfg    config.Config
	Venues *repository.VenueRepo
}

func NewVenueHandler(cfg config.Config, venues *repository.VenueRepo) *VenueHandler {
	return &VenueHandler{Cfg: cfg, Venues: venues}
}

var timeRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// validOpeningHours checks the HH:MM shape of both times and that opening
// precedes closing. Empty values are allowed.
func validOpeningHours(open, clos string) error {
	if open == "" && clos == "" {
		return nil
	}
	if open != "" && !timeRe.MatchString(open) {
		return apperr.ErrValidation.WithMessage("opening_time must be HH:MM")
	}
	if clos != "" && !timeRe.MatchString(clos) {
		return apperr.ErrValidation.WithMessage("closing_time must be HH:MM")
	}
	if open != "" && clos != "" && open >= clos {
		return apperr.ErrValidation.WithMessage("opening_time must be before closing_time")
	}
	return nil
}

type venueReq struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Address            string   `json:"address"`
	Lat                *float64 `json:"lat"`
	Lng                *float64 `json:"lng"`
	Image              string   `json:"image"`
	IsActive           *bool    `json:"is_active"`
	IsUnderMaintenance *bool    `json:"is_under_maintenance"`
	ProvinceID         *uint64  `json:"province_id"`
	DistrictID         *uint64  `json:"district_id"`
	WardID             *uint64  `json:"ward_id"`
	OpeningTime        string   `json:"opening_time"`
	ClosingTime        string   `json:"closing_time"`
}

func venueFilterFromQuery(c echo.Context) repository.VenueFilter {
	f := repository.VenueFilter{
		Search:     c.QueryParam("search"),
		SortBy:     c.QueryParam("sortBy"),
		SortOrder:  c.QueryParam("sortOrder"),
		Page:       atoiDefault(c.QueryParam("page"), 1),
		Limit:      atoiDefault(c.QueryParam("limit"), 10),
		ProvinceID: uint64Param(c.QueryParam("province_id")),
		DistrictID: uint64Param(c.QueryParam("district_id")),
		WardID:     uint64Param(c.QueryParam("ward_id")),
	}
	if v := c.QueryParam("is_active"); v != "" {
		b := v == "true"
		f.IsActive = &b
	}
	if v := c.QueryParam("is_under_maintenance"); v != "" {
		b := v == "true"
		f.IsUnderMaintenance = &b
	}
	return f
}

// ListVenues handles GET /v1/venues. Anonymous and customer callers only
// ever see active venues regardless of the is_active query parameter;
// owners and admins may filter freely.
func (h *VenueHandler) ListVenues(c echo.Context) error {
	f := venueFilterFromQuery(c)

	id, ok := middleware.CurrentIdentity(c)
	if !ok || id.Role == model.RoleCustomer {
		active := true
		f.IsActive = &active
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	venues, total, err := h.Venues.List(ctx, f)
	if err != nil {
		return err
	}
	return response.Paginated(c, "Success", venues, response.NewPagination(total, f.Page, f.Limit))
}

// GetVenue handles GET /v1/venues/:id. Inactive venues are hidden from
// anonymous and customer callers, except the owner of the venue.
func (h *VenueHandler) GetVenue(c echo.Context) error {
	vid, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Venues.GetByID(ctx, vid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("venue not found")
		}
		return err
	}
	if !v.IsActive {
		id, ok := middleware.CurrentIdentity(c)
		privileged := ok && (id.Role == model.RoleAdmin || id.ID == v.OwnerID)
		if !privileged {
			return apperr.ErrNotFound.WithMessage("venue not found")
		}
	}
	return response.OK(c, http.StatusOK, "Success", v)
}

// MyVenues handles GET /v1/venues/mine for owners.
func (h *VenueHandler) MyVenues(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)
	f := venueFilterFromQuery(c)
	f.OwnerID = id.ID

	ctx, cancel := reqCtx(c)
	defer cancel()

	venues, total, err := h.Venues.List(ctx, f)
	if err != nil {
		return err
	}
	return response.Paginated(c, "Success", venues, response.NewPagination(total, f.Page, f.Limit))
}

// CreateVenue handles POST /v1/venues for owners and admins.
func (h *VenueHandler) CreateVenue(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	var req venueReq
	if err := c.Bind(&req); err != nil {
		return apperr.ErrValidation.WithMessage("invalid request body")
	}
	if req.Name == "" {
		return apperr.ErrValidation.WithMessage("name is required")
	}
	if err := validOpeningHours(req.OpeningTime, req.ClosingTime); err != nil {
		return err
	}

	// New venues are live unless the request says otherwise.
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	v := model.Venue{
		OwnerID:     id.ID,
		IsActive:    active,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Image:       req.Image,
		ProvinceID:  req.ProvinceID,
		DistrictID:  req.DistrictID,
		WardID:      req.WardID,
		OpeningTime: req.OpeningTime,
		ClosingTime: req.ClosingTime,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Venues.Create(ctx, &v); err != nil {
		return err
	}
	h.publishVenueAudit(queue.EventVenueCreated, id, v)
	return response.OK(c, http.StatusCreated, "Venue created", v)
}

// UpdateVenue handles PUT /v1/venues/:id. Owners may only update their
// own venues; admins may update any.
func (h *VenueHandler) UpdateVenue(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)
	vid, err := parseID(c)
	if err != nil {
		return err
	}

	var req venueReq
	if err := c.Bind(&req); err != nil {
		return apperr.ErrValidation.WithMessage("invalid request body")
	}
	if err := validOpeningHours(req.OpeningTime, req.ClosingTime); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Venues.GetByID(ctx, vid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("venue not found")
		}
		return err
	}
	if v.OwnerID != id.ID && id.Role != model.RoleAdmin {
		return apperr.ErrForbidden
	}

	if req.Name != "" {
		v.Name = req.Name
	}
	if req.Description != "" {
		v.Description = req.Description
	}
	if req.Address != "" {
		v.Address = req.Address
	}
	if req.Lat != nil {
		v.Lat = req.Lat
	}
	if req.Lng != nil {
		v.Lng = req.Lng
	}
	if req.Image != "" {
		v.Image = req.Image
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if req.IsUnderMaintenance != nil {
		v.IsUnderMaintenance = *req.IsUnderMaintenance
	}
	if req.ProvinceID != nil {
		v.ProvinceID = req.ProvinceID
	}
	if req.DistrictID != nil {
		v.DistrictID = req.DistrictID
	}
	if req.WardID != nil {
		v.WardID = req.WardID
	}
	if req.OpeningTime != "" {
		v.OpeningTime = req.OpeningTime
	}
	if req.ClosingTime != "" {
		v.ClosingTime = req.ClosingTime
	}

	if err := h.Venues.Update(ctx, &v); err != nil {
		return err
	}
	h.publishVenueAudit(queue.EventVenueUpdated, id, v)
	return response.OK(c, http.StatusOK, "Venue updated", v)
}

// DeleteVenue handles DELETE /v1/venues/:id with the same ownership rule
// as UpdateVenue.
func (h *VenueHandler) DeleteVenue(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)
	vid, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Venues.GetByID(ctx, vid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("venue not found")
		}
		return err
	}
	if v.OwnerID != id.ID && id.Role != model.RoleAdmin {
		return apperr.ErrForbidden
	}

	if err := h.Venues.Delete(ctx, vid); err != nil {
		return err
	}
	h.publishVenueAudit(queue.EventVenueDeleted, id, v)
	return response.OK(c, http.StatusOK, "Venue deleted", map[string]any{})
}

func (h *VenueHandler) publishVenueAudit(eventType string, id middleware.Identity, v model.Venue) {
	ev := queue.AuditEvent{
		Type:      eventType,
		UserID:    id.ID,
		Email:     id.Email,
		VenueID:   v.ID,
		VenueName: v.Name,
		At:        time.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishAudit(context.Background(), h.Cfg.AmqpURL, ev) }()
}

func uint64Param(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
