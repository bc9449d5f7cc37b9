package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/config"
	"github.com/sporthub/venue-booking/internal/middleware"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/response"
)

// UserHandler serves profile endpoints for the current user and the admin
// user-management surface.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, sessions *repository.SessionRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Me handles GET /v1/users/me.
func (h *UserHandler) Me(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrUserNotFound
		}
		return err
	}
	return response.OK(c, http.StatusOK, "Success", u.Public())
}

// UpdateMe handles PUT /v1/users/me.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	var req struct {
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.ErrValidation.WithMessage("invalid request body")
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return apperr.ErrValidation.WithMessage("full_name is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, id.ID, name, strings.TrimSpace(req.Phone)); err != nil {
		return err
	}
	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Profile updated", u.Public())
}

// ChangePassword handles PUT /v1/users/me/password. The old password must
// verify, the new one must be at least six characters and different from
// the old.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.ErrValidation.WithMessage("invalid request body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrUserNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)) != nil {
		return apperr.ErrIncorrectPassword
	}
	if len(req.NewPassword) < 6 {
		return apperr.ErrPasswordTooShort
	}
	if req.NewPassword == req.OldPassword {
		return apperr.ErrPasswordSameAsOld
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.Cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := h.Users.UpdatePassword(ctx, id.ID, string(hash)); err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Password changed", map[string]any{})
}

// DeactivateMe handles POST /v1/users/me/deactivate. Deactivation revokes
// every session so outstanding refresh tokens die with the account.
func (h *UserHandler) DeactivateMe(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetActive(ctx, id.ID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrUserNotFound
		}
		return err
	}
	if err := h.Sessions.DeleteByUser(ctx, id.ID); err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Account deactivated", map[string]any{})
}

// ----- admin surface -----

// ListUsers handles GET /v1/admin/users with search/role/active filters
// and pagination.
func (h *UserHandler) ListUsers(c echo.Context) error {
	f := repository.UserFilter{
		Search:    c.QueryParam("search"),
		Role:      c.QueryParam("role"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
		Page:      atoiDefault(c.QueryParam("page"), 1),
		Limit:     atoiDefault(c.QueryParam("limit"), 10),
	}
	if v := c.QueryParam("is_active"); v != "" {
		b := v == "true"
		f.IsActive = &b
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, total, err := h.Users.List(ctx, f)
	if err != nil {
		return err
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return response.Paginated(c, "Success", out, response.NewPagination(total, f.Page, f.Limit))
}

// GetUser handles GET /v1/admin/users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	uid, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("user not found")
		}
		return err
	}
	return response.OK(c, http.StatusOK, "Success", u.Public())
}

// UpdateUserRole handles PUT /v1/admin/users/:id/role. Admins cannot
// change their own role.
func (h *UserHandler) UpdateUserRole(c echo.Context) error {
	admin, _ := middleware.CurrentIdentity(c)
	uid, err := parseID(c)
	if err != nil {
		return err
	}
	if uid == admin.ID {
		return apperr.ErrSelfModification
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil || !model.ValidRole(req.Role) {
		return apperr.ErrValidation.WithMessage("role must be one of customer, owner, admin")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, uid, req.Role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("user not found")
		}
		return err
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Role updated", u.Public())
}

// UpdateUserStatus handles PUT /v1/admin/users/:id/status, activating or
// deactivating an account. Deactivation revokes all sessions; admins
// cannot deactivate themselves.
func (h *UserHandler) UpdateUserStatus(c echo.Context) error {
	admin, _ := middleware.CurrentIdentity(c)
	uid, err := parseID(c)
	if err != nil {
		return err
	}
	if uid == admin.ID {
		return apperr.ErrSelfModification
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return apperr.ErrValidation.WithMessage("is_active is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetActive(ctx, uid, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("user not found")
		}
		return err
	}
	if !*req.IsActive {
		if err := h.Sessions.DeleteByUser(ctx, uid); err != nil {
			return err
		}
	}
	return response.OK(c, http.StatusOK, "Status updated", map[string]any{"is_active": *req.IsActive})
}

// DeleteUser handles DELETE /v1/admin/users/:id. The database cascades
// the user's session rows; admins cannot delete themselves.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	admin, _ := middleware.CurrentIdentity(c)
	uid, err := parseID(c)
	if err != nil {
		return err
	}
	if uid == admin.ID {
		return apperr.ErrSelfModification
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound.WithMessage("user not found")
		}
		return err
	}
	return response.OK(c, http.StatusOK, "User deleted", map[string]any{})
}

// ----- helpers shared by handlers -----

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ErrValidation.WithMessage("invalid id")
	}
	return id, nil
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
