package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/auth"
	"github.com/sporthub/venue-booking/internal/config"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/queue"
	"github.com/sporthub/venue-booking/internal/response"
	queue_publisher "github.com/sporthub/venue-booking/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg config.Config
	Svc *auth.Service
}

func NewAuthHandler(cfg config.Config, svc *auth.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Svc: svc}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type loginReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	SingleDevice bool   `json:"singleDevice"`
}

type authResp struct {
	User        model.PublicUser `json:"user"`
	AccessToken string           `json:"accessToken"`
}

// setRefreshCookie stores the raw refresh token in an HTTP-only cookie.
// Its max-age is derived from the refresh TTL so the cookie and the
// session record always expire together.
func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Cfg.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) publishAudit(eventType string, u model.User, userAgent string) {
	ev := queue.AuditEvent{
		Type:      eventType,
		UserID:    u.ID,
		Email:     u.Email,
		UserAgent: userAgent,
		At:        time.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishAudit(context.Background(), h.Cfg.AmqpURL, ev) }()
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.ErrValidation.WithMessage("invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Register(ctx, auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.Name,
		Phone:    req.Phone,
	}, c.Request().UserAgent())
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, res.RefreshToken)
	h.publishAudit(queue.EventUserRegistered, res.User, c.Request().UserAgent())
	return response.OK(c, http.StatusCreated, "User registered successfully", authResp{
		User:        res.User.Public(),
		AccessToken: res.AccessToken,
	})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.ErrValidation.WithMessage("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.ErrValidation.WithMessage("email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Login(ctx, req.Email, req.Password, auth.LoginOptions{
		UserAgent:    c.Request().UserAgent(),
		SingleDevice: req.SingleDevice,
	})
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, res.RefreshToken)
	h.publishAudit(queue.EventUserLoggedIn, res.User, c.Request().UserAgent())
	return response.OK(c, http.StatusOK, "Login successful", authResp{
		User:        res.User.Public(),
		AccessToken: res.AccessToken,
	})
}

// Refresh handles POST /v1/auth/refresh. The refresh token travels only
// in its cookie; a successful call rotates both the session record and
// the cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(h.Cfg.RefreshCookieName)
	if err != nil || ck.Value == "" {
		return apperr.ErrNoToken
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Refresh(ctx, ck.Value, c.Request().UserAgent())
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, res.RefreshToken)
	return response.OK(c, http.StatusOK, "Token refreshed", authResp{
		User:        res.User.Public(),
		AccessToken: res.AccessToken,
	})
}

// Logout handles POST /v1/auth/logout. It always succeeds logically:
// the cookie is cleared even when no matching session exists, and a
// missing or invalid cookie is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ck, err := c.Cookie(h.Cfg.RefreshCookieName); err == nil && ck.Value != "" {
		if claims, verr := h.Svc.VerifyRefreshToken(ck.Value); verr == nil {
			if err := h.Svc.Logout(ctx, claims.UserID, auth.LogoutOptions{Token: ck.Value}); err != nil {
				return err
			}
			h.publishAudit(queue.EventUserLoggedOut, model.User{ID: claims.UserID}, c.Request().UserAgent())
		}
	}

	h.clearRefreshCookie(c)
	return response.OK(c, http.StatusOK, "Logout successful", map[string]any{})
}
