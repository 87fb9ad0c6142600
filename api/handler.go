// Package api exposes the authentication flows over HTTP and translates
// domain failures into structured responses.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/flow"
	"github.com/verigate/verigate/identity"
	"github.com/verigate/verigate/otc"
	"github.com/verigate/verigate/session"
)

type Handler struct {
	registration *flow.RegistrationManager
	login        *flow.LoginManager
	profile      *flow.ProfileManager
	recovery     *flow.RecoveryManager
	social       *flow.SocialManager
	codes        *otc.Engine
	sessions     *session.Manager
	users        domain.UserStorage
}

func NewHandler(
	registration *flow.RegistrationManager,
	login *flow.LoginManager,
	profile *flow.ProfileManager,
	recovery *flow.RecoveryManager,
	social *flow.SocialManager,
	codes *otc.Engine,
	sessions *session.Manager,
	users domain.UserStorage,
) *Handler {
	return &Handler{
		registration: registration,
		login:        login,
		profile:      profile,
		recovery:     recovery,
		social:       social,
		codes:        codes,
		sessions:     sessions,
		users:        users,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/register", h.HandleRegister)
	g.POST("/verify-email", h.HandleVerifyEmail)
	g.POST("/login", h.HandleLogin)
	g.POST("/forgot-password", h.HandleForgotPassword)
	g.POST("/reset-password-token", h.HandleForgotPassword)
	g.POST("/reset-password", h.HandleResetPassword)
	g.POST("/logout", h.HandleLogout)
	g.POST("/social-login", h.HandleSocialLogin)

	g.PUT("/profile", h.HandleUpdateProfile, h.AuthMiddleware)
}

func (h *Handler) HandleRegister(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	user, err := h.registration.Register(c.Request().Context(), body.Email, body.Password, body.Name)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrEmailTaken):
		return h.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrEmailDelivery):
		return h.Error(c, http.StatusInternalServerError, "registration failed: verification email could not be sent", err)
	default:
		return h.Error(c, http.StatusInternalServerError, "registration failed", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "registered, check your mailbox for the verification code",
		"userId":  user.ID,
	})
}

func (h *Handler) HandleVerifyEmail(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	if _, err := h.codes.ConsumeVerificationCode(c.Request().Context(), body.Email, body.Code); err != nil {
		if errors.Is(err, domain.ErrCodeInvalid) {
			return h.Error(c, http.StatusBadRequest, err.Error(), nil)
		}
		return h.Error(c, http.StatusInternalServerError, "verification failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "email verified"})
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	user, token, err := h.login.Authenticate(c.Request().Context(), body.Email, body.Password)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNotVerified),
		errors.Is(err, domain.ErrWrongPassword):
		return h.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		return h.Error(c, http.StatusInternalServerError, "login failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

func (h *Handler) HandleUpdateProfile(c echo.Context) error {
	user := c.Get("user").(*identity.User)

	var body struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	updated, err := h.profile.Update(c.Request().Context(), user.ID, body.Name, body.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return h.Error(c, http.StatusNotFound, err.Error(), nil)
		}
		return h.Error(c, http.StatusInternalServerError, "update failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":    updated.ID,
		"name":  updated.Name,
		"email": updated.Email,
	})
}

func (h *Handler) HandleForgotPassword(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	err := h.recovery.Initiate(c.Request().Context(), body.Email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingFields):
		return h.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrUserNotFound):
		return h.Error(c, http.StatusNotFound, err.Error(), nil)
	default:
		return h.Error(c, http.StatusInternalServerError, "could not send reset email", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "reset email sent"})
}

func (h *Handler) HandleResetPassword(c echo.Context) error {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	err := h.recovery.ResetPassword(c.Request().Context(), body.Token, body.Password)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrResetTokenInvalid):
		return h.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		return h.Error(c, http.StatusInternalServerError, "reset failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "password reset"})
}

func (h *Handler) HandleLogout(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return h.Error(c, http.StatusBadRequest, "no token provided", nil)
	}

	err := h.sessions.Revoke(c.Request().Context(), token)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTokenInvalid):
		return h.Error(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, domain.ErrTokenRevoked):
		return h.Error(c, http.StatusConflict, err.Error(), nil)
	default:
		return h.Error(c, http.StatusInternalServerError, "logout failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "logged out"})
}

func (h *Handler) HandleSocialLogin(c echo.Context) error {
	var body struct {
		Email      string `json:"email"`
		Provider   string `json:"provider"`
		ProviderID string `json:"providerId"`
		Name       string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "invalid request body", err)
	}

	user, token, err := h.social.Reconcile(c.Request().Context(), flow.ExternalProfile{
		Email:      body.Email,
		Provider:   identity.Provider(body.Provider),
		ProviderID: body.ProviderID,
		Name:       body.Name,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrUnknownProvider):
		return h.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		return h.Error(c, http.StatusInternalServerError, "social login failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"provider": body.Provider,
		},
	})
}

// AuthMiddleware guards protected routes. The checks run in a fixed
// order: token presence, revocation, signature and expiry, then user
// existence; the first failure wins.
func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return h.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		}

		revoked, err := h.sessions.IsRevoked(c.Request().Context(), token)
		if err != nil {
			return h.Error(c, http.StatusInternalServerError, "authorization check failed", err)
		}
		if revoked {
			return h.Error(c, http.StatusUnauthorized, "token has been invalidated, log in again", nil)
		}

		userID, err := h.sessions.Verify(token)
		if err != nil {
			return h.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		}

		user, err := h.users.FindUserByID(c.Request().Context(), userID)
		if err != nil {
			return h.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		}

		c.Set("user", user)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// Error writes the structured failure response.
func (h *Handler) Error(c echo.Context, code int, message string, err error) error {
	resp := map[string]interface{}{
		"message": message,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.JSON(code, resp)
}
