package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/oauth"
)

const stateCookie = "oauth_state"

// OAuthHandler runs the redirect-based provider handshakes and hands
// the normalized profile to the shared reconciliation flow.
type OAuthHandler struct {
	providers   *oauth.Manager
	handler     *Handler
	frontendURL string
}

func NewOAuthHandler(providers *oauth.Manager, handler *Handler, frontendURL string) *OAuthHandler {
	return &OAuthHandler{providers: providers, handler: handler, frontendURL: frontendURL}
}

func (h *OAuthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:provider", h.HandleStart)
	g.GET("/:provider/callback", h.HandleCallback)
}

func (h *OAuthHandler) HandleStart(c echo.Context) error {
	provider, err := h.providers.Provider(c.Param("provider"))
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProvider) {
			return h.handler.Error(c, http.StatusBadRequest, err.Error(), nil)
		}
		return h.handler.Error(c, http.StatusInternalServerError, "provider unavailable", err)
	}

	state, err := randomState()
	if err != nil {
		return h.handler.Error(c, http.StatusInternalServerError, "could not start login", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, provider.AuthURL(state))
}

func (h *OAuthHandler) HandleCallback(c echo.Context) error {
	provider, err := h.providers.Provider(c.Param("provider"))
	if err != nil {
		return h.handler.Error(c, http.StatusBadRequest, "unknown identity provider", nil)
	}

	cookie, err := c.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return h.handler.Error(c, http.StatusUnauthorized, "state mismatch", nil)
	}

	profile, err := provider.Profile(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return h.handler.Error(c, http.StatusUnauthorized, "provider verification failed", err)
	}

	_, token, err := h.handler.social.Reconcile(c.Request().Context(), profile)
	if err != nil {
		return h.handler.Error(c, http.StatusInternalServerError, "login failed", err)
	}

	return c.Redirect(http.StatusFound,
		fmt.Sprintf("%s/auth/callback?token=%s", h.frontendURL, token))
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
