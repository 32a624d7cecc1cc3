package spacetraveling

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

// requestContext carries the CSRF token and the session's preview ref into
// rendering and content fetches.
func (a *App) requestContext(c echo.Context) (context.Context, bool) {
	ctx := views.WithCSRFToken(c.Request().Context(), CsrfToken(c))
	ref := PreviewRef(c)
	if ref == "" {
		return ctx, false
	}
	return content.WithPreviewRef(ctx, ref), true
}

func (a *App) handlePreview(c echo.Context) error {
	previewer, ok := a.Source.(content.Previewer)
	if !ok {
		return echo.ErrNotFound
	}
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing preview token")
	}
	uid, err := previewer.ResolvePreview(c.Request().Context(), token, c.QueryParam("documentId"))
	if err != nil && !errors.Is(err, content.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid preview token").SetInternal(err)
	}
	if err := setPreviewSession(c, token); err != nil {
		return err
	}
	target := "/"
	if uid != "" {
		target = views.PostPath(uid)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func (a *App) handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

type revalidateRequest struct {
	Secret string `json:"secret"`
	UID    string `json:"uid"`
}

// handleRevalidate drops generated pages so the next request regenerates
// them. With a uid only that post and the listing are dropped.
func (a *App) handleRevalidate(c echo.Context) error {
	if a.Config.RevalidateSecret == "" {
		return echo.ErrNotFound
	}
	var req revalidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(a.Config.RevalidateSecret)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid secret")
	}
	if req.UID != "" {
		a.Cache.Invalidate(views.PostPath(req.UID))
		a.Cache.Invalidate("/")
		c.Logger().Infof("revalidate: %s", req.UID)
		return c.JSON(http.StatusOK, map[string]any{"revalidated": true, "uid": req.UID})
	}
	if err := a.Cache.InvalidateAll(); err != nil {
		return err
	}
	c.Logger().Infof("revalidate: all pages")
	return c.JSON(http.StatusOK, map[string]any{"revalidated": true})
}
