package spacetraveling

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	ctx := views.WithCSRFToken(c.Request().Context(), CsrfToken(c))
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(ctx, c.Response().Writer)
}

// writeHTML writes an already rendered page.
func writeHTML(c echo.Context, body []byte) error {
	return c.HTMLBlob(http.StatusOK, body)
}

// renderBytes renders a component into memory so it can be cached or exported.
func renderBytes(ctx context.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
