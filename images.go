package spacetraveling

import (
	"bytes"
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/spacetraveling/content"
)

const (
	maxBannerWidth  = 1200
	jpegQuality     = 80
	maxBannerSize   = 10 << 20 // 10MB
	bannerExtension = ".jpg"
	bannerKeyLen    = 8
)

// bannerKey identifies a source image, so a replaced banner gets a new path.
func bannerKey(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])[:bannerKeyLen]
}

// bannerPath returns the site-relative path of the optimized banner for uid
// built from the image at src.
func bannerPath(uid, src string) string {
	return "/banner/" + url.PathEscape(uid) + "-" + bannerKey(src) + bannerExtension
}

// parseBannerName splits "<uid>-<key>.jpg".
func parseBannerName(name string) (uid, key string, ok bool) {
	base, found := strings.CutSuffix(name, bannerExtension)
	if !found || len(base) < bannerKeyLen+2 || base[len(base)-bannerKeyLen-1] != '-' {
		return "", "", false
	}
	return base[:len(base)-bannerKeyLen-1], base[len(base)-bannerKeyLen:], true
}

// processBanner decodes an image from src, resizes it down to maxBannerWidth
// if it is wider, and encodes it as JPEG.
func processBanner(src io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxBannerWidth {
		newH := h * maxBannerWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxBannerWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxBannerWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// fetchBanner downloads and optimizes the image at src.
func (a *App) fetchBanner(ctx context.Context, uid, src string) (StoredBanner, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return StoredBanner{}, err
	}
	resp, err := a.bannerClient.Do(req)
	if err != nil {
		return StoredBanner{}, fmt.Errorf("fetch banner: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return StoredBanner{}, fmt.Errorf("fetch banner: status %d", resp.StatusCode)
	}
	data, w, h, err := processBanner(io.LimitReader(resp.Body, maxBannerSize))
	if err != nil {
		return StoredBanner{}, err
	}
	return StoredBanner{UID: uid, SourceURL: src, Width: w, Height: h, Data: data}, nil
}

// banner returns the optimized banner for a post, from the store when the
// source image has not changed.
func (a *App) banner(ctx context.Context, post content.PostDetail) (StoredBanner, error) {
	if a.Store != nil {
		b, err := a.Store.GetBanner(post.UID)
		if err == nil && b.SourceURL == post.Banner.URL {
			return b, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			a.Logger().Errorf("banner %s: load: %v", post.UID, err)
		}
	}
	b, err := a.fetchBanner(ctx, post.UID, post.Banner.URL)
	if err != nil {
		return StoredBanner{}, err
	}
	if a.Store != nil {
		if err := a.Store.SaveBanner(b); err != nil {
			a.Logger().Errorf("banner %s: save: %v", post.UID, err)
		}
	}
	return b, nil
}

// handleBanner serves the optimized banner at /banner/<uid>-<key>.jpg. A key
// that no longer matches the post's banner redirects to the current one.
func (a *App) handleBanner(c echo.Context) error {
	uid, key, ok := parseBannerName(c.Param("name"))
	if !ok {
		return echo.ErrNotFound
	}
	if a.Store != nil {
		if b, err := a.Store.GetBanner(uid); err == nil && bannerKey(b.SourceURL) == key {
			return c.Blob(http.StatusOK, "image/jpeg", b.Data)
		}
	}

	post, err := a.Source.GetPost(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	if post.Banner.URL == "" {
		return echo.ErrNotFound
	}
	if bannerKey(post.Banner.URL) != key {
		c.Response().Header().Set("Cache-Control", "no-store")
		return c.Redirect(http.StatusFound, bannerPath(uid, post.Banner.URL))
	}
	b, err := a.banner(c.Request().Context(), post)
	if err != nil {
		c.Logger().Warnf("banner %s: %v (redirecting to source)", uid, err)
		c.Response().Header().Set("Cache-Control", "no-store")
		return c.Redirect(http.StatusFound, post.Banner.URL)
	}
	return c.Blob(http.StatusOK, "image/jpeg", b.Data)
}
