package spacetraveling

import "strings"

// robots returns robots.txt pointing crawlers at the sitemap. Preview and
// revalidation endpoints are excluded.
func (a *App) robots() string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Disallow: /posts/more/\n")
	b.WriteString("\nSitemap: ")
	b.WriteString(strings.TrimSuffix(a.Config.URL, "/"))
	b.WriteString("/sitemap.xml\n")
	return b.String()
}
