package spacetraveling

import "embed"

// EmbeddedAssets contains static assets shipped with the site:
// loadmore.js and style.css
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
