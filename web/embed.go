// Package web embeds the static pages and assets served by the HTTP layer.
package web

import "embed"

// PagesFS embeds the HTML pages.
//
//go:embed pages/*.html
var PagesFS embed.FS

// StaticFS embeds static assets (js/css).
//
//go:embed static/*
var StaticFS embed.FS
