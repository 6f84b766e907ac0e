// Package assets embeds the web frontend.
//
// index.html is generated from index.html.tpl, style.css, script.js and favicon.svg by cmd/minify.
package assets

import _ "embed"

//go:generate go run ../cmd/minify

// Index is the single page application.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed favicon.svg
var Favicon []byte
