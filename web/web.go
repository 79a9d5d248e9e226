// Package web embeds the kiosk page.
package web

import (
	"embed"
)

// StaticFS holds the page, its script and the weather icons under static/.
//
//go:embed static
var StaticFS embed.FS
