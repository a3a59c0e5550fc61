package jyed

import "go.followtheprocess.codes/hue"

// Styles.
const (
	// pathStyle is the style used for file paths and URLs.
	pathStyle = hue.Bold

	// formatStyle is the style used for the names of document formats.
	formatStyle = hue.Cyan | hue.Bold

	// dimmed is the style used for informational content like hints.
	dimmed = hue.BrightBlack | hue.Italic
)
