// File: internal/browser/assets.go
package browser

import (
	_ "embed" // embedded JS assets below
)

// The browser stages drive pages with embedded JavaScript rather than
// per-element CDP round trips: one evaluate call per page keeps the
// per-record wall clock predictable across hundreds of sites.

// DiscoverFormsScript walks every form on the page (and formless
// framework-style inputs) and returns their field metadata with stable
// CSS selectors.
//
//go:embed js/discover_forms.js
var DiscoverFormsScript string

// PageProbeScript is the deep-verification probe: it counts interactive
// elements and collects rendered button labels so OAuth gates on SPAs can
// be recognized from text alone.
//
//go:embed js/page_probe.js
var PageProbeScript string

// FillFieldsScript applies fill instructions using native value setters
// and synthetic input/change events, which is what React/Vue controlled
// inputs require; a plain .value assignment silently reverts.
//
//go:embed js/fill_fields.js
var FillFieldsScript string

// ClickSubmitScript finds the form's submit control by type and label
// heuristics and clicks it, reporting the button text it chose.
//
//go:embed js/click_submit.js
var ClickSubmitScript string
