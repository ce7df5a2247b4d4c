// Package render converts rendered diagrams between output formats.
//
// The SVG sink for render models lives in the [svg] subpackage. [ToPDF] and
// [ToPNG] convert any SVG using the external rsvg-convert tool (from
// librsvg):
//
//	data := svg.Render(model, svg.Options{Theme: svg.ThemeLight})
//	pdf, err := render.ToPDF(ctx, data)
//	png, err := render.ToPNG(ctx, data, 2.0) // 2x scale
//
// [Available] reports whether the converter is installed, so callers can
// reject PDF and PNG requests up front.
package render
