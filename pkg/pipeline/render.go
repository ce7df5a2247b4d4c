package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/nestview/pkg/cache"
	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/observability"
	"github.com/matzehuels/nestview/pkg/render"
	"github.com/matzehuels/nestview/pkg/render/svg"
)

// Render produces artifacts for a model, one per requested format.
func (r *Runner) Render(ctx context.Context, m *compose.Model, opts RenderOptions) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, opts)
	return artifacts, err
}

// RenderWithCacheInfo renders with artifact caching and reports whether every
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *compose.Model, opts RenderOptions) (map[string][]byte, bool, error) {
	if m == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "nil model")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	modelData, err := json.Marshal(m)
	if err != nil {
		return nil, false, fmt.Errorf("serialize model for cache key: %w", err)
	}
	modelHash := cache.Hash(modelData)
	key := func(format string) string {
		return r.Keyer.ArtifactKey(modelHash, cache.ArtifactKeyOpts{Format: format, Theme: opts.Theme})
	}

	hooks := observability.Cache()
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if data, hit, err := r.Cache.Get(ctx, key(format)); err == nil && hit {
			hooks.OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		hooks.OnCacheMiss(ctx, "artifact")
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	rendered, err := RenderModel(ctx, m, missing, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key(format), data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	r.Logger.Debug("rendered outputs", "formats", missing)
	return artifacts, false, nil
}

// RenderModel renders m in the given formats without caching.
func RenderModel(ctx context.Context, m *compose.Model, formats []string, opts RenderOptions) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	var svgData []byte
	svgOnce := func() []byte {
		if svgData == nil {
			svgData = svg.Render(m, svg.Options{Theme: opts.Theme, NoHints: opts.NoHints})
		}
		return svgData
	}

	for _, format := range formats {
		switch format {
		case FormatSVG:
			out[format] = svgOnce()
		case FormatJSON:
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("encode model: %w", err)
			}
			out[format] = data
		case FormatPDF:
			data, err := render.ToPDF(ctx, svgOnce())
			if err != nil {
				return nil, err
			}
			out[format] = data
		case FormatPNG:
			data, err := render.ToPNG(ctx, svgOnce(), opts.PNGScale)
			if err != nil {
				return nil, err
			}
			out[format] = data
		default:
			return nil, ValidateFormat(format)
		}
	}
	return out, nil
}
