package topoguia

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/taskenti/topoguia/asset"
	"github.com/taskenti/topoguia/block"
)

// Option is a functional option for configuring a Generator via New.
type Option func(*config)

type config struct {
	template   Template
	theme      Theme
	clock      func() time.Time
	codes      asset.CodeSource
	cache      asset.Cache
	cacheTTL   time.Duration
	logger     *log.Logger
	stationery []byte
	maxDPI     float64
	measurer   block.Measurer
}

// WithTemplate selects the page template. The default is TemplatePortrait.
func WithTemplate(t Template) Option {
	return func(c *config) {
		c.template = t
	}
}

// WithTheme sets the institutional theme.
func WithTheme(t Theme) Option {
	return func(c *config) {
		c.theme = t
	}
}

// WithClock sets the time source used for the file name and the document
// dates. Tests inject a fixed clock to get reproducible output.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.clock = now
	}
}

// WithCodeSource sets the source of the scannable code printed for the
// destination URL. The default renders QR codes.
func WithCodeSource(s asset.CodeSource) Option {
	return func(c *config) {
		c.codes = s
	}
}

// WithCache shares derived images (codes, downscaled uploads) through c.
func WithCache(cache asset.Cache, ttl time.Duration) Option {
	return func(c *config) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithStationery draws the first page of the given PDF behind every page.
func WithStationery(pdf []byte) Option {
	return func(c *config) {
		c.stationery = pdf
	}
}

// WithMaxImageDPI sets the resolution above which images are downscaled to
// their placed size. Zero disables downscaling.
func WithMaxImageDPI(dpi float64) Option {
	return func(c *config) {
		c.maxDPI = dpi
	}
}

// WithMeasurer replaces the font metrics used for line wrapping.
func WithMeasurer(m block.Measurer) Option {
	return func(c *config) {
		c.measurer = m
	}
}
