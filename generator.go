// Package topoguia assembles printable trail guides ("topoguías") from form
// fields and uploaded images.
//
// A Generator validates a FieldSet, decodes its images, lays the content out
// with one of the fixed page templates and serializes the result to PDF:
//
//	fs := topoguia.NewFieldSet().
//	    Set(topoguia.FieldRouteCode, "PR-GU 08").
//	    Set(topoguia.FieldRouteName, "Hoz del Río Dulce").
//	    Set(topoguia.FieldDistance, "11,0 Km").
//	    Set(topoguia.FieldTime, "2h 35m").
//	    SetImage(topoguia.SlotMap, mapPNG).
//	    SetImage(topoguia.SlotProfile, profilePNG).
//	    SetImage(topoguia.SlotMIDE, midePNG)
//
//	g, err := topoguia.New(topoguia.WithTemplate(topoguia.TemplateColumns))
//	res, err := g.Generate(ctx, fs)
//	os.WriteFile(res.Filename, res.Data, 0o644)
//
// A Generator is safe for concurrent use. Each call works on its own
// document; uploaded bytes are only read.
package topoguia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/taskenti/topoguia/asset"
	"github.com/taskenti/topoguia/block"
	"github.com/taskenti/topoguia/canvas"
	"github.com/taskenti/topoguia/flow"
	"github.com/taskenti/topoguia/pdfout"
)

// Warning is a non-fatal condition met while generating: a block whose size
// could not be verified, content shrunk or truncated to fit, or an optional
// image that was skipped.
type Warning = block.Warning

// Result is a generated guide.
type Result struct {
	Data     []byte
	Filename string
	Pages    int
	Warnings []Warning
	// Document is the finalized layout, kept for previews.
	Document *canvas.Document
}

// Generator turns FieldSets into PDF guides with a fixed template and theme.
type Generator struct {
	cfg      config
	tpl      *templateSpec
	lib      *asset.Library
	measurer block.Measurer
}

// New creates a Generator. Without options it uses the portrait template,
// the default theme, the system clock and QR codes.
func New(opts ...Option) (*Generator, error) {
	cfg := config{
		template: TemplatePortrait,
		theme:    DefaultTheme(),
		clock:    time.Now,
		maxDPI:   asset.DefaultMaxDPI,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tpl, err := lookupTemplate(cfg.template)
	if err != nil {
		return nil, err
	}
	if err := cfg.theme.validate(); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.cache == nil {
		cfg.cache = asset.NullCache{}
	}
	if cfg.codes == nil {
		cfg.codes = asset.NewQRSource()
	}
	cfg.codes = &asset.CachedSource{Source: cfg.codes, Cache: cfg.cache, TTL: cfg.cacheTTL, Kind: fmt.Sprintf("%T", cfg.codes)}

	m := cfg.measurer
	if m == nil {
		m = pdfout.NewMeasurer()
	}
	return &Generator{
		cfg:      cfg,
		tpl:      tpl,
		lib:      asset.NewLibrary(asset.WithCache(cfg.cache, cfg.cacheTTL), asset.WithMaxDPI(cfg.maxDPI)),
		measurer: m,
	}, nil
}

// Template returns the template the Generator lays guides out with.
func (g *Generator) Template() Template { return g.tpl.name }

// Theme returns the theme of the Generator.
func (g *Generator) Theme() Theme { return g.cfg.theme }

// Validate checks fs without generating anything.
func (g *Generator) Validate(fs *FieldSet) error { return Validate(fs) }

// Generate validates fs and produces the guide. A *ValidationError is
// returned before any image is decoded when required content is missing, and
// an *AssetDecodeError when a required image cannot be decoded.
func (g *Generator) Generate(ctx context.Context, fs *FieldSet) (*Result, error) {
	if err := Validate(fs); err != nil {
		return nil, err
	}
	now := g.cfg.clock()
	logger := g.cfg.logger.With("route", fs.Get(FieldRouteCode), "template", g.tpl.name)

	c, err := g.prepare(ctx, fs, logger)
	if err != nil {
		var derr *AssetDecodeError
		if errors.As(err, &derr) {
			return nil, err
		}
		return nil, g.stageError(StagePrepare, fs, err)
	}

	doc := g.newDocument(c)
	flowOpts := append([]flow.Option{flow.WithLogger(logger)}, g.tpl.flowOptions...)
	engine := flow.New(doc, g.measurer, flowOpts...)
	if err := g.tpl.build(&assembly{g: g, c: c, doc: doc, engine: engine}); err != nil {
		return nil, g.stageError(StageLayout, fs, err)
	}
	doc.Finalize()

	data, err := pdfout.Bytes(doc, g.writeOptions(c, now)...)
	if err != nil {
		return nil, g.stageError(StageWrite, fs, err)
	}

	res := &Result{
		Data:     data,
		Filename: Filename(c.code, now),
		Pages:    doc.PageCount(),
		Warnings: append(c.warnings, engine.Warnings()...),
		Document: doc,
	}
	logger.Debug("generated guide", "pages", res.Pages, "bytes", len(data), "warnings", len(res.Warnings))
	return res, nil
}

func (g *Generator) stageError(s Stage, fs *FieldSet, err error) *GenerateError {
	return &GenerateError{Stage: s, Route: fs.Get(FieldRouteCode), Template: g.tpl.name, Err: err}
}

func (g *Generator) writeOptions(c *content, now time.Time) []pdfout.Option {
	t := g.cfg.theme
	opts := []pdfout.Option{
		pdfout.WithDate(now),
		pdfout.WithTitle(c.code + " " + c.name),
		pdfout.WithSubject("Topoguía " + c.code),
	}
	if t.Author != "" {
		opts = append(opts, pdfout.WithAuthor(t.Author))
	} else if t.Institution != "" {
		opts = append(opts, pdfout.WithAuthor(t.Institution))
	}
	if t.Creator != "" {
		opts = append(opts, pdfout.WithCreator(t.Creator))
	}
	if len(g.cfg.stationery) > 0 {
		opts = append(opts, pdfout.WithStationery(g.cfg.stationery))
	}
	return opts
}

// content is the decoded input of one generation.
type content struct {
	fs       *FieldSet
	code     string
	name     string
	images   map[Slot]*asset.Image
	photos   []*asset.Image
	qr       *asset.Image
	warnings []Warning
}

func (c *content) value(f Field) string { return c.fs.Get(f) }

func (c *content) image(s Slot) *asset.Image { return c.images[s] }

// prepare decodes and downscales the uploads and synthesizes the code image.
// Required images that fail to decode abort generation; optional ones are
// skipped with a warning.
func (g *Generator) prepare(ctx context.Context, fs *FieldSet, logger *log.Logger) (*content, error) {
	c := &content{
		fs:     fs,
		code:   fs.Get(FieldRouteCode),
		name:   fs.Get(FieldRouteName),
		images: make(map[Slot]*asset.Image),
	}

	for _, s := range Slots() {
		data, ok := fs.Image(s)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := g.load(ctx, data, g.tpl.slotWidth(s))
		if err != nil {
			derr := &AssetDecodeError{Slot: s, Label: s.Label(), Err: err}
			if s.Required() {
				return nil, derr
			}
			c.skip(logger, s.Label(), derr)
			continue
		}
		c.images[s] = img
	}

	for i, data := range fs.Photos() {
		img, err := g.load(ctx, data, g.tpl.photoWidth)
		if err != nil {
			c.skip(logger, fmt.Sprintf("%s %d", PhotosLabel, i+1), err)
			continue
		}
		c.photos = append(c.photos, img)
	}

	if url := fs.Get(FieldURL); url != "" {
		px := int(g.tpl.qrSize / 25.4 * max(g.cfg.maxDPI, asset.DefaultMaxDPI))
		data, err := g.cfg.codes.Code(ctx, url, px)
		if err == nil {
			c.qr, err = asset.Decode(data)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.skip(logger, "QR", err)
		}
	}
	return c, nil
}

func (g *Generator) load(ctx context.Context, data []byte, widthMM float64) (*asset.Image, error) {
	img, err := g.lib.Decode(data)
	if err != nil {
		return nil, err
	}
	return g.lib.Fit(ctx, img, widthMM)
}

func (c *content) skip(logger *log.Logger, label string, err error) {
	var derr *AssetDecodeError
	if errors.As(err, &derr) {
		err = derr.Err
	}
	logger.Warn("skipping optional image", "slot", label, "err", err)
	c.warnings = append(c.warnings, Warning{Block: label, Reason: "skipped: " + err.Error()})
}
