// Package cli implements the topoguia command-line interface.
//
// The commands are:
//   - generate: lay out a guide from a TOML manifest and write the PDF
//   - validate: report the required fields and images a manifest lacks
//   - preview: rasterize one page of a guide to PNG
//   - templates: list the page templates
//   - serve: run the HTTP adapter
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/taskenti/topoguia"
	"github.com/taskenti/topoguia/asset"
)

const appName = "topoguia"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var version = "dev"

// SetVersion sets the version shown by --version.
func SetVersion(v string) { version = v }

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Out receives command output; it defaults to standard output.
	Out io.Writer
}

// New creates a CLI whose logger writes to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Out: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Topoguia lays out printable trail guides",
		Long:         `Topoguia assembles a branded, paginated trail guide (PDF) from route fields and images described in a TOML manifest.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.serveCommand())
	return root
}

// genOpts are the generator flags shared by generate and preview.
type genOpts struct {
	manifest   string
	template   string
	theme      string
	stationery string
	code       string
	date       string
	maxDPI     float64
}

func (o *genOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.manifest, "manifest", "m", "", "TOML manifest with the fields and image paths (required)")
	cmd.Flags().StringVarP(&o.template, "template", "t", string(topoguia.TemplatePortrait), "page template: portrait, columns, landscape")
	cmd.Flags().StringVar(&o.theme, "theme", "", "TOML theme file")
	cmd.Flags().StringVar(&o.stationery, "stationery", "", "PDF whose first page is drawn behind every page")
	cmd.Flags().StringVar(&o.code, "code", "qr", "symbology of the URL code: qr, pdf417")
	cmd.Flags().StringVar(&o.date, "date", "", "document date as YYYYMMDD (default today)")
	cmd.Flags().Float64Var(&o.maxDPI, "max-dpi", asset.DefaultMaxDPI, "downscale images above this resolution, 0 to keep them")
	_ = cmd.MarkFlagRequired("manifest")
}

func (o *genOpts) options(logger *log.Logger) ([]topoguia.Option, error) {
	tpl, err := topoguia.ParseTemplate(o.template)
	if err != nil {
		return nil, err
	}
	opts := []topoguia.Option{
		topoguia.WithTemplate(tpl),
		topoguia.WithLogger(logger),
		topoguia.WithMaxImageDPI(o.maxDPI),
	}

	code, err := codeSource(o.code)
	if err != nil {
		return nil, err
	}
	opts = append(opts, topoguia.WithCodeSource(code))

	if o.theme != "" {
		th, err := topoguia.LoadTheme(o.theme)
		if err != nil {
			return nil, err
		}
		opts = append(opts, topoguia.WithTheme(th))
	}
	if o.stationery != "" {
		data, err := os.ReadFile(o.stationery)
		if err != nil {
			return nil, fmt.Errorf("reading stationery: %w", err)
		}
		opts = append(opts, topoguia.WithStationery(data))
	}
	if o.date != "" {
		d, err := time.ParseInLocation("20060102", o.date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q: want YYYYMMDD", o.date)
		}
		opts = append(opts, topoguia.WithClock(func() time.Time { return d }))
	}
	return opts, nil
}

func codeSource(name string) (asset.CodeSource, error) {
	switch strings.ToLower(name) {
	case "", "qr":
		return asset.NewQRSource(), nil
	case "pdf417":
		return asset.NewPDF417Source(), nil
	}
	return nil, fmt.Errorf("invalid code symbology %q (must be 'qr' or 'pdf417')", name)
}
