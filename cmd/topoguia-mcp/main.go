// Command topoguia-mcp is an MCP (Model Context Protocol) server that exposes
// trail guide generation to AI assistants over stdio.
//
// # Available Tools
//
//   - generate_topoguia: lay out a guide and return or write the PDF
//   - validate_fieldset: list the missing required fields and images
//   - list_templates: describe the page templates
//
// # Available Resources
//
//   - topoguia://templates
//   - topoguia://fields
//
// The default template and theme come from TOPOGUIA_TEMPLATE and
// TOPOGUIA_THEME. Logs go to standard error.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/taskenti/topoguia"
	"github.com/taskenti/topoguia/mcp"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "topoguia-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           log.InfoLevel,
	})

	def := topoguia.TemplatePortrait
	if name := os.Getenv("TOPOGUIA_TEMPLATE"); name != "" {
		t, err := topoguia.ParseTemplate(name)
		if err != nil {
			return err
		}
		def = t
	}
	opts := []topoguia.Option{topoguia.WithLogger(logger)}
	if path := os.Getenv("TOPOGUIA_THEME"); path != "" {
		th, err := topoguia.LoadTheme(path)
		if err != nil {
			return err
		}
		opts = append(opts, topoguia.WithTheme(th))
	}

	tools, err := mcp.NewTools(def, opts...)
	if err != nil {
		return err
	}
	server := mcp.NewServer(mcp.WithLogger(logger))
	tools.Register(server)
	mcp.RegisterResources(server)
	return server.Run(ctx)
}
