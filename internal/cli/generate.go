package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskenti/topoguia"
)

// errInvalid is returned when a manifest lacks required content. The details
// have already been printed.
var errInvalid = errors.New("manifest is missing required content")

func (c *CLI) generateCommand() *cobra.Command {
	var opts genOpts
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a guide PDF from a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.generate(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(outDir, res.Filename)
			if err := os.WriteFile(path, res.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			printSuccess(c.Out, "Generated %d page(s)", res.Pages)
			printFile(c.Out, path)
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	return cmd
}

// generate runs the generator over the manifest and reports warnings and
// validation failures.
func (c *CLI) generate(ctx context.Context, opts *genOpts) (*topoguia.Result, error) {
	genOptions, err := opts.options(c.Logger)
	if err != nil {
		return nil, err
	}
	fs, err := topoguia.LoadManifest(opts.manifest)
	if err != nil {
		return nil, err
	}
	g, err := topoguia.New(genOptions...)
	if err != nil {
		return nil, err
	}

	res, err := g.Generate(ctx, fs)
	var verr *topoguia.ValidationError
	if errors.As(err, &verr) {
		c.printMissing(verr.Missing)
		return nil, errInvalid
	}
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		printWarning(c.Out, "%s", w)
	}
	return res, nil
}

func (c *CLI) printMissing(missing []string) {
	printError(c.Out, "Faltan campos obligatorios:")
	for _, m := range missing {
		fmt.Fprintln(c.Out, "  "+StyleDim.Render("-")+" "+StyleValue.Render(m))
	}
}

func (c *CLI) validateCommand() *cobra.Command {
	var manifest string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a manifest has every required field and image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := topoguia.LoadManifest(manifest)
			if err != nil {
				return err
			}
			if missing := fs.Missing(); len(missing) > 0 {
				c.printMissing(missing)
				return errInvalid
			}
			printSuccess(c.Out, "%s: todos los campos obligatorios presentes", manifest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "TOML manifest (required)")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}
