package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskenti/topoguia/preview"
)

func (c *CLI) previewCommand() *cobra.Command {
	var opts genOpts
	var output, font string
	var page int
	var dpi float64

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render one page of a guide to PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.generate(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			if page < 1 || page > res.Pages {
				return fmt.Errorf("page %d out of range 1..%d", page, res.Pages)
			}
			var popts []preview.Option
			if font != "" {
				popts = append(popts, preview.WithFontFile(font))
			}
			data, err := preview.PNG(res.Document, page-1, dpi, popts...)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("%s_p%d.png", strings.TrimSuffix(res.Filename, ".pdf"), page)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess(c.Out, "Rendered page %d of %d", page, res.Pages)
			printFile(c.Out, output)
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PNG file")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().Float64Var(&dpi, "dpi", preview.DefaultDPI, "resolution")
	cmd.Flags().StringVar(&font, "font", "", "TrueType font for text")
	return cmd
}
