package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskenti/topoguia"
)

func (c *CLI) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the page templates",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.Out, StyleTitle.Render("Plantillas"))
			for _, t := range topoguia.Templates() {
				printKeyValue(c.Out, string(t.Name), fmt.Sprintf("%s, %s páginas", t.Orientation, t.Pages))
				fmt.Fprintln(c.Out, "             "+StyleDim.Render(t.Description))
			}
		},
	}
}
