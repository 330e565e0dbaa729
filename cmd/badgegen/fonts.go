package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) fontsCommand() *cobra.Command {
	fonts := &cobra.Command{
		Use:   "fonts",
		Short: "Manage the event fonts",
	}
	fonts.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Copy the event fonts into the user font directory",
		Long: `Copies every .ttf under <dir>/assets into the per-user font directory so
svg2pdf can outline badge text. all, order and serve do this automatically
unless --no-install-fonts is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			installed, err := c.installFonts(c.dir)
			for _, path := range installed {
				fmt.Fprintf(c.stdout, "installed %s\n", path)
			}
			if err != nil {
				return aborted(err)
			}
			if len(installed) == 0 {
				c.log.Warn("No fonts found", "dir", c.dir)
			}
			return nil
		},
	})
	return fonts
}
