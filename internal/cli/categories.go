package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/baptistax/mediapicker/internal/router"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List picker categories",
		Args:  cobra.NoArgs,
		RunE:  runCategories,
	})
}

func runCategories(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tSOURCE")
	for _, c := range router.Categories() {
		source := "session"
		if !c.IsCollection() {
			source = fmt.Sprintf("%s:%s", c.Kind, c.Query)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Label, source)
	}
	return w.Flush()
}
