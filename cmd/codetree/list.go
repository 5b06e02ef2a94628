package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every element in the knowledge tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		elements := st.List(cmd.Context())
		if len(elements) == 0 {
			fmt.Println("Knowledge tree is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tDEPS\tDEPENDENTS\tDESCRIPTION")
		for _, elem := range elements {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				elem.ID, elem.Type, len(elem.Dependencies), len(elem.Dependents), elem.Description)
		}
		return w.Flush()
	},
}
