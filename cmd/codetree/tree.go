package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var treeDepth int

var treeCmd = &cobra.Command{
	Use:   "tree [root-id]",
	Short: "Print the dependency tree below an element",
	Long: `Prints the dependency tree below the given element. With no root id, one
tree is printed per top-level element (an element nothing depends on).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		depth := treeDepth
		if !cmd.Flags().Changed("depth") {
			depth = cfg.Render.DefaultDepth
		}

		if len(args) == 1 {
			out, err := st.RenderTree(cmd.Context(), args[0], depth)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		}

		out := st.RenderForest(cmd.Context(), depth)
		if out == "" {
			fmt.Println("Knowledge tree is empty.")
			return nil
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	treeCmd.Flags().IntVar(&treeDepth, "depth", 5, "levels of descent below the root")
}
