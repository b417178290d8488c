package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dcshock/sewer/config"
)

var (
	listDOT     bool
	listModules bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the systems in the systems file",
		Long: `List every system with its stages, in build order.

--dot prints the nesting graph in Graphviz DOT format instead. --modules
prints the registered module, filter, handler and observer names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			w := cmd.OutOrStdout()
			switch {
			case listDOT:
				return config.WriteDOT(w, a.multi)
			case listModules:
				printf(w, "modules:  %s\n", strings.Join(a.registry.Names(), ", "))
				printf(w, "filters:  %s\n", strings.Join(a.registry.FilterNames(), ", "))
				return nil
			}

			order, err := config.Order(a.multi, nil)
			if err != nil {
				return err
			}
			for _, name := range order {
				printf(w, "%-16s %s\n", name, strings.Join(a.systems[name].Stages(), " -> "))
			}
			return nil
		},
	}
)

func init() {
	listCmd.Flags().BoolVar(&listDOT, "dot", false, "print the nesting graph as DOT")
	listCmd.Flags().BoolVar(&listModules, "modules", false, "print registered names")
}
