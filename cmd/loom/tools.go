package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/tools/builtin"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the builtin tools and their parameters",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, tool := range builtin.All() {
				def := tool.Definition()
				fmt.Fprintf(out, "%s\n  %s\n", def.Name, def.Description)

				names := make([]string, 0, len(def.Parameters.Properties))
				for name := range def.Parameters.Properties {
					names = append(names, name)
				}
				sort.Strings(names)

				required := make(map[string]bool, len(def.Parameters.Required))
				for _, name := range def.Parameters.Required {
					required[name] = true
				}
				for _, name := range names {
					prop := def.Parameters.Properties[name]
					marker := ""
					if required[name] {
						marker = " (required)"
					}
					fmt.Fprintf(out, "    %s: %s%s  %s\n", name, prop.Type, marker, prop.Description)
				}
				fmt.Fprintln(out, strings.Repeat("-", 40))
			}
		},
	}
}
