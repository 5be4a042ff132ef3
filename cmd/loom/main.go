// loom is a command-line front end for the agent execution engine. It wires
// the builtin tool suite into an executor and runs a task against a model
// provider; the bundled scripted provider replays canned responses so whole
// agent loops can run offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "loom",
		Short:         "Agent execution engine",
		Long:          "loom drives a model conversation with sandboxed tool access inside a project directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default $HOME/.loom.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	cobra.OnInitialize(func() {
		initConfig(root)
	})

	root.AddCommand(newRunCmd())
	root.AddCommand(newToolsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func initConfig(root *cobra.Command) {
	if cfgFile, _ := root.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".loom")
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("LOOM")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	// A missing config file is fine; a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: cannot read config: %v\n", err)
		}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "loom %s\n", version)
		},
	}
}
