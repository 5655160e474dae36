// Package commands implements the todo-server command line.
package commands

import (
	"github.com/spf13/cobra"
)

// serveFlags are shared by the root command and serve
type serveFlags struct {
	debug bool
	port  string
}

// NewRootCmd creates the todo-server command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	flags := &serveFlags{}

	rootCmd := &cobra.Command{
		Use:           "todo-server",
		Short:         "In-memory todo list API",
		Long:          "REST API keeping todos, flags, tags and change history in process memory",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging (overrides SERVER_DEBUG_MODE)")
	rootCmd.PersistentFlags().StringVar(&flags.port, "port", "", "Listen port (overrides SERVER_PORT)")

	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(NewOpenAPICmd())
	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewHealthcheckCmd())
	return rootCmd
}

func newServeCmd(flags *serveFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}
