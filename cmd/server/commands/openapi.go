package commands

import (
	"fmt"

	"github.com/benvon/memtodo/api/openapi"
	"github.com/spf13/cobra"
)

// NewOpenAPICmd creates the openapi command
func NewOpenAPICmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := openapi.Spec
			if asJSON {
				var err error
				if doc, err = openapi.JSON(); err != nil {
					return err
				}
			}
			if _, err := cmd.OutOrStdout().Write(doc); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of YAML")
	return cmd
}
