package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openreferee/server/internal/api"
)

var openapiJSON bool

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the OpenAPI contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		if openapiJSON {
			doc, err := api.OpenAPIDocument()
			if err != nil {
				return fmt.Errorf("render openapi document: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), string(api.OpenAPISource()))
		return nil
	},
}

func init() {
	openapiCmd.Flags().BoolVar(&openapiJSON, "json", false, "print the contract as JSON instead of YAML")
}
