package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pivot/schema"
)

// discoverOutput is what `pivot discover` prints.
type discoverOutput struct {
	Schema *schema.Config `json:"schema"`
	Layout schema.Layout  `json:"suggestedLayout"`
}

func newDiscoverCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		pretty bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the detected schema and a suggested layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sch, err := src.load(cmd.Context(), a)
			if err != nil {
				return err
			}
			if sch == nil {
				return errors.New("discover needs --file")
			}

			var data []byte
			result := discoverOutput{Schema: sch, Layout: sch.SuggestLayout()}
			if pretty {
				data, err = json.MarshalIndent(result, "", "  ")
			} else {
				data, err = json.Marshal(result)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, append(data, '\n'))
		},
	}

	src.register(cmd, false)
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path (default: stdout)")
	return cmd
}
