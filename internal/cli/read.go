package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"absence-desk/pkg/assets"
)

// NewReadCommand creates the read command, which prints a bundled asset
// exactly as the shell would receive it.
func NewReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "read <employees|codes>",
		Short:     "Print a bundled asset",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"employees", "codes"},
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, ok := assets.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown asset %q", args[0])
			}

			content, err := assets.NewReader(nil).Read(configFrom(cmd).Resolver(), asset)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		},
	}
}
