package commands

import (
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "tables <connection>",
		Short:             "List the tables of a saved connection",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeConnectionNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			ctx := cmd.Context()
			c, err := cc.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer c.Release()

			tables, err := c.Tables(ctx)
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), tablesResult(tables), cc.Cfg.Output)
		},
	}
}

// NewColumnsCommand creates the columns command.
func NewColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <connection> <table>",
		Short: "Describe the columns of a table",
		Long: `Describe the columns of a table.

Schema-qualified names (schema.table) are accepted by the client/server
backends. Primary key detection is best effort and may report NO for
every column on some backends.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeConnectionNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			ctx := cmd.Context()
			c, err := cc.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer c.Release()

			columns, err := c.Columns(ctx, args[1])
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), columnsResult(columns), cc.Cfg.Output)
		},
	}
}
