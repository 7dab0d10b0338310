package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"db-check/internal/dialect"
	"db-check/internal/schema"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	describeRole   string
	describeSchema string
)

var describeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Print the columns and primary key of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		db, config, err := openDB(describeRole)
		if err != nil {
			return err
		}
		defer db.Close()

		schemaName := describeSchema
		if schemaName == "" {
			schemaName = config.Schema
		}

		d := dialect.GetDialect(config.Driver)
		Logger.Debug("describing table",
			zap.String("db", config.Name),
			zap.String("dialect", d.Name()),
			zap.String("table", args[0]))

		tbl, err := schema.NewInspector(db, d).Describe(ctx, schemaName, args[0])
		if err != nil {
			return err
		}
		printTable(tbl)
		return nil
	},
}

func printTable(tbl *schema.Table) {
	fmt.Printf("📋 %s (%s)\n", tbl.FullName(), describeRole)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tCOLUMN\tTYPE\tKIND\tNULL\tPK")
	for _, c := range tbl.AllColumns() {
		pk := ""
		if c.IsPK {
			pk = "✓"
		}
		null := "NO"
		if c.IsNullable {
			null = "YES"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.Position, c.Name, c.DataType, c.Kind(), null, pk)
	}
	w.Flush()
}

func init() {
	RootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringVar(&describeRole, "role", RoleTarget, "Database to inspect (source or target)")
	describeCmd.Flags().StringVar(&describeSchema, "schema", "", "Schema of the table (defaults to the database config)")
}
