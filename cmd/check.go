package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"db-check/internal/dialect"
	"db-check/internal/diff"
	"db-check/internal/engine"
	"db-check/internal/extract"
	"db-check/internal/logger"
	"db-check/internal/record"
	"db-check/internal/schema"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	tables    []string
	rowByRow  bool
	skipCount bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify migrated rows of the source against the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		source, srcCfg, err := openDB(RoleSource)
		if err != nil {
			return err
		}
		defer source.Close()

		target, tgtCfg, err := openDB(RoleTarget)
		if err != nil {
			return err
		}
		defer target.Close()

		fmt.Printf("🔍 Source: %s (%s) -> Target: %s (%s)\n", srcCfg.Name, srcCfg.Driver, tgtCfg.Name, tgtCfg.Driver)

		srcDialect := dialect.GetDialect(srcCfg.Driver)
		tgtDialect := dialect.GetDialect(tgtCfg.Driver)
		srcInspector := schema.NewInspector(source, srcDialect)
		tgtInspector := schema.NewInspector(target, tgtDialect)

		targetSchema := viper.GetString("check.target_schema")
		if targetSchema == "" {
			targetSchema = tgtCfg.Schema
		}

		// Filter tables strategy:
		// 1. Check CLI flag --tables
		// 2. If empty, check config check.tables
		// 3. If both empty, process all source tables.
		targetTableNames := normalizeTables(tables)
		if len(targetTableNames) == 0 {
			targetTableNames = normalizeTables(viper.GetStringSlice("check.tables"))
		}
		if len(targetTableNames) == 0 {
			targetTableNames, err = srcInspector.ListTables(ctx, srcCfg.Schema)
			if err != nil {
				return err
			}
		}
		if len(targetTableNames) == 0 {
			return fmt.Errorf("no tables to check")
		}

		start := time.Now()

		// 1. Row count pre-check
		if !skipCount {
			counts := engine.VerifyCounts(ctx, srcInspector, tgtInspector, srcCfg.Schema, targetSchema, targetTableNames)
			fmt.Println("\n📏 Row Counts:")
			for i, c := range counts {
				icon := "✓"
				if !c.OK() {
					icon = "!"
				}
				fmt.Printf("[%s] [%02d/%02d] %-20s : source %d / target %d - %s\n",
					icon, i+1, len(counts), c.TableName, c.Source, c.Target, c.Status)
				if c.ErrorMsg != "" {
					fmt.Printf("    └ Error: %s\n", c.ErrorMsg)
				}
			}
		}

		// 2. Reporters
		diffLog, err := logger.NewDiffLogger(&LogCfg)
		if err != nil {
			return fmt.Errorf("failed to open diff log: %w", err)
		}
		defer diffLog.Sync()

		collector := diff.NewCollector()
		reporter := diff.Tee{collector, diff.NewLogReporter(diffLog)}

		concurrency := viper.GetInt("check.concurrency")
		checker := engine.New(target, engine.Options{
			BatchApply:     viper.GetBool("check.batch_apply") && !rowByRow,
			IgnoreSchema:   viper.GetBool("check.ignore_schema"),
			TargetEncoding: viper.GetString("check.target_encoding"),
			Concurrency:    concurrency,
			Dialect:        tgtDialect,
			Describer:      tgtInspector,
		}, diff.FieldComparator{Ignore: viper.GetStringSlice("check.ignore_columns")}, reporter, Logger)

		if err := checker.Start(ctx); err != nil {
			return err
		}
		defer checker.Stop()

		// 3. Setup Progress Bar
		var (
			mu      sync.Mutex
			current string
		)
		uiprogress.Start()
		bar := uiprogress.AddBar(len(targetTableNames)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			mu.Lock()
			defer mu.Unlock()
			return fmt.Sprintf("Checking %-20s", current)
		})

		// 4. Stream source rows into the checker
		reader := &extract.Reader{
			DB:           source,
			Dialect:      srcDialect,
			BatchSize:    viper.GetInt("check.batch_size"),
			TargetSchema: targetSchema,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(concurrency, 1))
		for _, name := range targetTableNames {
			g.Go(func() error {
				mu.Lock()
				current = name
				mu.Unlock()

				tbl, err := srcInspector.Describe(gctx, srcCfg.Schema, name)
				if err != nil {
					return err
				}
				err = reader.Stream(gctx, tbl, func(batch []*record.Record) error {
					return checker.Apply(gctx, batch)
				})
				if err != nil {
					return fmt.Errorf("check %s: %w", name, err)
				}
				bar.Incr()
				logger.WithTable(Logger, tbl.FullName()).Debug("table checked")
				return nil
			})
		}
		err = g.Wait()
		uiprogress.Stop()
		if err != nil {
			return err
		}

		elapsed := time.Since(start)

		// 5. Final Report
		fmt.Println("\n📊 Summary Report:")
		checked := collector.Tables()
		for i, name := range checked {
			s := collector.Summary(name)
			icon := "✓"
			if s.Differences() > 0 {
				icon = "!"
			}
			fmt.Printf("[%s] [%02d/%02d] %-20s : %d matched, %d mismatched, %d missing, %d unexpected\n",
				icon, i+1, len(checked), name, s.Matched, s.Mismatched, s.SourceOnly, s.TargetOnly)
		}
		total := collector.Total()
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Total Rows: %d, Differences: %d\n", total.Matched+total.Differences(), total.Differences())
		Logger.Info("check done", zap.Duration("elapsed", elapsed), zap.Int("differences", total.Differences()))

		if total.Differences() > 0 {
			return fmt.Errorf("%d differences found (see %s)", total.Differences(), diffTarget())
		}
		return nil
	},
}

func diffTarget() string {
	if LogCfg.DiffFile == "" {
		return "stdout"
	}
	return LogCfg.DiffFile
}

func init() {
	RootCmd.AddCommand(checkCmd)

	// CLI Flags
	checkCmd.Flags().StringSliceVarP(&tables, "tables", "t", []string{}, "Specific tables to check (comma-separated)")
	checkCmd.Flags().Int("batch-size", 0, "Records per verification batch (overrides config)")
	checkCmd.Flags().BoolVar(&rowByRow, "row-by-row", false, "Query the target one record at a time")
	checkCmd.Flags().BoolVar(&skipCount, "skip-count", false, "Skip the row count pre-check")
	checkCmd.Flags().String("target-schema", "", "Schema of the target tables (overrides config)")

	viper.BindPFlag("check.batch_size", checkCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("check.target_schema", checkCmd.Flags().Lookup("target-schema"))
}

// normalizeTables trims and drops empty table names from a list.
func normalizeTables(in []string) []string {
	var out []string
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
