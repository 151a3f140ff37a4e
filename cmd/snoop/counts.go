package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/cli"
	"github.com/svkcodes/snoop-etl-pipeline-public/internal/storage"
)

func countsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show row counts for every pipeline table",
		Long: `Report the current row counts of the transactions, customers and
quarantine tables. Useful for verifying a run after the fact.`,
		RunE: runCounts,
	}
}

func runCounts(cmd *cobra.Command, _ []string) error {
	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return reportCounts(cmd, store)
}

func reportCounts(cmd *cobra.Command, store *storage.SQLiteStorage) error {
	counts, err := store.TableCounts(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch table counts: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(cli.ChartIcon+" Table counts"))
	fmt.Fprintln(out, cli.TableHeaderStyle.Render(
		cli.TableCellStyle.Render(fmt.Sprintf("%-14s", "table"))+
			cli.TableCellStyle.Render("rows")))

	for _, row := range []struct {
		name string
		n    int
	}{
		{"transactions", counts.Transactions},
		{"customers", counts.Customers},
		{"quarantine", counts.Quarantine},
	} {
		fmt.Fprintln(out,
			cli.TableCellStyle.Render(fmt.Sprintf("%-14s", row.name))+
				cli.TableCellStyle.Render(strconv.Itoa(row.n)))
	}

	fmt.Fprintln(out, cli.SubtleStyle.Render(
		"as of "+time.Now().Format("2006-01-02 15:04:05")))
	return nil
}
