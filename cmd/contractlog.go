// =============================================================================
// SAP Partner Import - Contract Log Command
// =============================================================================
//
// The 'contract-log' command lists the contract module log (ModCntr_Log) of
// one flatrate term and can mark the listed entries as processed.
//
// COMMAND USAGE:
//   sap-import contract-log --term 1000123 [--mark-processed --user 100]
//
// =============================================================================

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sap-partner-import/internal/contracts"
	"github.com/ginjaninja78/sap-partner-import/internal/database"
)

var (
	termID        int64
	markProcessed bool
	updatedBy     int64
)

var contractLogCmd = &cobra.Command{
	Use:   "contract-log",
	Short: "Show the contract module log of a flatrate term",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := database.NewMySQL(ctx, mainConfig.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := contracts.NewRepository(db)
		logs, err := repo.ListByFlatrateTerm(ctx, termID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tTYPE\tPRODUCT\tQTY\tAMOUNT\tPROCESSED")
		for _, log := range logs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
				log.ID,
				log.DateTrx.Format("2006-01-02"),
				log.DocumentType,
				nullID(log.ProductID.Int64, log.ProductID.Valid),
				nullDecimal(log.Qty.Decimal.String(), log.Qty.Valid),
				nullDecimal(log.Amount.Decimal.StringFixed(2), log.Amount.Valid),
				log.Processed)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		summary := contracts.Summarize(logs)
		fmt.Fprintf(cmd.OutOrStdout(), "\nEntries: %d (processed %d)  Qty: %s  Amount: %s\n",
			summary.Count, summary.Processed, summary.Qty.String(), summary.Amount.StringFixed(2))

		if !markProcessed {
			return nil
		}

		ids := make([]int64, 0, len(logs))
		for _, log := range logs {
			if !log.Processed {
				ids = append(ids, log.ID)
			}
		}
		changed, err := repo.MarkProcessed(ctx, updatedBy, ids...)
		if err != nil {
			return err
		}
		logger.Info("Marked contract log entries processed",
			zap.Int64("term", termID), zap.Int64("entries", changed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contractLogCmd)

	contractLogCmd.Flags().Int64Var(&termID, "term", 0, "Flatrate term (C_Flatrate_Term_ID)")
	contractLogCmd.Flags().BoolVar(&markProcessed, "mark-processed", false,
		"Mark the listed unprocessed entries as processed")
	contractLogCmd.Flags().Int64Var(&updatedBy, "user", 100, "User ID recorded as UpdatedBy")
	_ = contractLogCmd.MarkFlagRequired("term")
}

func nullID(v int64, valid bool) string {
	if !valid {
		return "-"
	}
	return fmt.Sprint(v)
}

func nullDecimal(s string, valid bool) string {
	if !valid {
		return "-"
	}
	return s
}
