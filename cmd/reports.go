// =============================================================================
// XLSX Report Engine - Report Commands
// =============================================================================
//
// Direct entry points for each report, bypassing the session pairing:
//
//   reports combine --invoice FILE... --cashbook FILE...
//   reports products FILE [--simple]
//   reports orders FILE
//   reports payroll
//   reports guide
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/xlsx-report-engine/internal/converter"
)

var (
	combineInvoices  []string
	combineCashbooks []string
	simpleProducts   bool
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Combine invoice lists and cashbooks into one cash report",
	Long: `Combine fills the cash report template: invoice totals go to the summary
cells, cashbook rows to the detail region. Any number of files of each kind
may be given; a file that cannot be read is reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(combineInvoices)+len(combineCashbooks) == 0 {
			return fmt.Errorf("nothing to combine: pass --invoice and/or --cashbook")
		}
		conv, err := newConverter()
		if err != nil {
			return err
		}
		return printResult(cmd, conv.Combine(combineInvoices, combineCashbooks, appConfig.OutputDir))
	},
}

var productsCmd = &cobra.Command{
	Use:   "products FILE",
	Short: "List products with non-zero stock by category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := newConverter()
		if err != nil {
			return err
		}
		return printResult(cmd, conv.Products(args[0], simpleProducts))
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders FILE",
	Short: "Group purchase-order lines by supplier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := newConverter()
		if err != nil {
			return err
		}
		return printResult(cmd, conv.PurchaseOrders(args[0]))
	},
}

var payrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Write the payroll workbook stored in the environment",
	Long: `Payroll decodes the base64 workbook held in the variable named by
payroll_base64_env (BANGLUONG by default) into BangLuong_ddmm.xlsx.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := newConverter()
		if err != nil {
			return err
		}
		return printResult(cmd, conv.Payroll(appConfig.OutputDir))
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the supported exports and their required columns",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), converter.HelpText)
	},
}

func init() {
	combineCmd.Flags().StringSliceVar(&combineInvoices, "invoice", nil, "Invoice list export (repeatable)")
	combineCmd.Flags().StringSliceVar(&combineCashbooks, "cashbook", nil, "Cashbook export (repeatable)")
	productsCmd.Flags().BoolVar(&simpleProducts, "simple", false, "List every category, without exclusions or valuation")

	rootCmd.AddCommand(combineCmd, productsCmd, ordersCmd, payrollCmd, guideCmd)
}
