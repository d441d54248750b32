// Package main содержит офлайн-калькулятор бэк-офиса: разбивка цены, окончание заявки, процент выполнения смены.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/dealer-backoffice/internal/attendance"
	"github.com/mmeshcher/dealer-backoffice/internal/leave"
	"github.com/mmeshcher/dealer-backoffice/internal/pricing"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dealercalc",
		Short:         "Dealership back-office calculators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(breakdownCmd())
	root.AddCommand(leaveEndCmd())
	root.AddCommand(progressCmd())

	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// optional возвращает указатель на значение флага, только если флаг был задан.
func optional(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func breakdownCmd() *cobra.Command {
	var (
		price, rate, addOn       float64
		inclusive, addOnIncluded bool
	)

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Split a vehicle price into base price, VAT and grand total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := pricing.QuoteInput{
				TotalOrBasePrice: optional(cmd, "price", price),
				TaxRatePercent:   optional(cmd, "rate", rate),
				IsTaxInclusive:   inclusive,
				NonTaxableAddOn:  optional(cmd, "add-on", addOn),
				AddOnIncluded:    addOnIncluded,
			}

			q, err := in.Quote(pricing.DefaultTaxRatePercent)
			if err != nil {
				return err
			}
			b, err := pricing.ComputeBreakdown(q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pricing.NewBreakdownOutput(b))
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "total (tax-inclusive) or base price")
	cmd.Flags().Float64Var(&rate, "rate", 15, "VAT rate in percent")
	cmd.Flags().BoolVar(&inclusive, "inclusive", false, "price already contains VAT")
	cmd.Flags().Float64Var(&addOn, "add-on", 0, "non-taxable add-on, e.g. license-plate fee")
	cmd.Flags().BoolVar(&addOnIncluded, "add-on-included", false, "add-on is already part of the price")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func leaveEndCmd() *cobra.Command {
	var (
		kind, startDate, startTime string
		duration                   float64
	)

	cmd := &cobra.Command{
		Use:   "leave-end",
		Short: "Resolve the end of an hourly permission or a multi-day leave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := leave.RequestInput{
				RequestKind:   kind,
				StartDate:     startDate,
				StartTime:     startTime,
				DurationValue: optional(cmd, "duration", duration),
			}

			req, err := in.Request()
			if err != nil {
				return err
			}
			res, err := leave.ResolveEnd(req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), leave.NewResolutionOutput(res))
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(leave.KindMultiDayLeave), "hourlyPermission or multiDayLeave")
	cmd.Flags().StringVar(&startDate, "start-date", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&startTime, "start-time", "", "start time, HH:MM (hourly permission)")
	cmd.Flags().Float64Var(&duration, "duration", 0, "hours for a permission, days for a leave")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func progressCmd() *cobra.Command {
	var worked, expected, allowance float64

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Compute the attendance completion percentage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := attendance.ProgressInput{
				HoursWorked:                  optional(cmd, "worked", worked),
				ExpectedHours:                &expected,
				EarlyDepartureAllowanceHours: optional(cmd, "allowance", allowance),
			}

			out, err := in.Compute()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().Float64Var(&worked, "worked", 0, "hours worked")
	cmd.Flags().Float64Var(&expected, "expected", 8, "expected shift hours")
	cmd.Flags().Float64Var(&allowance, "allowance", 0, "approved early-departure hours")
	_ = cmd.MarkFlagRequired("worked")

	return cmd
}
