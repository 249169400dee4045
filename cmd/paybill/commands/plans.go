package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewPlansCommand creates the plans command group
func NewPlansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plans",
		Aliases: []string{"plan"},
		Short:   "Manage billing plans",
		Long:    "List, inspect, create and change subscription billing plans",
	}

	cmd.AddCommand(newPlansListCommand())
	cmd.AddCommand(newPlansGetCommand())
	cmd.AddCommand(newPlansCreateCommand())
	cmd.AddCommand(newPlansActivateCommand())
	cmd.AddCommand(newPlansDeactivateCommand())
	cmd.AddCommand(newPlansUpdateCommand())
	cmd.AddCommand(newPlansUpdatePricingCommand())

	return cmd
}

func newPlansListCommand() *cobra.Command {
	opts := &paybill.PlanListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List billing plans",
		Long:  "List billing plans, optionally filtered by product or plan ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			plans, err := client.Plans().List(commandContext(cmd), opts)
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			return render(cmd, plans.Values(), planHeaders, func(table *tablewriter.Table) {
				plans.Each(func(_ string, plan *paybill.Plan) bool {
					_ = table.Append(planRow(plan))

					return true
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.ProductID, "product-id", "", "only list plans of this product")
	cmd.Flags().StringSliceVar(&opts.PlanIDs, "plan-ids", nil, "only list these plans (at most 10)")
	cmd.Flags().IntVar(&opts.PageCount, "pages", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&opts.All, "all", false, "fetch every page")

	return cmd
}

func newPlansGetCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "get PLAN_ID",
		Short: "Get plan details",
		Long:  "Display detailed information about a billing plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			plan, err := client.Plans().Get(commandContext(cmd), args[0], noCache)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}

			return renderPlan(cmd, plan)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "fetch from the platform even if cached")

	return cmd
}

func newPlansCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a billing plan",
		Long: `Create a billing plan from a YAML template.

Example template:

  product_id: PROD-XXCD1234QWER65782
  name: Video Streaming Service Plan
  billing_cycles:
    - tenure_type: TRIAL
      sequence: 1
      total_cycles: 1
      frequency: {interval_unit: MONTH, interval_count: 1}
    - tenure_type: REGULAR
      sequence: 2
      total_cycles: 12
      frequency: {interval_unit: MONTH, interval_count: 1}
      pricing_scheme:
        fixed_price: {currency_code: USD, value: "10.00"}
  payment_preferences:
    auto_bill_outstanding: true
    payment_failure_threshold: 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(cmd, file)
			if err != nil {
				return err
			}

			template, err := parsePlanTemplate(data)
			if err != nil {
				return err
			}

			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			plan, err := client.Plans().Create(commandContext(cmd), template)
			if err != nil {
				return fmt.Errorf("failed to create plan: %w", err)
			}

			return renderPlan(cmd, plan)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "plan template file, - for standard input")

	return cmd
}

func newPlansActivateCommand() *cobra.Command {
	return newPlanTransitionCommand("activate", "Activate a billing plan", func(cmd *cobra.Command, plan *paybill.Plan) error {
		return plan.Activate(commandContext(cmd))
	})
}

func newPlansDeactivateCommand() *cobra.Command {
	return newPlanTransitionCommand("deactivate", "Deactivate a billing plan", func(cmd *cobra.Command, plan *paybill.Plan) error {
		return plan.Deactivate(commandContext(cmd))
	})
}

func newPlanTransitionCommand(name, short string, transition func(*cobra.Command, *paybill.Plan) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " PLAN_ID",
		Short: short,
		Long:  short + ". The plan's current status is checked before the call is made.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			plan, err := client.Plans().Get(commandContext(cmd), args[0], true)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}

			err = transition(cmd, plan)
			if err != nil {
				return fmt.Errorf("failed to %s plan: %w", name, err)
			}

			return renderPlan(cmd, plan)
		},
	}
}

func newPlansUpdateCommand() *cobra.Command {
	var (
		name              string
		description       string
		autoBill          bool
		taxPercentage     string
		failureThreshold  int
		setupFee          string
		setupFeeCurrency  string
		setupFeeOnFailure string
	)

	cmd := &cobra.Command{
		Use:   "update PLAN_ID",
		Short: "Update a billing plan",
		Long:  "Replace the patchable fields of a billing plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := paybill.NewPlanPatch()
			flags := cmd.Flags()

			steps := []struct {
				flag string
				set  func() error
			}{
				{"name", func() error { return patch.SetName(name) }},
				{"description", func() error { return patch.SetDescription(description) }},
				{"auto-bill-outstanding", func() error { return patch.SetAutoBillOutstanding(autoBill) }},
				{"tax-percentage", func() error { return patch.SetTaxPercentage(taxPercentage) }},
				{"payment-failure-threshold", func() error { return patch.SetPaymentFailureThreshold(failureThreshold) }},
				{"setup-fee", func() error {
					return patch.SetSetupFee(paybill.Money{CurrencyCode: setupFeeCurrency, Value: setupFee})
				}},
				{"setup-fee-failure-action", func() error { return patch.SetSetupFeeFailureAction(setupFeeOnFailure) }},
			}

			for _, step := range steps {
				if !flags.Changed(step.flag) {
					continue
				}

				err := step.set()
				if err != nil {
					return err
				}
			}

			if patch.Len() == 0 {
				return constants.ErrNoPatchFields
			}

			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			plan, err := client.Plans().Get(commandContext(cmd), args[0], false)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}

			err = plan.Update(commandContext(cmd), patch)
			if err != nil {
				return fmt.Errorf("failed to update plan: %w", err)
			}

			return renderPlan(cmd, plan)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "plan name")
	cmd.Flags().StringVar(&description, "description", "", "plan description")
	cmd.Flags().BoolVar(&autoBill, "auto-bill-outstanding", false, "bill the outstanding amount in the next cycle")
	cmd.Flags().StringVar(&taxPercentage, "tax-percentage", "", "tax percentage")
	cmd.Flags().IntVar(&failureThreshold, "payment-failure-threshold", 0, "failed payments before suspension")
	cmd.Flags().StringVar(&setupFee, "setup-fee", "", "setup fee amount")
	cmd.Flags().StringVar(&setupFeeCurrency, "setup-fee-currency", "USD", "setup fee currency code")
	cmd.Flags().StringVar(&setupFeeOnFailure, "setup-fee-failure-action", "", "CANCEL or CONTINUE")

	return cmd
}

func newPlansUpdatePricingCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update-pricing PLAN_ID",
		Short: "Update plan pricing",
		Long: `Replace the pricing schemes of billing cycles from a YAML document.

Example:

  pricing_schemes:
    - billing_cycle_sequence: 2
      pricing_scheme:
        fixed_price: {currency_code: USD, value: "12.00"}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(cmd, file)
			if err != nil {
				return err
			}

			updates, err := parsePricingUpdates(data)
			if err != nil {
				return err
			}

			client, err := newIdentifiedClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			plan, err := client.Plans().Get(commandContext(cmd), args[0], false)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}

			err = plan.UpdatePricing(commandContext(cmd), updates)
			if err != nil {
				return fmt.Errorf("failed to update plan pricing: %w", err)
			}

			return renderPlan(cmd, plan)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "pricing schemes file, - for standard input")

	return cmd
}

var planHeaders = []string{"ID", "Name", "Status", "Product", "Cycles", "Created"}

func planRow(plan *paybill.Plan) []string {
	return []string{
		plan.ID,
		plan.Name,
		plan.Status,
		plan.ProductID,
		strconv.Itoa(len(plan.BillingCycles)),
		formatTime(plan.CreateTime),
	}
}

func renderPlan(cmd *cobra.Command, plan *paybill.Plan) error {
	return render(cmd, plan, []string{"Property", "Value"}, func(table *tablewriter.Table) {
		_ = table.Append([]string{"ID", plan.ID})
		_ = table.Append([]string{"Name", plan.Name})
		_ = table.Append([]string{"Status", plan.Status})
		_ = table.Append([]string{"Product", plan.ProductID})
		_ = table.Append([]string{"Description", formatValue(plan.Description)})

		for _, cycle := range plan.BillingCycles {
			_ = table.Append([]string{"Cycle " + strconv.Itoa(cycle.Sequence), formatCycle(cycle)})
		}

		_ = table.Append([]string{"Created", formatTime(plan.CreateTime)})
	})
}

func formatCycle(cycle paybill.BillingCycle) string {
	price := "free"
	if cycle.PricingScheme != nil && cycle.PricingScheme.FixedPrice != nil {
		price = cycle.PricingScheme.FixedPrice.Value + " " + cycle.PricingScheme.FixedPrice.CurrencyCode
	} else if cycle.PricingScheme != nil && cycle.PricingScheme.PricingModel != "" {
		price = cycle.PricingScheme.PricingModel
	}

	return fmt.Sprintf("%s every %d %s, %d cycles, %s",
		cycle.TenureType, cycle.Frequency.IntervalCount, cycle.Frequency.IntervalUnit, cycle.TotalCycles, price)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return constants.NotAvailable
	}

	return t.Format(time.RFC3339)
}
