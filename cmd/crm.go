package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/competitive-intel/internal/crm"
	"github.com/sells-group/competitive-intel/internal/resilience"
)

var crmCmd = &cobra.Command{
	Use:   "crm",
	Short: "Inspect the external customer and competitor directories",
}

var crmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify Salesforce fields and the Notion competitor database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		checked := 0

		if cfg.Salesforce.ClientID != "" {
			client, err := initSalesforce()
			if err != nil {
				return err
			}
			dir := crm.NewSalesforceDirectory(client, resilience.GuardFrom("salesforce", cfg.Retry))
			if err := dir.Check(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "salesforce: required fields present")
			checked++
		}

		if cfg.Notion.Token != "" && cfg.Notion.CompetitorDB != "" {
			reg := crm.NewNotionRegistry(initNotion(cfg.Notion.CompetitorDB), resilience.GuardFrom("notion", cfg.Retry))
			competitors, err := reg.ListCompetitors(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "notion: %d competitors\n", len(competitors))
			checked++
		}

		if checked == 0 {
			_, _ = fmt.Fprintln(out, "no external directories configured")
		}
		return nil
	},
}

func init() {
	crmCmd.AddCommand(crmCheckCmd)
	rootCmd.AddCommand(crmCmd)
}
