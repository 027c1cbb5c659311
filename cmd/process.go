package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-agent/internal/contact"
	"github.com/sells-group/lead-agent/internal/enrich"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/pipeline"
	"github.com/sells-group/lead-agent/pkg/clearbit"
	"github.com/sells-group/lead-agent/pkg/ipapi"
	"github.com/sells-group/lead-agent/pkg/notion"
	"github.com/sells-group/lead-agent/pkg/telegram"
)

var processLead model.RawLead

// One-shot intake for testing a lead end to end without the server.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single lead from flags and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		store := notion.NewStore(cfg.Notion.Token, cfg.Notion.LeadDB)
		tg := telegram.NewClient(cfg.Telegram.BotToken)

		var ip ipapi.Client
		if cfg.Enrich.GeoEnabled {
			ip = ipapi.NewClient()
		}
		var company clearbit.Client
		if cfg.Enrich.ClearbitKey != "" {
			company = clearbit.NewClient(cfg.Enrich.ClearbitKey)
		}

		processor := pipeline.New(store, enrich.New(ip, company),
			contact.New(tg, cfg.Telegram.AdminChatID))

		result := processor.ProcessNewLead(cmd.Context(), processLead)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	processCmd.Flags().StringVar(&processLead.Email, "email", "", "lead email (required)")
	processCmd.Flags().StringVar(&processLead.Name, "name", "", "lead name")
	processCmd.Flags().StringVar(&processLead.Company, "company", "", "company name")
	processCmd.Flags().StringVar(&processLead.Phone, "phone", "", "phone number")
	processCmd.Flags().StringVar(&processLead.TelegramID, "telegram", "", "telegram handle or id")
	processCmd.Flags().StringVar(&processLead.Source, "lead-source", "", "lead source label")
	processCmd.Flags().StringVar(&processLead.UTMSource, "utm-source", "", "utm source")
	processCmd.Flags().StringVar(&processLead.UTMMedium, "utm-medium", "", "utm medium")
	processCmd.Flags().StringVar(&processLead.UTMCampaign, "utm-campaign", "", "utm campaign")
	_ = processCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(processCmd)
}
