// ABOUTME: Campaign and sequence step CLI commands
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/coldreach/coldreach/crm"
	"github.com/coldreach/coldreach/db"
	"github.com/coldreach/coldreach/models"
)

// AddCampaignCommand creates a new campaign.
func AddCampaignCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("add-campaign", flag.ExitOnError)
	name := fs.String("name", "", "Campaign name (required)")
	dailyLimit := fs.Int("daily-limit", 0, "Daily outreach limit")
	notes := fs.String("notes", "", "Notes about the campaign")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	campaign := &models.Campaign{
		Name:       *name,
		DailyLimit: *dailyLimit,
		Notes:      *notes,
	}

	if err := svc.CreateCampaign(campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	fmt.Printf("✓ Campaign created: %s (ID: %s)\n", campaign.Name, campaign.ID)
	return nil
}

// ListCampaignsCommand lists campaigns.
func ListCampaignsCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("list-campaigns", flag.ExitOnError)
	query := fs.String("query", "", "Search by name")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Max results")
	_ = fs.Parse(args)

	campaigns, err := svc.FindCampaigns(*query, *status, *limit)
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}

	if len(campaigns) == 0 {
		fmt.Println("No campaigns found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tDAILY LIMIT")
	for _, c := range campaigns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.ID, c.Name, c.Status, c.DailyLimit)
	}
	return w.Flush()
}

// UpdateCampaignCommand updates fields on a campaign. Flags must come before
// the campaign ID.
func UpdateCampaignCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("update-campaign", flag.ExitOnError)
	name := fs.String("name", "", "Campaign name")
	status := fs.String("status", "", "Campaign status")
	dailyLimit := fs.Int("daily-limit", -1, "Daily outreach limit")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: update-campaign [flags] <id>")
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid campaign ID: %w", err)
	}

	updates := &db.CampaignUpdate{}
	if *name != "" {
		updates.Name = name
	}
	if *notes != "" {
		updates.Notes = notes
	}
	if *dailyLimit >= 0 {
		updates.DailyLimit = dailyLimit
	}
	if *status != "" {
		if !models.ValidCampaignStatus(*status) {
			return fmt.Errorf("invalid status %q", *status)
		}
		updates.Status = status
	}

	campaign, err := svc.UpdateCampaign(id, updates)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	fmt.Printf("✓ Campaign updated: %s (status: %s)\n", campaign.Name, campaign.Status)
	return nil
}

// AddStepCommand appends a sequence step to a campaign.
func AddStepCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("add-step", flag.ExitOnError)
	campaign := fs.String("campaign", "", "Campaign ID (required)")
	kind := fs.String("kind", models.StepMessage, "Step kind: connect, message, or followup")
	body := fs.String("body", "", "Message template body")
	waitDays := fs.Int("wait-days", 0, "Days to wait after the previous step")
	_ = fs.Parse(args)

	if *campaign == "" {
		return fmt.Errorf("--campaign is required")
	}
	id, err := uuid.Parse(*campaign)
	if err != nil {
		return fmt.Errorf("invalid campaign ID: %w", err)
	}

	step := &models.SequenceStep{
		CampaignID: id,
		Kind:       *kind,
		Body:       *body,
		WaitDays:   *waitDays,
	}

	if err := svc.CreateSequenceStep(step); err != nil {
		return fmt.Errorf("failed to create step: %w", err)
	}

	fmt.Printf("✓ Step %d added to campaign %s\n", step.Position, id)
	return nil
}

// ListStepsCommand prints a campaign's sequence in order.
func ListStepsCommand(svc *crm.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list-steps <campaign-id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid campaign ID: %w", err)
	}

	steps, err := svc.GetSequenceSteps(id)
	if err != nil {
		return fmt.Errorf("failed to list steps: %w", err)
	}

	if len(steps) == 0 {
		fmt.Println("No steps found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tKIND\tWAIT\tBODY")
	for _, s := range steps {
		fmt.Fprintf(w, "%d\t%s\t%dd\t%s\n", s.Position, s.Kind, s.WaitDays, s.Body)
	}
	return w.Flush()
}
