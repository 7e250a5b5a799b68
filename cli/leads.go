// ABOUTME: Lead CLI commands
// ABOUTME: Human-friendly commands for managing leads
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

// AddLeadCommand adds a new lead.
func AddLeadCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("add-lead", flag.ExitOnError)
	name := fs.String("name", "", "Lead name (required)")
	linkedin := fs.String("linkedin", "", "LinkedIn profile URL")
	headline := fs.String("headline", "", "Profile headline")
	company := fs.String("company", "", "Company name")
	campaign := fs.String("campaign", "", "Campaign ID to assign")
	notes := fs.String("notes", "", "Notes about the lead")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	lead := &models.Lead{
		Name:        *name,
		LinkedInURL: *linkedin,
		Headline:    *headline,
		Company:     *company,
		Notes:       *notes,
	}

	if *campaign != "" {
		id, err := uuid.Parse(*campaign)
		if err != nil {
			return fmt.Errorf("invalid campaign ID: %w", err)
		}
		if _, err := svc.GetCampaign(id); err != nil {
			return fmt.Errorf("campaign lookup failed: %w", err)
		}
		lead.CampaignID = &id
	}

	if err := svc.CreateLead(lead); err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	fmt.Printf("✓ Lead created: %s (ID: %s)\n", lead.Name, lead.ID)
	return nil
}

// ListLeadsCommand lists leads with optional filters.
func ListLeadsCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("list-leads", flag.ExitOnError)
	query := fs.String("query", "", "Search by name or company")
	status := fs.String("status", "", "Filter by status")
	campaign := fs.String("campaign", "", "Filter by campaign ID")
	limit := fs.Int("limit", 50, "Max results")
	_ = fs.Parse(args)

	var campaignID *uuid.UUID
	if *campaign != "" {
		id, err := uuid.Parse(*campaign)
		if err != nil {
			return fmt.Errorf("invalid campaign ID: %w", err)
		}
		campaignID = &id
	}

	leads, err := svc.FindLeads(*query, *status, campaignID, *limit)
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}

	if len(leads) == 0 {
		fmt.Println("No leads found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tSTATUS\tHEADLINE")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Company, l.Status, l.Headline)
	}
	return w.Flush()
}

// UpdateLeadCommand updates fields on an existing lead. Flags must come
// before the lead ID.
func UpdateLeadCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("update-lead", flag.ExitOnError)
	name := fs.String("name", "", "Lead name")
	status := fs.String("status", "", "Lead status")
	company := fs.String("company", "", "Company name")
	notes := fs.String("notes", "", "Notes")
	advance := fs.Bool("advance", false, "Advance to the next pipeline status")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: update-lead [flags] <id>")
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid lead ID: %w", err)
	}

	updates := &db.LeadUpdate{}
	if *name != "" {
		updates.Name = name
	}
	if *company != "" {
		updates.Company = company
	}
	if *notes != "" {
		updates.Notes = notes
	}
	if *status != "" {
		if !models.ValidLeadStatus(*status) {
			return fmt.Errorf("invalid status %q", *status)
		}
		updates.Status = status
	}
	if *advance {
		current, err := svc.GetLead(id)
		if err != nil {
			return fmt.Errorf("lead lookup failed: %w", err)
		}
		next := models.NextLeadStatus(current.Status)
		updates.Status = &next
	}

	lead, err := svc.UpdateLead(id, updates)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	fmt.Printf("✓ Lead updated: %s (status: %s)\n", lead.Name, lead.Status)
	return nil
}

// DeleteLeadCommand deletes a lead by ID.
func DeleteLeadCommand(svc *crm.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete-lead <id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid lead ID: %w", err)
	}

	if err := svc.DeleteLead(id); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	fmt.Printf("✓ Lead deleted: %s\n", id)
	return nil
}
