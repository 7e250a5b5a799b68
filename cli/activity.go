// ABOUTME: Activity feed and dashboard stats CLI commands
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/coldreach/coldreach/crm"
)

// ActivityCommand prints the recent activity feed, newest first.
func ActivityCommand(svc *crm.Service, args []string) error {
	fs := flag.NewFlagSet("activity", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Max entries")
	_ = fs.Parse(args)

	entries, err := svc.RecentActivity(*limit)
	if err != nil {
		return fmt.Errorf("failed to read activity: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No activity yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tVERB\tKIND\tENTITY")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Verb, e.EntityKind, e.EntityID)
	}
	return w.Flush()
}

// StatsCommand prints the dashboard aggregates.
func StatsCommand(svc *crm.Service, args []string) error {
	stats, err := svc.Stats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Leads:            %d\n", stats.TotalLeads)
	for status, n := range stats.LeadsByStatus {
		fmt.Printf("  %-15s %d\n", status+":", n)
	}
	fmt.Printf("Campaigns:        %d (%d active)\n", stats.TotalCampaigns, stats.ActiveCampaigns)
	fmt.Printf("Replied this week: %d\n", stats.RepliedThisWeek)
	return nil
}
