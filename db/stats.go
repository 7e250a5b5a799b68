// ABOUTME: Dashboard statistics queries
// ABOUTME: Aggregates lead and campaign counts for the dashboard view
package db

import (
	"database/sql"
	"time"

	"github.com/coldreach/coldreach/models"
)

// GetDashboardStats computes the aggregate counts shown on the dashboard.
func GetDashboardStats(db *sql.DB) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		LeadsByStatus: make(map[string]int),
	}

	rows, err := db.Query(`SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.LeadsByStatus[status] = count
		stats.TotalLeads += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRow(`SELECT COUNT(*) FROM campaigns`).Scan(&stats.TotalCampaigns)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(`SELECT COUNT(*) FROM campaigns WHERE status = ?`, models.CampaignActive).Scan(&stats.ActiveCampaigns)
	if err != nil {
		return nil, err
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	err = db.QueryRow(`SELECT COUNT(*) FROM leads WHERE status = ? AND updated_at >= ?`, models.LeadReplied, weekAgo).Scan(&stats.RepliedThisWeek)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
