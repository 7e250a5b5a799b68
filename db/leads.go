// ABOUTME: Lead database operations
// ABOUTME: Handles CRUD operations and lead lookups by status or campaign
package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coldreach/coldreach/models"
)

func CreateLead(db *sql.DB, lead *models.Lead) error {
	lead.ID = uuid.New()
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = models.LeadPending
	}

	var campaignID *string
	if lead.CampaignID != nil {
		s := lead.CampaignID.String()
		campaignID = &s
	}

	_, err := db.Exec(`
		INSERT INTO leads (id, name, linkedin_url, headline, company, campaign_id, status, notes, contacted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID.String(), lead.Name, lead.LinkedInURL, lead.Headline, lead.Company, campaignID, lead.Status, lead.Notes, lead.ContactedAt, lead.CreatedAt, lead.UpdatedAt)

	return err
}

func GetLead(db *sql.DB, id uuid.UUID) (*models.Lead, error) {
	lead := &models.Lead{}
	var campaignID sql.NullString

	err := db.QueryRow(`
		SELECT id, name, linkedin_url, headline, company, campaign_id, status, notes, contacted_at, created_at, updated_at
		FROM leads WHERE id = ?
	`, id.String()).Scan(
		&lead.ID,
		&lead.Name,
		&lead.LinkedInURL,
		&lead.Headline,
		&lead.Company,
		&campaignID,
		&lead.Status,
		&lead.Notes,
		&lead.ContactedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if campaignID.Valid {
		cid, err := uuid.Parse(campaignID.String)
		if err == nil {
			lead.CampaignID = &cid
		}
	}

	return lead, nil
}

func FindLeads(db *sql.DB, query, status string, campaignID *uuid.UUID, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	where := []string{}
	args := []interface{}{}

	if query != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(company) LIKE ?)")
		pattern := "%" + strings.ToLower(query) + "%"
		args = append(args, pattern, pattern)
	}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	if campaignID != nil {
		where = append(where, "campaign_id = ?")
		args = append(args, campaignID.String())
	}

	q := `
		SELECT id, name, linkedin_url, headline, company, campaign_id, status, notes, contacted_at, created_at, updated_at
		FROM leads`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		var campaignID sql.NullString

		if err := rows.Scan(&l.ID, &l.Name, &l.LinkedInURL, &l.Headline, &l.Company, &campaignID, &l.Status, &l.Notes, &l.ContactedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}

		if campaignID.Valid {
			cid, err := uuid.Parse(campaignID.String)
			if err == nil {
				l.CampaignID = &cid
			}
		}

		leads = append(leads, l)
	}

	return leads, rows.Err()
}

// LeadUpdate holds the fields a PATCH may change. Nil pointers leave the
// stored value untouched.
type LeadUpdate struct {
	Name        *string    `json:"name,omitempty"`
	LinkedInURL *string    `json:"linkedin_url,omitempty"`
	Headline    *string    `json:"headline,omitempty"`
	Company     *string    `json:"company,omitempty"`
	CampaignID  *uuid.UUID `json:"campaign_id,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// UpdateLead applies the partial update and returns the stored record.
// Returns ErrNotFound if no lead has the given id.
func UpdateLead(db *sql.DB, id uuid.UUID, updates *LeadUpdate) (*models.Lead, error) {
	lead, err := GetLead(db, id)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		lead.Name = *updates.Name
	}
	if updates.LinkedInURL != nil {
		lead.LinkedInURL = *updates.LinkedInURL
	}
	if updates.Headline != nil {
		lead.Headline = *updates.Headline
	}
	if updates.Company != nil {
		lead.Company = *updates.Company
	}
	if updates.CampaignID != nil {
		lead.CampaignID = updates.CampaignID
	}
	if updates.Status != nil {
		lead.Status = *updates.Status
		if lead.Status == models.LeadContacted && lead.ContactedAt == nil {
			now := time.Now()
			lead.ContactedAt = &now
		}
	}
	if updates.Notes != nil {
		lead.Notes = *updates.Notes
	}
	lead.UpdatedAt = time.Now()

	var campaignID *string
	if lead.CampaignID != nil {
		s := lead.CampaignID.String()
		campaignID = &s
	}

	result, err := db.Exec(`
		UPDATE leads
		SET name = ?, linkedin_url = ?, headline = ?, company = ?, campaign_id = ?, status = ?, notes = ?, contacted_at = ?, updated_at = ?
		WHERE id = ?
	`, lead.Name, lead.LinkedInURL, lead.Headline, lead.Company, campaignID, lead.Status, lead.Notes, lead.ContactedAt, lead.UpdatedAt, id.String())
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return lead, nil
}

// DeleteLead removes a lead. Returns ErrNotFound if no lead has the given id.
func DeleteLead(db *sql.DB, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM leads WHERE id = ?`, id.String())
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
