// ABOUTME: Campaign and sequence step database operations
// ABOUTME: Handles CRUD operations for campaigns and their message sequences
package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coldreach/coldreach/models"
)

func CreateCampaign(db *sql.DB, campaign *models.Campaign) error {
	campaign.ID = uuid.New()
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	if campaign.Status == "" {
		campaign.Status = models.CampaignDraft
	}
	if campaign.DailyLimit <= 0 {
		campaign.DailyLimit = 20
	}

	_, err := db.Exec(`
		INSERT INTO campaigns (id, name, status, daily_limit, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, campaign.ID.String(), campaign.Name, campaign.Status, campaign.DailyLimit, campaign.Notes, campaign.CreatedAt, campaign.UpdatedAt)

	return err
}

func GetCampaign(db *sql.DB, id uuid.UUID) (*models.Campaign, error) {
	campaign := &models.Campaign{}

	err := db.QueryRow(`
		SELECT id, name, status, daily_limit, notes, created_at, updated_at
		FROM campaigns WHERE id = ?
	`, id.String()).Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Status,
		&campaign.DailyLimit,
		&campaign.Notes,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

func FindCampaigns(db *sql.DB, query, status string, limit int) ([]models.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}

	where := []string{}
	args := []interface{}{}

	if query != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(query)+"%")
	}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}

	q := `
		SELECT id, name, status, daily_limit, notes, created_at, updated_at
		FROM campaigns`
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

	var campaigns []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.DailyLimit, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}

	return campaigns, rows.Err()
}

// CampaignUpdate holds the fields a PATCH may change.
type CampaignUpdate struct {
	Name       *string `json:"name,omitempty"`
	Status     *string `json:"status,omitempty"`
	DailyLimit *int    `json:"daily_limit,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// UpdateCampaign applies the partial update and returns the stored record.
// Returns ErrNotFound if no campaign has the given id.
func UpdateCampaign(db *sql.DB, id uuid.UUID, updates *CampaignUpdate) (*models.Campaign, error) {
	campaign, err := GetCampaign(db, id)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		campaign.Name = *updates.Name
	}
	if updates.Status != nil {
		campaign.Status = *updates.Status
	}
	if updates.DailyLimit != nil {
		campaign.DailyLimit = *updates.DailyLimit
	}
	if updates.Notes != nil {
		campaign.Notes = *updates.Notes
	}
	campaign.UpdatedAt = time.Now()

	result, err := db.Exec(`
		UPDATE campaigns
		SET name = ?, status = ?, daily_limit = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, campaign.Name, campaign.Status, campaign.DailyLimit, campaign.Notes, campaign.UpdatedAt, id.String())
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

	return campaign, nil
}

// TouchCampaign bumps a campaign's updated_at. Sequence step changes count as
// campaign mutations, so the record they broadcast has to move too.
func TouchCampaign(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`UPDATE campaigns SET updated_at = ? WHERE id = ?`, time.Now(), id.String())
	return err
}

func CreateSequenceStep(db *sql.DB, step *models.SequenceStep) error {
	step.ID = uuid.New()
	now := time.Now()
	step.CreatedAt = now
	step.UpdatedAt = now
	if step.Kind == "" {
		step.Kind = models.StepMessage
	}

	if step.Position <= 0 {
		// Append after the current last step.
		var max sql.NullInt64
		err := db.QueryRow(`SELECT MAX(position) FROM sequence_steps WHERE campaign_id = ?`, step.CampaignID.String()).Scan(&max)
		if err != nil {
			return err
		}
		step.Position = int(max.Int64) + 1
	}

	_, err := db.Exec(`
		INSERT INTO sequence_steps (id, campaign_id, position, kind, body, wait_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, step.ID.String(), step.CampaignID.String(), step.Position, step.Kind, step.Body, step.WaitDays, step.CreatedAt, step.UpdatedAt)

	return err
}

func GetSequenceSteps(db *sql.DB, campaignID uuid.UUID) ([]models.SequenceStep, error) {
	rows, err := db.Query(`
		SELECT id, campaign_id, position, kind, body, wait_days, created_at, updated_at
		FROM sequence_steps
		WHERE campaign_id = ?
		ORDER BY position ASC
	`, campaignID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []models.SequenceStep
	for rows.Next() {
		var s models.SequenceStep
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Position, &s.Kind, &s.Body, &s.WaitDays, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}

	return steps, rows.Err()
}

// GetSequenceStep returns one step by id. Returns ErrNotFound if missing.
func GetSequenceStep(db *sql.DB, id uuid.UUID) (*models.SequenceStep, error) {
	step := &models.SequenceStep{}

	err := db.QueryRow(`
		SELECT id, campaign_id, position, kind, body, wait_days, created_at, updated_at
		FROM sequence_steps WHERE id = ?
	`, id.String()).Scan(&step.ID, &step.CampaignID, &step.Position, &step.Kind, &step.Body, &step.WaitDays, &step.CreatedAt, &step.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return step, nil
}

// DeleteSequenceStep removes a step. Returns ErrNotFound if no step has the
// given id.
func DeleteSequenceStep(db *sql.DB, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM sequence_steps WHERE id = ?`, id.String())
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
