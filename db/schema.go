// ABOUTME: Database schema definitions
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft', 'active', 'paused', 'archived')),
	daily_limit INTEGER NOT NULL DEFAULT 20,
	notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);

CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	linkedin_url TEXT,
	headline TEXT,
	company TEXT,
	campaign_id TEXT,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'connected', 'contacted', 'replied', 'bounced')),
	notes TEXT,
	contacted_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign_id ON leads(campaign_id);

CREATE TABLE IF NOT EXISTS sequence_steps (
	id TEXT PRIMARY KEY,
	campaign_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('connect', 'message', 'followup')),
	body TEXT NOT NULL,
	wait_days INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sequence_steps_campaign ON sequence_steps(campaign_id, position);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
