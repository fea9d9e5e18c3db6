package store

// Schema contains the DDL for the pick history.
const Schema = `
-- One row per synthesized locator: the page, how the target was named,
-- the full result and its ancestry.
CREATE TABLE IF NOT EXISTS picks (
    id          TEXT PRIMARY KEY,
    page_url    TEXT NOT NULL DEFAULT '',
    target      TEXT NOT NULL,
    source      TEXT NOT NULL DEFAULT 'html',
    primary_loc TEXT NOT NULL,
    strategy    TEXT NOT NULL,
    result      TEXT NOT NULL,
    ancestry    TEXT NOT NULL DEFAULT '[]',
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_picks_page ON picks(page_url, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_picks_time ON picks(created_at DESC);
`
