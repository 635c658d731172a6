package store

// AUTOINCREMENT keeps entry ids monotonic and never reused for the life of
// the database, even after deletes.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at  TEXT NOT NULL,
    amount      TEXT NOT NULL,
    note        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS settings (
    key           TEXT PRIMARY KEY,
    anonymous_id  TEXT NOT NULL DEFAULT '',
    daily_budget  TEXT NOT NULL,
    start_amount  TEXT NOT NULL,
    start_date    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`
