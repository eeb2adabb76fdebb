package store

// createTableHistory creates the `history` table. One row per estimation.
const createTableHistory = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY,
	estimation_id TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL,
	price REAL NOT NULL,
	grade REAL NOT NULL,
	estimated_at DATETIME NOT NULL
)
`

const createIndexHistory = `CREATE INDEX IF NOT EXISTS history_estimated_at ON history (estimated_at)`

// createTableDomains creates the `domains` table. One row per domain name,
// refreshed on every estimation.
const createTableDomains = `
CREATE TABLE IF NOT EXISTS domains (
	name TEXT PRIMARY KEY,
	tld TEXT NOT NULL,
	length INTEGER NOT NULL,
	structure TEXT NOT NULL,
	registered_at DATETIME,
	expires_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)
`

const insertIntoHistory = `
INSERT INTO history (
	estimation_id,
	domain,
	price,
	grade,
	estimated_at
) VALUES (?,?,?,?,?)
`

const upsertDomain = `
INSERT INTO domains (
	name,
	tld,
	length,
	structure,
	registered_at,
	expires_at,
	created_at,
	updated_at
) VALUES (?,?,?,?,?,?,?,?)
ON CONFLICT(name) DO UPDATE SET
	structure = excluded.structure,
	registered_at = excluded.registered_at,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at
`

const selectDomain = `SELECT * FROM domains WHERE name = ?`
