package decisionlog

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL DEFAULT '',
	pattern TEXT NOT NULL DEFAULT '',
	regime TEXT NOT NULL DEFAULT '',
	score REAL NOT NULL DEFAULT 0,
	prob REAL NOT NULL DEFAULT 0,
	admitted INTEGER NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	context_json TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_decisions_asset_ts ON decisions (asset, ts);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}
