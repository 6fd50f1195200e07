package sqlite

// Schema creates the tables the live hub reads and writes. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS streams (
	id               TEXT PRIMARY KEY,
	user_id          INTEGER NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'idle',
	started_at       DATETIME,
	ended_at         DATETIME,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	viewers_count    INTEGER NOT NULL DEFAULT 0,
	peak_viewers     INTEGER NOT NULL DEFAULT 0,
	total_views      INTEGER NOT NULL DEFAULT 0,
	total_tips       INTEGER NOT NULL DEFAULT 0 CHECK (total_tips >= 0),
	likes            INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	stream_id    TEXT NOT NULL,
	user_id      INTEGER,
	display_name TEXT NOT NULL,
	content      TEXT NOT NULL,
	kind         TEXT NOT NULL DEFAULT 'text',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (stream_id) REFERENCES streams(id)
);

CREATE TABLE IF NOT EXISTS tips (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	stream_id  TEXT NOT NULL,
	user_id    INTEGER NOT NULL,
	amount     INTEGER NOT NULL CHECK (amount > 0),
	message    TEXT NOT NULL DEFAULT '',
	is_public  BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (stream_id) REFERENCES streams(id)
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_stream ON chat_messages(stream_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tips_stream ON tips(stream_id);
`
