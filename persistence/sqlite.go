package persistence

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/types"
)

type SQLitePersist struct {
	sqlPersist
}

func NewSQLitePersister(cfg *config.Config) (Persister, error) {
	db, err := setupSQLiteDB(cfg.PersistenceConfig.DSN)
	if err != nil {
		return nil, err
	}
	return &SQLitePersist{sqlPersist{
		db:        db,
		insertBan: insertSQLiteBan,
		upsertUser: `INSERT INTO users (username,password_hash,role,email,created_at) VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (username) DO UPDATE SET password_hash=EXCLUDED.password_hash,role=EXCLUDED.role,email=EXCLUDED.email;`,
	}}, nil
}

func setupSQLiteDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// one connection, otherwise every pooled connection of ":memory:" is its own database
	db.SetMaxOpenConns(1)
	err = execAll(db, `CREATE TABLE IF NOT EXISTS users (
username TEXT PRIMARY KEY,
password_hash TEXT DEFAULT "" NOT NULL,
role TEXT DEFAULT "" NOT NULL,
email TEXT DEFAULT "" NOT NULL,
created_at INTEGER DEFAULT 0 NOT NULL
);`, `CREATE INDEX IF NOT EXISTS users_email_idx ON users (email);`,
		`CREATE TABLE IF NOT EXISTS bans (
id INTEGER PRIMARY KEY AUTOINCREMENT,
ipid TEXT DEFAULT "" NOT NULL,
hwid TEXT DEFAULT "" NOT NULL,
ip TEXT DEFAULT "" NOT NULL,
time INTEGER DEFAULT 0 NOT NULL,
reason TEXT DEFAULT "" NOT NULL,
duration INTEGER DEFAULT 0 NOT NULL,
moderator TEXT DEFAULT "" NOT NULL,
revoked BOOLEAN DEFAULT 0 NOT NULL
);`, `CREATE INDEX IF NOT EXISTS bans_ipid_idx ON bans (ipid);`,
		`CREATE INDEX IF NOT EXISTS bans_hwid_idx ON bans (hwid);`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func insertSQLiteBan(db *sql.DB, ban *types.Ban) (int, error) {
	res, err := db.Exec(`INSERT INTO bans (ipid,hwid,ip,time,reason,duration,moderator,revoked) VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`,
		ban.IPID, ban.HWID, ban.IP, ban.Time.Unix(), ban.Reason, int64(ban.Duration), ban.Moderator, ban.Revoked)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}
