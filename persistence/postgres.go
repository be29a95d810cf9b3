package persistence

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/types"
)

type PostgresPersist struct {
	sqlPersist
}

func NewPostgresPersister(cfg *config.Config) (Persister, error) {
	db, err := setupPostgresDB(cfg.PersistenceConfig.DSN)
	if err != nil {
		return nil, err
	}
	return &PostgresPersist{sqlPersist{
		db:        db,
		insertBan: insertPostgresBan,
		upsertUser: `INSERT INTO users (username,password_hash,role,email,created_at) VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (username) DO UPDATE SET password_hash=EXCLUDED.password_hash,role=EXCLUDED.role,email=EXCLUDED.email;`,
	}}, nil
}

func setupPostgresDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	err = execAll(db, `CREATE TABLE IF NOT EXISTS users (
username TEXT PRIMARY KEY,
password_hash TEXT DEFAULT '' NOT NULL,
role TEXT DEFAULT '' NOT NULL,
email TEXT DEFAULT '' NOT NULL,
created_at BIGINT DEFAULT 0 NOT NULL
);`, `CREATE INDEX IF NOT EXISTS users_email_idx ON users (email);`,
		`CREATE TABLE IF NOT EXISTS bans (
id SERIAL PRIMARY KEY,
ipid TEXT DEFAULT '' NOT NULL,
hwid TEXT DEFAULT '' NOT NULL,
ip TEXT DEFAULT '' NOT NULL,
time BIGINT DEFAULT 0 NOT NULL,
reason TEXT DEFAULT '' NOT NULL,
duration BIGINT DEFAULT 0 NOT NULL,
moderator TEXT DEFAULT '' NOT NULL,
revoked BOOLEAN DEFAULT false NOT NULL
);`, `CREATE INDEX IF NOT EXISTS bans_ipid_idx ON bans (ipid);`,
		`CREATE INDEX IF NOT EXISTS bans_hwid_idx ON bans (hwid);`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func insertPostgresBan(db *sql.DB, ban *types.Ban) (int, error) {
	var id int
	err := db.QueryRow(`INSERT INTO bans (ipid,hwid,ip,time,reason,duration,moderator,revoked) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id;`,
		ban.IPID, ban.HWID, ban.IP, ban.Time.Unix(), ban.Reason, int64(ban.Duration), ban.Moderator, ban.Revoked).Scan(&id)
	return id, err
}
