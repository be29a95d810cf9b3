package persistence

import (
	"database/sql"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/types"
)

// sqlPersist implements Persister on database/sql. The dialect specific parts (DDL and id generation) live in
// SQLitePersist and PostgresPersist. Both dialects accept $n placeholders.
type sqlPersist struct {
	db         *sql.DB
	insertBan  func(*sql.DB, *types.Ban) (int, error)
	upsertUser string
}

const banColumns = `id,ipid,hwid,ip,time,reason,duration,moderator,revoked`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBan(row scanner) (*types.Ban, error) {
	ban := &types.Ban{}
	var ts int64
	var duration int64
	err := row.Scan(&ban.Id, &ban.IPID, &ban.HWID, &ban.IP, &ts, &ban.Reason, &duration, &ban.Moderator, &ban.Revoked)
	if err != nil {
		return nil, err
	}
	ban.Time = time.Unix(ts, 0)
	ban.Duration = time.Duration(duration)
	return ban, nil
}

func (p *sqlPersist) queryBans(query string, args ...interface{}) ([]*types.Ban, error) {
	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bans := make([]*types.Ban, 0)
	for rows.Next() {
		ban, err := scanBan(rows)
		if err != nil {
			return nil, err
		}
		bans = append(bans, ban)
	}
	return bans, rows.Err()
}

func (p *sqlPersist) StoreBan(ban *types.Ban) error {
	id, err := p.insertBan(p.db, ban)
	if err != nil {
		return err
	}
	ban.Id = id
	return nil
}

func (p *sqlPersist) GetBan(id int) (*types.Ban, error) {
	ban, err := scanBan(p.db.QueryRow(`SELECT `+banColumns+` FROM bans WHERE id=$1;`, id))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "ban %d", id)
	}
	return ban, err
}

func (p *sqlPersist) GetBans(ipid, hwid string) ([]*types.Ban, error) {
	if ipid == "" && hwid == "" {
		return []*types.Ban{}, nil
	}
	return p.queryBans(`SELECT `+banColumns+` FROM bans WHERE ($1<>'' AND ipid=$1) OR ($2<>'' AND hwid=$2) ORDER BY id;`, ipid, hwid)
}

func (p *sqlPersist) ListBans() ([]*types.Ban, error) {
	return p.queryBans(`SELECT ` + banColumns + ` FROM bans ORDER BY id;`)
}

func (p *sqlPersist) RevokeBan(id int) error {
	res, err := p.db.Exec(`UPDATE bans SET revoked=$1 WHERE id=$2;`, true, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "ban %d", id)
	}
	return nil
}

func (p *sqlPersist) DeleteExpiredBans(now time.Time) (int, error) {
	bans, err := p.ListBans()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, ban := range bans {
		if !expired(ban, now) {
			continue
		}
		if _, err := p.db.Exec(`DELETE FROM bans WHERE id=$1;`, ban.Id); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (p *sqlPersist) StoreUser(user types.User) error {
	_, err := p.db.Exec(p.upsertUser, user.Username, user.PasswordHash, user.Role, user.Email, user.CreatedAt.Unix())
	return err
}

const userColumns = `username,password_hash,role,email,created_at`

func scanUser(row scanner) (*types.User, error) {
	user := &types.User{}
	var created int64
	if err := row.Scan(&user.Username, &user.PasswordHash, &user.Role, &user.Email, &created); err != nil {
		return nil, err
	}
	user.CreatedAt = time.Unix(created, 0)
	return user, nil
}

func (p *sqlPersist) GetUser(username string) (*types.User, error) {
	user, err := scanUser(p.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username=$1;`, username))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "user %s", username)
	}
	return user, err
}

func (p *sqlPersist) GetUserByEmail(email string) (*types.User, error) {
	user, err := scanUser(p.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email=$1 LIMIT 1;`, email))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "user with email %s", email)
	}
	return user, err
}

func (p *sqlPersist) GetUsers() ([]*types.User, error) {
	rows, err := p.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY username;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]*types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (p *sqlPersist) DeleteUser(username string) error {
	res, err := p.db.Exec(`DELETE FROM users WHERE username=$1;`, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", username)
	}
	return nil
}

func (p *sqlPersist) Close() error {
	return p.db.Close()
}

func execAll(db *sql.DB, queries ...string) error {
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func sortBans(bans []*types.Ban) {
	sort.Slice(bans, func(i, j int) bool { return bans[i].Id < bans[j].Id })
}
