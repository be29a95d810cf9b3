package persistence

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/types"
	"github.com/tidwall/buntdb"
)

const banSeqKey = "seq:ban"

type BuntDBPersist struct {
	db *buntdb.DB
}

func NewBuntPersister(cfg *config.Config) (Persister, error) {
	db, err := setupBuntDB(cfg.PersistenceConfig.DSN)
	if err != nil {
		return nil, err
	}
	return &BuntDBPersist{db}, nil
}

// setupBuntDB opens the database file, ":memory:" opens an in-memory database.
func setupBuntDB(fileName string) (*buntdb.DB, error) {
	db, err := buntdb.Open(fileName)
	if err != nil {
		return nil, err
	}
	for name, idx := range map[string][2]string{
		"ban_ipid":   {"ban:*", "ipid"},
		"ban_hwid":   {"ban:*", "hwid"},
		"user_email": {"user:*", "email"},
	} {
		err = db.CreateIndex(name, idx[0], buntdb.IndexJSON(idx[1]))
		if err != nil && err != buntdb.ErrIndexExists {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func banKey(id int) string {
	return "ban:" + strconv.Itoa(id)
}

// banOptions lets buntdb expire temporary bans on its own. Revoked or already expired bans are kept until the next
// sweep.
func banOptions(ban *types.Ban) *buntdb.SetOptions {
	if ban.Duration == types.PermanentBan {
		return nil
	}
	ttl := time.Until(ban.Expires())
	if ttl <= 0 {
		return nil
	}
	return &buntdb.SetOptions{Expires: true, TTL: ttl}
}

func (p *BuntDBPersist) StoreBan(ban *types.Ban) error {
	return p.db.Update(func(tx *buntdb.Tx) error {
		next := 1
		if cur, err := tx.Get(banSeqKey); err == nil {
			n, err := strconv.Atoi(cur)
			if err != nil {
				return errors.Wrap(err, "corrupt ban sequence")
			}
			next = n + 1
		} else if err != buntdb.ErrNotFound {
			return err
		}
		if _, _, err := tx.Set(banSeqKey, strconv.Itoa(next), nil); err != nil {
			return err
		}
		ban.Id = next
		b, err := json.Marshal(ban)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(banKey(ban.Id), string(b), banOptions(ban))
		return err
	})
}

func (p *BuntDBPersist) GetBan(id int) (*types.Ban, error) {
	ban := &types.Ban{}
	err := p.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(banKey(id))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), ban)
	})
	if err == buntdb.ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "ban %d", id)
	}
	if err != nil {
		return nil, err
	}
	return ban, nil
}

func (p *BuntDBPersist) GetBans(ipid, hwid string) ([]*types.Ban, error) {
	bans := make([]*types.Ban, 0)
	seen := make(map[int]struct{})
	err := p.db.View(func(tx *buntdb.Tx) error {
		collect := func(key, val string) bool {
			ban := &types.Ban{}
			if err := json.Unmarshal([]byte(val), ban); err != nil {
				globals.AppLogger.Error("could not unmarshal ban", "key", key, "error", err)
				return true
			}
			if _, ok := seen[ban.Id]; !ok {
				seen[ban.Id] = struct{}{}
				bans = append(bans, ban)
			}
			return true
		}
		if ipid != "" {
			pivot, _ := json.Marshal(map[string]string{"ipid": ipid})
			if err := tx.AscendEqual("ban_ipid", string(pivot), collect); err != nil {
				return err
			}
		}
		if hwid != "" {
			pivot, _ := json.Marshal(map[string]string{"hwid": hwid})
			if err := tx.AscendEqual("ban_hwid", string(pivot), collect); err != nil {
				return err
			}
		}
		return nil
	})
	return bans, err
}

func (p *BuntDBPersist) ListBans() ([]*types.Ban, error) {
	bans := make([]*types.Ban, 0)
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("ban:*", func(key, val string) bool {
			ban := &types.Ban{}
			if err := json.Unmarshal([]byte(val), ban); err == nil {
				bans = append(bans, ban)
			}
			return true
		})
	})
	sortBans(bans)
	return bans, err
}

func (p *BuntDBPersist) RevokeBan(id int) error {
	err := p.db.Update(func(tx *buntdb.Tx) error {
		val, err := tx.Get(banKey(id))
		if err != nil {
			return err
		}
		ban := &types.Ban{}
		if err := json.Unmarshal([]byte(val), ban); err != nil {
			return err
		}
		ban.Revoked = true
		b, err := json.Marshal(ban)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(banKey(id), string(b), banOptions(ban))
		return err
	})
	if err == buntdb.ErrNotFound {
		return errors.Wrapf(ErrNotFound, "ban %d", id)
	}
	return err
}

func (p *BuntDBPersist) DeleteExpiredBans(now time.Time) (int, error) {
	count := 0
	err := p.db.Update(func(tx *buntdb.Tx) error {
		keys := make([]string, 0)
		err := tx.AscendKeys("ban:*", func(key, val string) bool {
			ban := &types.Ban{}
			if err := json.Unmarshal([]byte(val), ban); err == nil && expired(ban, now) {
				keys = append(keys, key)
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && err != buntdb.ErrNotFound {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func (p *BuntDBPersist) StoreUser(user types.User) error {
	u, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set("user:"+user.Username, string(u), nil)
		return err
	})
}

func (p *BuntDBPersist) GetUser(username string) (*types.User, error) {
	if username == "" {
		return nil, errors.New("no username")
	}
	user := &types.User{}
	err := p.db.View(func(tx *buntdb.Tx) error {
		u, err := tx.Get("user:" + username)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(u), user)
	})
	if err == buntdb.ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "user %s", username)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (p *BuntDBPersist) GetUserByEmail(email string) (*types.User, error) {
	var user *types.User
	pivot, _ := json.Marshal(map[string]string{"email": email})
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendEqual("user_email", string(pivot), func(key, val string) bool {
			u := &types.User{}
			if err := json.Unmarshal([]byte(val), u); err != nil {
				return true
			}
			user = u
			return false
		})
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Wrapf(ErrNotFound, "user with email %s", email)
	}
	return user, nil
}

func (p *BuntDBPersist) GetUsers() ([]*types.User, error) {
	users := make([]*types.User, 0)
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("user:*", func(key, val string) bool {
			u := &types.User{}
			if err := json.Unmarshal([]byte(val), u); err == nil {
				users = append(users, u)
			}
			return true
		})
	})
	return users, err
}

func (p *BuntDBPersist) DeleteUser(username string) error {
	err := p.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete("user:" + username)
		return err
	})
	if err == buntdb.ErrNotFound {
		return errors.Wrapf(ErrNotFound, "user %s", username)
	}
	return err
}

func (p *BuntDBPersist) Close() error {
	return p.db.Close()
}
