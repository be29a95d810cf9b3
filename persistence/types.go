package persistence

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/types"
)

// ErrNotFound is returned (possibly wrapped) when a user or ban does not exist.
var ErrNotFound = errors.New("not found")

type Persister interface {
	// StoreBan inserts a new ban and sets its Id.
	StoreBan(*types.Ban) error
	GetBan(id int) (*types.Ban, error)
	// GetBans returns all bans, revoked or expired ones included, matching the IPID or the HWID.
	GetBans(ipid, hwid string) ([]*types.Ban, error)
	ListBans() ([]*types.Ban, error)
	RevokeBan(id int) error
	// DeleteExpiredBans removes expired and revoked bans and returns how many were removed.
	DeleteExpiredBans(now time.Time) (int, error)

	StoreUser(types.User) error
	GetUser(username string) (*types.User, error)
	GetUserByEmail(email string) (*types.User, error)
	GetUsers() ([]*types.User, error)
	DeleteUser(username string) error

	Close() error
}

// NewPersister opens the configured backend. It returns nil without error if persistence is not configured.
func NewPersister(cfg *config.Config) (Persister, error) {
	pc := cfg.PersistenceConfig
	if pc.DSN == "" {
		return nil, nil
	}
	var p Persister
	var err error
	switch strings.ToLower(pc.Type) {
	case "", "buntdb":
		p, err = NewBuntPersister(cfg)
	case "gorm-sqlite", "gorm-postgres":
		p, err = NewGormPersister(cfg)
	case "sqlite", "sqlite3":
		p, err = NewSQLitePersister(cfg)
	case "postgres":
		p, err = NewPostgresPersister(cfg)
	default:
		return nil, fmt.Errorf("unknown persistence type %q", pc.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s persistence", pc.Type)
	}
	if pc.CacheSize > 0 {
		return NewCachedPersister(p, pc.CacheSize)
	}
	return p, nil
}

// ActiveBan returns the first ban in effect for the IPID or HWID, or nil.
func ActiveBan(p Persister, ipid, hwid string, now time.Time) (*types.Ban, error) {
	if p == nil {
		return nil, nil
	}
	bans, err := p.GetBans(ipid, hwid)
	if err != nil {
		return nil, err
	}
	for _, ban := range bans {
		if ban.Active(now) {
			return ban, nil
		}
	}
	return nil, nil
}

func expired(ban *types.Ban, now time.Time) bool {
	return ban.Revoked || (ban.Duration != types.PermanentBan && !ban.Active(now))
}
