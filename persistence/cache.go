package persistence

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tcriess/lightspeed-court/types"
)

// CachedPersister caches ban lookups by IPID/HWID, which happen on every handshake. Any ban mutation purges the
// cache.
type CachedPersister struct {
	Persister
	bans *lru.Cache
}

func NewCachedPersister(p Persister, size int) (*CachedPersister, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedPersister{Persister: p, bans: cache}, nil
}

func banCacheKey(ipid, hwid string) string {
	return ipid + "|" + hwid
}

func (p *CachedPersister) GetBans(ipid, hwid string) ([]*types.Ban, error) {
	key := banCacheKey(ipid, hwid)
	if cached, ok := p.bans.Get(key); ok {
		return cached.([]*types.Ban), nil
	}
	bans, err := p.Persister.GetBans(ipid, hwid)
	if err != nil {
		return nil, err
	}
	p.bans.Add(key, bans)
	return bans, nil
}

func (p *CachedPersister) StoreBan(ban *types.Ban) error {
	defer p.bans.Purge()
	return p.Persister.StoreBan(ban)
}

func (p *CachedPersister) RevokeBan(id int) error {
	defer p.bans.Purge()
	return p.Persister.RevokeBan(id)
}

func (p *CachedPersister) DeleteExpiredBans(now time.Time) (int, error) {
	defer p.bans.Purge()
	return p.Persister.DeleteExpiredBans(now)
}
