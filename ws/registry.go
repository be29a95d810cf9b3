package ws

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"
)

var ErrServerFull = errors.New("server is full")

// Registry keeps track of the connected clients. Client ids are the lowest free non-negative integers.
type Registry struct {
	sync.RWMutex
	clients    map[int]*Client
	maxPlayers int
}

func NewRegistry(maxPlayers int) *Registry {
	return &Registry{
		clients:    make(map[int]*Client),
		maxPlayers: maxPlayers,
	}
}

// Add assigns an id to c and registers it.
func (r *Registry) Add(c *Client) (int, error) {
	r.Lock()
	defer r.Unlock()
	if r.maxPlayers > 0 && len(r.clients) >= r.maxPlayers {
		return 0, ErrServerFull
	}
	id := 0
	for {
		if _, ok := r.clients[id]; !ok {
			break
		}
		id++
	}
	c.id = id
	r.clients[id] = c
	return id, nil
}

func (r *Registry) Remove(c *Client) {
	r.Lock()
	defer r.Unlock()
	if cur, ok := r.clients[c.id]; ok && cur == c {
		delete(r.clients, c.id)
	}
}

func (r *Registry) Get(id int) *Client {
	r.RLock()
	defer r.RUnlock()
	return r.clients[id]
}

// Clients returns all clients ordered by id.
func (r *Registry) Clients() []*Client {
	r.RLock()
	res := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		res = append(res, c)
	}
	r.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].id < res[j].id })
	return res
}

func (r *Registry) ByIPID(ipid string) []*Client {
	res := make([]*Client, 0)
	for _, c := range r.Clients() {
		if c.Session().IPID == ipid {
			res = append(res, c)
		}
	}
	return res
}

// PlayerCount counts the clients that have joined an area.
func (r *Registry) PlayerCount() int {
	n := 0
	for _, c := range r.Clients() {
		if c.Session().Joined {
			n++
		}
	}
	return n
}

// IPID derives the stable, anonymised client identifier from the remote address.
func IPID(ip, salt string) string {
	h, err := hashstructure.Hash(struct {
		IP   string
		Salt string
	}{ip, salt}, hashstructure.FormatV2, nil)
	if err != nil {
		// only possible for unsupported types
		panic(err)
	}
	return fmt.Sprintf("%016x", h)
}
