package storage

import (
	"sort"

	"github.com/tidwall/sjson"
)

const emptyBackup = `{"users":[],"channels":[]}`

type userEntry struct {
	ID       int    `json:"id"`
	Nickname string `json:"nickname"`
}

type channelEntry struct {
	Name    string   `json:"name"`
	Owner   string   `json:"owner"`
	Private bool     `json:"private"`
	Members []string `json:"members"`
}

// InmemoryStore keeps the registry and channel table in maps. The registry
// is indexed both ways so nickname lookups do not scan.
//
// It is not safe for concurrent use; callers serialise access.
type InmemoryStore struct {
	nicknames map[int]string
	ids       map[string]int

	channels map[string]*Channel
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{
		nicknames: make(map[int]string),
		ids:       make(map[string]int),
		channels:  make(map[string]*Channel),
	}
}

func (i *InmemoryStore) Nickname(id int) (string, bool) {
	nick, ok := i.nicknames[id]
	return nick, ok
}

func (i *InmemoryStore) UserID(nickname string) (int, bool) {
	id, ok := i.ids[nickname]
	return id, ok
}

func (i *InmemoryStore) Nicknames() []string {
	nicks := make([]string, 0, len(i.ids))
	for nick := range i.ids {
		nicks = append(nicks, nick)
	}
	sort.Strings(nicks)

	return nicks
}

func (i *InmemoryStore) PutUser(id int, nickname string) {
	if old, ok := i.nicknames[id]; ok {
		delete(i.ids, old)
	}

	i.nicknames[id] = nickname
	i.ids[nickname] = id
}

func (i *InmemoryStore) RemoveUser(id int) {
	if nick, ok := i.nicknames[id]; ok {
		delete(i.ids, nick)
		delete(i.nicknames, id)
	}
}

func (i *InmemoryStore) Channel(name string) (*Channel, bool) {
	ch, ok := i.channels[name]
	return ch, ok
}

func (i *InmemoryStore) Channels() []*Channel {
	channels := make([]*Channel, 0, len(i.channels))
	for _, ch := range i.channels {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(a, b int) bool {
		return channels[a].Name < channels[b].Name
	})

	return channels
}

func (i *InmemoryStore) PutChannel(channel *Channel) {
	i.channels[channel.Name] = channel
}

func (i *InmemoryStore) RemoveChannel(name string) {
	delete(i.channels, name)
}

// Backup renders
//
//   {"users":[{"id":1,"nickname":"User0"}],
//    "channels":[{"name":"lounge","owner":"User0","private":false,"members":["User0"]}]}
//
// with users ordered by id and channels by name.
func (i *InmemoryStore) Backup() (data []byte, err error) {
	data = []byte(emptyBackup)

	ids := make([]int, 0, len(i.nicknames))
	for id := range i.nicknames {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		data, err = sjson.SetBytes(data, "users.-1", userEntry{ID: id, Nickname: i.nicknames[id]})
		if err != nil {
			return nil, err
		}
	}

	for _, ch := range i.Channels() {
		data, err = sjson.SetBytes(data, "channels.-1", channelEntry{
			Name:    ch.Name,
			Owner:   ch.Owner,
			Private: ch.Private,
			Members: ch.Members(),
		})
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}

var _ Store = (*InmemoryStore)(nil)
