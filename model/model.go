// Package model holds the authoritative chat state and the transitions that
// commands drive it through.
//
// A Model is not safe for concurrent use. Every transition validates fully
// before it mutates anything, so a rejected command leaves the state as it
// was; callers only need to make each call exclusive.
package model

import (
	"strconv"
	"unicode"

	"github.com/luma/chatd/protocol"
	"github.com/luma/chatd/storage"
)

const nicknamePrefix = "User"

type Model struct {
	store storage.Store
}

// New creates a model over store. A nil store gets a fresh in-memory one.
func New(store storage.Store) *Model {
	if store == nil {
		store = storage.NewInmemoryStore()
	}

	return &Model{store: store}
}

// Apply runs the transition matching cmd.
func (m *Model) Apply(cmd protocol.Command) *protocol.Broadcast {
	return cmd.ApplyTo(m)
}

// IsValidName reports whether name can be used as a nickname or channel
// name: non-empty, letters and digits only.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

func (m *Model) UserID(nickname string) (int, bool) {
	return m.store.UserID(nickname)
}

func (m *Model) Nickname(id int) (string, bool) {
	return m.store.Nickname(id)
}

// RegisteredUsers returns every registered nickname, sorted.
func (m *Model) RegisteredUsers() []string {
	return m.store.Nicknames()
}

// Channels returns the names of all live channels, sorted.
func (m *Model) Channels() []string {
	channels := m.store.Channels()

	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, ch.Name)
	}

	return names
}

// UsersInChannel returns the members of a channel, sorted. An unknown
// channel has no members.
func (m *Model) UsersInChannel(name string) []string {
	ch, ok := m.store.Channel(name)
	if !ok {
		return []string{}
	}

	return ch.Members()
}

func (m *Model) Owner(name string) (string, bool) {
	ch, ok := m.store.Channel(name)
	if !ok {
		return "", false
	}

	return ch.Owner, true
}

// IsPrivate reports whether a live channel is invite only.
func (m *Model) IsPrivate(name string) bool {
	ch, ok := m.store.Channel(name)
	return ok && ch.Private
}

// Snapshot renders the registry and channel table as JSON.
func (m *Model) Snapshot() ([]byte, error) {
	return m.store.Backup()
}

// RegisterUser gives connection id the lowest free User<N> nickname.
func (m *Model) RegisterUser(id int) *protocol.Broadcast {
	nickname := m.freeNickname()
	m.store.PutUser(id, nickname)

	return protocol.Connected(nickname)
}

func (m *Model) freeNickname() string {
	for suffix := 0; ; suffix++ {
		nickname := nicknamePrefix + strconv.Itoa(suffix)
		if _, taken := m.store.UserID(nickname); !taken {
			return nickname
		}
	}
}

// DeregisterUser forgets connection id. Channels the user owned are closed;
// in all others the user is dropped from the members. Everyone who shared a
// channel with the user is told they quit.
func (m *Model) DeregisterUser(id int) *protocol.Broadcast {
	nickname, ok := m.store.Nickname(id)
	if !ok {
		return protocol.Disconnected("", nil)
	}

	recipients := newNickSet()
	for _, ch := range m.store.Channels() {
		if !ch.Has(nickname) {
			continue
		}

		recipients.add(ch.Members()...)

		if ch.Owner == nickname {
			m.store.RemoveChannel(ch.Name)
		} else {
			ch.Remove(nickname)
		}
	}

	m.store.RemoveUser(id)

	return protocol.Disconnected(nickname, recipients.sorted())
}

var _ protocol.Model = (*Model)(nil)
var _ protocol.Resolver = (*Model)(nil)
