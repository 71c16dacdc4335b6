package storage

// Store holds the tables the chat model operates on: the user registry and
// the channel table.
type Store interface {
	// Nickname returns the nickname registered for a connection id.
	Nickname(id int) (string, bool)

	// UserID returns the connection id registered under a nickname.
	UserID(nickname string) (int, bool)

	// Nicknames returns every registered nickname, sorted.
	Nicknames() []string

	// PutUser registers or renames the user with the given id.
	PutUser(id int, nickname string)

	RemoveUser(id int)

	Channel(name string) (*Channel, bool)

	// Channels returns every live channel, sorted by name.
	Channels() []*Channel

	PutChannel(channel *Channel)

	RemoveChannel(name string)

	// Backup renders the tables as JSON.
	Backup() ([]byte, error)
}
