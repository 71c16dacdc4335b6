package storage

import "sort"

// Channel is a named chat room with an owner and a set of members.
type Channel struct {
	Name    string
	Owner   string
	Private bool

	members map[string]struct{}
}

// NewChannel creates a channel whose only member is its owner.
func NewChannel(name, owner string, private bool) *Channel {
	return &Channel{
		Name:    name,
		Owner:   owner,
		Private: private,
		members: map[string]struct{}{owner: {}},
	}
}

func (c *Channel) Has(nickname string) bool {
	_, ok := c.members[nickname]
	return ok
}

func (c *Channel) Add(nickname string) {
	c.members[nickname] = struct{}{}
}

func (c *Channel) Remove(nickname string) {
	delete(c.members, nickname)
}

// Rename replaces a member, and the owner if it is them, with a new nickname.
func (c *Channel) Rename(from, to string) {
	if c.Has(from) {
		c.Remove(from)
		c.Add(to)
	}

	if c.Owner == from {
		c.Owner = to
	}
}

// Members returns the member nicknames, sorted.
func (c *Channel) Members() []string {
	members := make([]string, 0, len(c.members))
	for nick := range c.members {
		members = append(members, nick)
	}
	sort.Strings(members)

	return members
}

func (c *Channel) Len() int {
	return len(c.members)
}
