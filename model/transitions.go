package model

import (
	"sort"

	"github.com/luma/chatd/protocol"
	"github.com/luma/chatd/storage"
)

func (m *Model) ChangeNickname(cmd protocol.NicknameCommand) *protocol.Broadcast {
	newNickname := cmd.NewNickname

	if _, taken := m.store.UserID(newNickname); taken {
		return protocol.Error(cmd, protocol.RespNameAlreadyInUse)
	}
	if !IsValidName(newNickname) {
		return protocol.Error(cmd, protocol.RespInvalidName)
	}

	oldNickname, ok := m.store.Nickname(cmd.SenderID())
	if !ok {
		oldNickname = cmd.Sender()
	}

	recipients := newNickSet()
	for _, ch := range m.store.Channels() {
		if ch.Has(oldNickname) {
			recipients.add(ch.Members()...)
		}
		ch.Rename(oldNickname, newNickname)
	}

	m.store.PutUser(cmd.SenderID(), newNickname)

	return protocol.Okay(cmd, recipients.sorted())
}

func (m *Model) CreateChannel(cmd protocol.CreateCommand) *protocol.Broadcast {
	if _, exists := m.store.Channel(cmd.Channel); exists {
		return protocol.Error(cmd, protocol.RespChannelAlreadyExists)
	}
	if !IsValidName(cmd.Channel) {
		return protocol.Error(cmd, protocol.RespInvalidName)
	}

	m.store.PutChannel(storage.NewChannel(cmd.Channel, cmd.Sender(), cmd.InviteOnly))

	return protocol.Okay(cmd, []string{cmd.Sender()})
}

// JoinChannel only ever admits to public channels. Private channels are
// entered by invitation.
func (m *Model) JoinChannel(cmd protocol.JoinCommand) *protocol.Broadcast {
	ch, ok := m.store.Channel(cmd.Channel)
	if !ok {
		return protocol.Error(cmd, protocol.RespNoSuchChannel)
	}
	if ch.Private {
		return protocol.Error(cmd, protocol.RespJoinPrivateChannel)
	}

	ch.Add(cmd.Sender())

	return protocol.Names(cmd, ch.Members(), ch.Owner)
}

func (m *Model) SendMessage(cmd protocol.MessageCommand) *protocol.Broadcast {
	ch, ok := m.store.Channel(cmd.Channel)
	if !ok {
		return protocol.Error(cmd, protocol.RespNoSuchChannel)
	}
	if !ch.Has(cmd.Sender()) {
		return protocol.Error(cmd, protocol.RespUserNotInChannel)
	}

	return protocol.Okay(cmd, ch.Members())
}

// LeaveChannel closes the channel outright when its owner leaves.
func (m *Model) LeaveChannel(cmd protocol.LeaveCommand) *protocol.Broadcast {
	ch, ok := m.store.Channel(cmd.Channel)
	if !ok {
		return protocol.Error(cmd, protocol.RespNoSuchChannel)
	}
	if !ch.Has(cmd.Sender()) {
		return protocol.Error(cmd, protocol.RespUserNotInChannel)
	}

	recipients := ch.Members()

	if ch.Owner == cmd.Sender() {
		m.store.RemoveChannel(ch.Name)
	} else {
		ch.Remove(cmd.Sender())
	}

	return protocol.Okay(cmd, recipients)
}

func (m *Model) InviteUser(cmd protocol.InviteCommand) *protocol.Broadcast {
	ch, ok := m.store.Channel(cmd.Channel)
	if !ok {
		return protocol.Error(cmd, protocol.RespNoSuchChannel)
	}
	if _, registered := m.store.UserID(cmd.UserToInvite); !registered {
		return protocol.Error(cmd, protocol.RespNoSuchUser)
	}
	if ch.Owner != cmd.Sender() {
		return protocol.Error(cmd, protocol.RespUserNotOwner)
	}
	if !ch.Private {
		return protocol.Error(cmd, protocol.RespInviteToPublicChannel)
	}

	ch.Add(cmd.UserToInvite)

	return protocol.Names(cmd, ch.Members(), ch.Owner)
}

// KickUser checks, in order: the channel exists, the target is registered,
// the target is a member, the sender owns the channel. An owner kicking
// themself closes the channel.
func (m *Model) KickUser(cmd protocol.KickCommand) *protocol.Broadcast {
	ch, ok := m.store.Channel(cmd.Channel)
	if !ok {
		return protocol.Error(cmd, protocol.RespNoSuchChannel)
	}
	if _, registered := m.store.UserID(cmd.UserToKick); !registered {
		return protocol.Error(cmd, protocol.RespNoSuchUser)
	}
	if !ch.Has(cmd.UserToKick) {
		return protocol.Error(cmd, protocol.RespUserNotInChannel)
	}
	if ch.Owner != cmd.Sender() {
		return protocol.Error(cmd, protocol.RespUserNotOwner)
	}

	if ch.Owner == cmd.UserToKick {
		recipients := ch.Members()
		m.store.RemoveChannel(ch.Name)

		return protocol.Okay(cmd, recipients)
	}

	ch.Remove(cmd.UserToKick)

	// The kicked user hears about it even though they are no longer a member.
	return protocol.Okay(cmd, append(ch.Members(), cmd.UserToKick))
}

type nickSet map[string]struct{}

func newNickSet() nickSet {
	return make(nickSet)
}

func (s nickSet) add(nicks ...string) {
	for _, nick := range nicks {
		s[nick] = struct{}{}
	}
}

func (s nickSet) sorted() []string {
	nicks := make([]string, 0, len(s))
	for nick := range s {
		nicks = append(nicks, nick)
	}
	sort.Strings(nicks)

	return nicks
}
