package protocol

import "fmt"

type Keyword string

// Keywords a client may send.
const (
	NICK   Keyword = "NICK"
	CREATE Keyword = "CREATE"
	JOIN   Keyword = "JOIN"
	MESG   Keyword = "MESG"
	LEAVE  Keyword = "LEAVE"
	INVITE Keyword = "INVITE"
	KICK   Keyword = "KICK"
)

// Keywords only the server sends.
const (
	CONNECT Keyword = "CONNECT"
	QUIT    Keyword = "QUIT"
	NAMES   Keyword = "NAMES"
	ERROR   Keyword = "ERROR"
)

// Model is implemented by anything that can apply commands. Each command
// dispatches to exactly one of these methods from ApplyTo.
type Model interface {
	ChangeNickname(cmd NicknameCommand) *Broadcast
	CreateChannel(cmd CreateCommand) *Broadcast
	JoinChannel(cmd JoinCommand) *Broadcast
	SendMessage(cmd MessageCommand) *Broadcast
	LeaveChannel(cmd LeaveCommand) *Broadcast
	InviteUser(cmd InviteCommand) *Broadcast
	KickUser(cmd KickCommand) *Broadcast
}

// Command is a parsed client request. The set of implementations is closed:
// the unexported method keeps other packages from adding variants.
type Command interface {
	SenderID() int
	Sender() string
	Keyword() Keyword

	// ApplyTo hands the command to the matching Model transition.
	ApplyTo(m Model) *Broadcast

	// String renders the canonical wire line, prefixed with the sender.
	String() string

	withoutID() Command
}

// Admission is a command that adds a user to a channel. The admitted user
// is sent a NAMES listing alongside the command itself.
type Admission interface {
	Command
	ChannelName() string
	Admitted() string
}

// Equal reports whether two commands carry the same sender nickname, variant
// and fields. Connection ids are not compared as they never reach the wire.
func Equal(a, b Command) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.withoutID() == b.withoutID()
}

type origin struct {
	senderID int
	sender   string
}

func (o origin) SenderID() int {
	return o.senderID
}

func (o origin) Sender() string {
	return o.sender
}

type NicknameCommand struct {
	origin
	NewNickname string
}

func NewNicknameCommand(senderID int, sender, newNickname string) NicknameCommand {
	return NicknameCommand{origin: origin{senderID, sender}, NewNickname: newNickname}
}

func (c NicknameCommand) Keyword() Keyword {
	return NICK
}

func (c NicknameCommand) ApplyTo(m Model) *Broadcast {
	return m.ChangeNickname(c)
}

func (c NicknameCommand) String() string {
	return fmt.Sprintf(":%s NICK %s", c.sender, c.NewNickname)
}

func (c NicknameCommand) withoutID() Command {
	c.senderID = 0
	return c
}

type CreateCommand struct {
	origin
	Channel    string
	InviteOnly bool
}

func NewCreateCommand(senderID int, sender, channel string, inviteOnly bool) CreateCommand {
	return CreateCommand{origin: origin{senderID, sender}, Channel: channel, InviteOnly: inviteOnly}
}

func (c CreateCommand) Keyword() Keyword {
	return CREATE
}

func (c CreateCommand) ApplyTo(m Model) *Broadcast {
	return m.CreateChannel(c)
}

func (c CreateCommand) String() string {
	flag := 0
	if c.InviteOnly {
		flag = 1
	}

	return fmt.Sprintf(":%s CREATE %s %d", c.sender, c.Channel, flag)
}

func (c CreateCommand) withoutID() Command {
	c.senderID = 0
	return c
}

type JoinCommand struct {
	origin
	Channel string
}

func NewJoinCommand(senderID int, sender, channel string) JoinCommand {
	return JoinCommand{origin: origin{senderID, sender}, Channel: channel}
}

func (c JoinCommand) Keyword() Keyword {
	return JOIN
}

func (c JoinCommand) ApplyTo(m Model) *Broadcast {
	return m.JoinChannel(c)
}

func (c JoinCommand) String() string {
	return fmt.Sprintf(":%s JOIN %s", c.sender, c.Channel)
}

func (c JoinCommand) ChannelName() string {
	return c.Channel
}

// Admitted is the joining user.
func (c JoinCommand) Admitted() string {
	return c.sender
}

func (c JoinCommand) withoutID() Command {
	c.senderID = 0
	return c
}

type MessageCommand struct {
	origin
	Channel string
	Message string
}

func NewMessageCommand(senderID int, sender, channel, message string) MessageCommand {
	return MessageCommand{origin: origin{senderID, sender}, Channel: channel, Message: message}
}

func (c MessageCommand) Keyword() Keyword {
	return MESG
}

func (c MessageCommand) ApplyTo(m Model) *Broadcast {
	return m.SendMessage(c)
}

func (c MessageCommand) String() string {
	return fmt.Sprintf(":%s MESG %s :%s", c.sender, c.Channel, c.Message)
}

func (c MessageCommand) withoutID() Command {
	c.senderID = 0
	return c
}

type LeaveCommand struct {
	origin
	Channel string
}

func NewLeaveCommand(senderID int, sender, channel string) LeaveCommand {
	return LeaveCommand{origin: origin{senderID, sender}, Channel: channel}
}

func (c LeaveCommand) Keyword() Keyword {
	return LEAVE
}

func (c LeaveCommand) ApplyTo(m Model) *Broadcast {
	return m.LeaveChannel(c)
}

func (c LeaveCommand) String() string {
	return fmt.Sprintf(":%s LEAVE %s", c.sender, c.Channel)
}

func (c LeaveCommand) withoutID() Command {
	c.senderID = 0
	return c
}

type InviteCommand struct {
	origin
	Channel      string
	UserToInvite string
}

func NewInviteCommand(senderID int, sender, channel, userToInvite string) InviteCommand {
	return InviteCommand{origin: origin{senderID, sender}, Channel: channel, UserToInvite: userToInvite}
}

func (c InviteCommand) Keyword() Keyword {
	return INVITE
}

func (c InviteCommand) ApplyTo(m Model) *Broadcast {
	return m.InviteUser(c)
}

func (c InviteCommand) String() string {
	return fmt.Sprintf(":%s INVITE %s %s", c.sender, c.Channel, c.UserToInvite)
}

func (c InviteCommand) ChannelName() string {
	return c.Channel
}

// Admitted is the invited user, not the sender.
func (c InviteCommand) Admitted() string {
	return c.UserToInvite
}

func (c InviteCommand) withoutID() Command {
	c.senderID = 0
	return c
}

type KickCommand struct {
	origin
	Channel    string
	UserToKick string
}

func NewKickCommand(senderID int, sender, channel, userToKick string) KickCommand {
	return KickCommand{origin: origin{senderID, sender}, Channel: channel, UserToKick: userToKick}
}

func (c KickCommand) Keyword() Keyword {
	return KICK
}

func (c KickCommand) ApplyTo(m Model) *Broadcast {
	return m.KickUser(c)
}

func (c KickCommand) String() string {
	return fmt.Sprintf(":%s KICK %s %s", c.sender, c.Channel, c.UserToKick)
}

func (c KickCommand) withoutID() Command {
	c.senderID = 0
	return c
}

var _ Command = NicknameCommand{}
var _ Command = CreateCommand{}
var _ Command = JoinCommand{}
var _ Command = MessageCommand{}
var _ Command = LeaveCommand{}
var _ Command = InviteCommand{}
var _ Command = KickCommand{}

var _ Admission = JoinCommand{}
var _ Admission = InviteCommand{}
