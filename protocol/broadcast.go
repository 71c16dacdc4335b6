package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Resolver maps a nickname back to the connection currently using it.
type Resolver interface {
	UserID(nickname string) (int, bool)
}

// Broadcast is the set of lines produced by one state transition, keyed by
// the nickname of each recipient. Recipients keep the order in which they
// were first added, and a recipient never receives the same line twice.
type Broadcast struct {
	response Response

	order     []string
	responses map[string][]string
}

func newBroadcast() *Broadcast {
	return &Broadcast{
		response:  RespOkay,
		responses: make(map[string][]string),
	}
}

// Okay relays the command's canonical line to every recipient.
//
// A NICK is delivered under the new nickname, never the old one, so the
// renamed connection still receives its own confirmation.
func Okay(cmd Command, recipients []string) *Broadcast {
	b := newBroadcast()
	line := cmd.String()

	for _, recipient := range recipients {
		b.add(recipient, line)
	}

	if nick, ok := cmd.(NicknameCommand); ok {
		b.remove(nick.Sender())
		b.add(nick.NewNickname, line)
	}

	return b
}

// Error addresses `ERROR <code>` to the command's sender only.
//
// RespOkay is not an error; passing it is a programming mistake and panics.
func Error(cmd Command, resp Response) *Broadcast {
	if resp == RespOkay {
		panic("protocol: OKAY is not an error response")
	}

	b := newBroadcast()
	b.response = resp
	b.add(cmd.Sender(), fmt.Sprintf(":%s %s %d", cmd.Sender(), ERROR, resp.Code()))

	return b
}

// Connected greets a freshly registered user.
func Connected(nickname string) *Broadcast {
	b := newBroadcast()
	b.add(nickname, fmt.Sprintf(":%s %s", nickname, CONNECT))

	return b
}

// Disconnected tells recipients that nickname has gone. The departing user
// is never addressed, even if present in recipients.
func Disconnected(nickname string, recipients []string) *Broadcast {
	b := newBroadcast()
	line := fmt.Sprintf(":%s %s", nickname, QUIT)

	for _, recipient := range recipients {
		if recipient == nickname {
			continue
		}
		b.add(recipient, line)
	}

	return b
}

// Names relays a JOIN or INVITE like Okay and additionally sends the
// admitted user the channel's member listing.
func Names(cmd Admission, recipients []string, owner string) *Broadcast {
	b := Okay(cmd, recipients)

	admitted := cmd.Admitted()
	b.add(admitted, fmt.Sprintf(":%s %s %s :%s",
		admitted, NAMES, cmd.ChannelName(), NamesPayload(owner, recipients)))

	return b
}

// NamesPayload renders members sorted lexicographically and space separated,
// with the owner marked by a leading '@'.
func NamesPayload(owner string, members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)

	var payload strings.Builder
	for i, nick := range sorted {
		if i > 0 {
			payload.WriteByte(' ')
		}
		if nick == owner {
			payload.WriteByte('@')
		}
		payload.WriteString(nick)
	}

	return payload.String()
}

// Response is the outcome of the transition: RespOkay unless the broadcast
// came from Error.
func (b *Broadcast) Response() Response {
	return b.response
}

// Recipients returns the recipient nicknames in insertion order.
func (b *Broadcast) Recipients() []string {
	return append([]string(nil), b.order...)
}

// Lines returns the lines queued for nickname, in order.
func (b *Broadcast) Lines(nickname string) []string {
	return append([]string(nil), b.responses[nickname]...)
}

// Len is the number of recipients.
func (b *Broadcast) Len() int {
	return len(b.order)
}

// Resolve re-keys the broadcast by connection id. Nicknames the resolver
// does not know are dropped.
func (b *Broadcast) Resolve(r Resolver) map[int][]string {
	resolved := make(map[int][]string, len(b.order))

	for _, nick := range b.order {
		id, ok := r.UserID(nick)
		if !ok {
			continue
		}
		resolved[id] = b.Lines(nick)
	}

	return resolved
}

// Equal compares recipients and their lines, ignoring recipient order.
func (b *Broadcast) Equal(other *Broadcast) bool {
	if b == nil || other == nil {
		return b == other
	}

	if len(b.responses) != len(other.responses) {
		return false
	}

	for nick, lines := range b.responses {
		otherLines, ok := other.responses[nick]
		if !ok || len(lines) != len(otherLines) {
			return false
		}
		for i := range lines {
			if lines[i] != otherLines[i] {
				return false
			}
		}
	}

	return true
}

func (b *Broadcast) String() string {
	var s strings.Builder
	s.WriteByte('{')
	for i, nick := range b.order {
		if i > 0 {
			s.WriteString(", ")
		}
		fmt.Fprintf(&s, "%s=%q", nick, b.responses[nick])
	}
	s.WriteByte('}')

	return s.String()
}

func (b *Broadcast) add(nickname, line string) {
	lines, ok := b.responses[nickname]
	if !ok {
		b.order = append(b.order, nickname)
	}

	for _, existing := range lines {
		if existing == line {
			return
		}
	}

	b.responses[nickname] = append(lines, line)
}

func (b *Broadcast) remove(nickname string) {
	if _, ok := b.responses[nickname]; !ok {
		return
	}

	delete(b.responses, nickname)
	for i, nick := range b.order {
		if nick == nickname {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
