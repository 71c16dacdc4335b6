// Package protocol implements parsing client requests and rendering server
// replies for the line protocol chatd speaks with its clients.
//
// The protocol aims to be
//
// - easy to implement
// - human readable
// - close enough to IRC that IRC habits carry over
//
// - `Command` - A parsed client request (NICK, CREATE, JOIN, MESG, LEAVE,
//               INVITE, KICK).
// - `Broadcast` - The lines one command produces, keyed by the nickname of
//                 each recipient.
// - `Response` - The outcome of a command. Anything but OKAY is sent back
//                to the sender as an ERROR line.
//
// === General Syntax
//
// - lines are `\r\n` delimited (a bare `\n` is accepted from clients)
// - Command names are case sensitive and uppercase
// - Parameters are separated by single spaces, at most two per command
// - A parameter starting with `:` is the payload, it runs to the end of the
//   line and may contain spaces. Only MESG carries a payload.
//
// Clients send commands without a prefix. Every line the server sends is
// prefixed with the nickname of the acting user:
//
//   ```
//   > JOIN lounge
//   < :User1 JOIN lounge
//   < :User1 NAMES lounge :@User0 User1
//   ```
//
// === Client Commands
//
// - `NICK <nick>` - change nickname; relayed to everyone sharing a channel
// - `CREATE <chan> <0|1>` - create a public (0) or private (1) channel
// - `JOIN <chan>` - join a public channel
// - `MESG <chan> :<text>` - say something in a channel
// - `LEAVE <chan>` - leave a channel, the owner leaving closes it
// - `INVITE <chan> <nick>` - owner only, add a user to a private channel
// - `KICK <chan> <nick>` - owner only, remove a user from a channel
//
// === Server only lines
//
// - `:<nick> CONNECT` - sent once to a newly connected client, telling it the
//                       nickname it was given
// - `:<nick> QUIT` - a user sharing one of your channels disconnected
// - `:<nick> NAMES <chan> :<names>` - members of a channel you just entered,
//                                     sorted, the owner prefixed with `@`
// - `:<nick> ERROR <code>` - your last command was rejected
//
// === Error codes
//
//   ```
//   401 INVALID_NAME              names are letters and digits only
//   402 NO_SUCH_CHANNEL
//   403 NO_SUCH_USER
//   404 USER_NOT_IN_CHANNEL
//   406 USER_NOT_OWNER
//   407 JOIN_PRIVATE_CHANNEL      private channels are invite only
//   408 INVITE_TO_PUBLIC_CHANNEL
//   500 NAME_ALREADY_IN_USE
//   501 CHANNEL_ALREADY_EXISTS
//   ```
//
// A line that cannot be parsed gets no reply at all.
//
package protocol
