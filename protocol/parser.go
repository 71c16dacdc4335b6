package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyLine          = errors.New("Request is empty")
	ErrUnknownCommand     = errors.New("Unknown command could not be parsed")
	ErrMalformedLine      = errors.New("Request is malformed, it contains an empty token or a payload before the command")
	ErrTooManyParameters  = errors.New("Request has too many parameters")
	ErrMissingParameter   = errors.New("Request is missing a required parameter")
	ErrMissingPayload     = errors.New("MESG command is missing its ':' payload")
	ErrUnexpectedPayload  = errors.New("Only MESG commands may carry a ':' payload")
	ErrInvalidPrivacyFlag = errors.New("CREATE command privacy flag must be 0 or 1")
)

const maxParameters = 2

var keywords = map[Keyword]struct{}{
	NICK:   {},
	CREATE: {},
	JOIN:   {},
	MESG:   {},
	LEAVE:  {},
	INVITE: {},
	KICK:   {},
}

// Parse turns a single request line from the client identified by senderID
// (currently known as sender) into a Command.
//
// The line is a keyword followed by up to two space delimited parameters.
// A token starting with ':' begins the payload, which runs verbatim to the
// end of the line.
//
//   JOIN lounge
//   CREATE lounge 1
//   MESG lounge :hello there
//
// A failed parse never yields a command; the returned error wraps one of the
// Err* values above.
func Parse(senderID int, sender, line string) (Command, error) {
	line = strings.TrimSuffix(line, "\r")

	keyword, params, payload, hasPayload, err := tokenize(line)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
	}

	if hasPayload && keyword != MESG {
		return nil, fmt.Errorf("Failed to parse '%s': %w", line, ErrUnexpectedPayload)
	}

	switch keyword {
	case NICK:
		if err := expectParams(params, 1); err != nil {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
		}
		return NewNicknameCommand(senderID, sender, params[0]), nil

	case CREATE:
		if err := expectParams(params, 2); err != nil {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
		}

		var inviteOnly bool
		switch params[1] {
		case "1":
			inviteOnly = true
		case "0":
			inviteOnly = false
		default:
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, ErrInvalidPrivacyFlag)
		}
		return NewCreateCommand(senderID, sender, params[0], inviteOnly), nil

	case JOIN:
		if err := expectParams(params, 1); err != nil {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
		}
		return NewJoinCommand(senderID, sender, params[0]), nil

	case MESG:
		if err := expectParams(params, 1); err != nil {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
		}
		if !hasPayload {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, ErrMissingPayload)
		}
		return NewMessageCommand(senderID, sender, params[0], payload), nil

	case LEAVE:
		if err := expectParams(params, 1); err != nil {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
		}
		return NewLeaveCommand(senderID, sender, params[0]), nil

	case INVITE:
		if err := expectParams(params, 2); err != nil {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
		}
		return NewInviteCommand(senderID, sender, params[0], params[1]), nil

	case KICK:
		if err := expectParams(params, 2); err != nil {
			return nil, fmt.Errorf("Failed to parse '%s': %w", line, err)
		}
		return NewKickCommand(senderID, sender, params[0], params[1]), nil

	default:
		return nil, fmt.Errorf("Failed to parse '%s': %w", line, ErrUnknownCommand)
	}
}

func tokenize(line string) (keyword Keyword, params []string, payload string, hasPayload bool, err error) {
	if line == "" {
		return "", nil, "", false, ErrEmptyLine
	}

	rest := line
	for rest != "" {
		if rest[0] == ':' {
			if keyword == "" {
				return "", nil, "", false, ErrMalformedLine
			}

			payload, hasPayload = rest[1:], true
			break
		}

		token := rest
		rest = ""
		if i := strings.IndexByte(token, ' '); i >= 0 {
			token, rest = token[:i], token[i+1:]
		}

		if token == "" {
			return "", nil, "", false, ErrMalformedLine
		}

		if keyword == "" {
			keyword = Keyword(token)
			if _, ok := keywords[keyword]; !ok {
				return "", nil, "", false, ErrUnknownCommand
			}
			continue
		}

		params = append(params, token)
		if len(params) > maxParameters {
			return "", nil, "", false, ErrTooManyParameters
		}
	}

	return keyword, params, payload, hasPayload, nil
}

func expectParams(params []string, n int) error {
	switch {
	case len(params) < n:
		return ErrMissingParameter
	case len(params) > n:
		return ErrTooManyParameters
	default:
		return nil
	}
}
