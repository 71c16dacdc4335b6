package protocol

// Response is the outcome of applying a command. Every value other than
// RespOkay is sent to the offending client as `ERROR <code>`.
type Response int

const (
	RespOkay                  Response = 200
	RespInvalidName           Response = 401
	RespNoSuchChannel         Response = 402
	RespNoSuchUser            Response = 403
	RespUserNotInChannel      Response = 404
	RespUserNotOwner          Response = 406
	RespJoinPrivateChannel    Response = 407
	RespInviteToPublicChannel Response = 408
	RespNameAlreadyInUse      Response = 500
	RespChannelAlreadyExists  Response = 501
)

var responseNames = map[Response]string{
	RespOkay:                  "OKAY",
	RespInvalidName:           "INVALID_NAME",
	RespNoSuchChannel:         "NO_SUCH_CHANNEL",
	RespNoSuchUser:            "NO_SUCH_USER",
	RespUserNotInChannel:      "USER_NOT_IN_CHANNEL",
	RespUserNotOwner:          "USER_NOT_OWNER",
	RespJoinPrivateChannel:    "JOIN_PRIVATE_CHANNEL",
	RespInviteToPublicChannel: "INVITE_TO_PUBLIC_CHANNEL",
	RespNameAlreadyInUse:      "NAME_ALREADY_IN_USE",
	RespChannelAlreadyExists:  "CHANNEL_ALREADY_EXISTS",
}

// Code is the numeric code sent on the wire.
func (r Response) Code() int {
	return int(r)
}

func (r Response) String() string {
	if name, ok := responseNames[r]; ok {
		return name
	}

	return "UNKNOWN"
}
