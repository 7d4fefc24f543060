package network

import "strings"

// Kind is the decoded type of an inbound datagram.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAuthSuccess
	KindCreateActionSuccess
	KindTrigger
)

// Literals sent by the companion service.
const (
	LiteralAuthSuccess         = "AUTH_SUCCESS"
	LiteralCreateActionSuccess = "CREATE_ACTION_SUCCESS"
)

func (k Kind) String() string {
	switch k {
	case KindAuthSuccess:
		return "auth_success"
	case KindCreateActionSuccess:
		return "create_action_success"
	case KindTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// Message is an inbound datagram decoded once at the channel boundary.
type Message struct {
	Kind Kind
	// Text is the payload as received, minus a trailing line break.
	// For KindTrigger it is the command string to dispatch.
	Text string
}

// Decode maps a raw payload to a Message. Matching is exact; only a
// trailing "\n" or "\r\n" is stripped so that line-oriented senders work.
func Decode(payload []byte) Message {
	text := string(payload)
	if strings.HasSuffix(text, "\n") {
		text = strings.TrimSuffix(text[:len(text)-1], "\r")
	}
	switch text {
	case "":
		return Message{Kind: KindUnknown}
	case LiteralAuthSuccess:
		return Message{Kind: KindAuthSuccess, Text: text}
	case LiteralCreateActionSuccess:
		return Message{Kind: KindCreateActionSuccess, Text: text}
	default:
		return Message{Kind: KindTrigger, Text: text}
	}
}
