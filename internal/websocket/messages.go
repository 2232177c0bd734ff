package websocket

import "time"

// MessageType identifies the shape of a dashboard WebSocket message.
type MessageType string

const (
	// MessageTypeLifecycleTransition reports a C1 state machine
	// transition (unannounced/announced/heartbeat_paused).
	MessageTypeLifecycleTransition MessageType = "lifecycleTransition"

	// MessageTypeHeartbeat reports a completed heartbeat/announce cycle.
	MessageTypeHeartbeat MessageType = "heartbeat"

	// MessageTypeMatchingRound reports the outcome of one C5 matching
	// round.
	MessageTypeMatchingRound MessageType = "matchingRound"

	// MessageTypeTradeOffer reports a trade offer submission outcome.
	MessageTypeTradeOffer MessageType = "tradeOffer"
)

// BaseMessage is embedded by every typed dashboard message.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// LifecycleTransitionMessage reports a bot's state machine transition.
type LifecycleTransitionMessage struct {
	BaseMessage
	SteamID uint64 `json:"steam_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// HeartbeatMessage reports the result of a heartbeat or announce call
// against the directory.
type HeartbeatMessage struct {
	BaseMessage
	SteamID uint64 `json:"steam_id"`
	Kind    string `json:"kind"` // "heartbeat" or "announce"
	Success bool   `json:"success"`
}

// MatchingRoundMessage reports the outcome of a single round of the C5
// active-matching loop.
type MatchingRoundMessage struct {
	BaseMessage
	SteamID      uint64 `json:"steam_id"`
	Round        int    `json:"round"`
	MadeProgress bool   `json:"made_progress"`
}

// TradeOfferMessage reports a single trade offer submission attempt.
type TradeOfferMessage struct {
	BaseMessage
	SteamID   uint64 `json:"steam_id"`
	Recipient uint64 `json:"recipient"`
	Outcome   string `json:"outcome"`
	ItemCount int    `json:"item_count"`
}

func NewLifecycleTransitionMessage(steamID uint64, from, to string) *LifecycleTransitionMessage {
	return &LifecycleTransitionMessage{
		BaseMessage: BaseMessage{Type: MessageTypeLifecycleTransition, Timestamp: time.Now()},
		SteamID:     steamID,
		From:        from,
		To:          to,
	}
}

func NewHeartbeatMessage(steamID uint64, kind string, success bool) *HeartbeatMessage {
	return &HeartbeatMessage{
		BaseMessage: BaseMessage{Type: MessageTypeHeartbeat, Timestamp: time.Now()},
		SteamID:     steamID,
		Kind:        kind,
		Success:     success,
	}
}

func NewMatchingRoundMessage(steamID uint64, round int, madeProgress bool) *MatchingRoundMessage {
	return &MatchingRoundMessage{
		BaseMessage:  BaseMessage{Type: MessageTypeMatchingRound, Timestamp: time.Now()},
		SteamID:      steamID,
		Round:        round,
		MadeProgress: madeProgress,
	}
}

func NewTradeOfferMessage(steamID, recipient uint64, outcome string, itemCount int) *TradeOfferMessage {
	return &TradeOfferMessage{
		BaseMessage: BaseMessage{Type: MessageTypeTradeOffer, Timestamp: time.Now()},
		SteamID:     steamID,
		Recipient:   recipient,
		Outcome:     outcome,
		ItemCount:   itemCount,
	}
}
