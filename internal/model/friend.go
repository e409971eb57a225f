package model

import "time"

// FriendStatus is the state of a directed friendship edge.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
	FriendRejected FriendStatus = "rejected"

	// FriendNone is reported by status lookups when no edge exists. It is
	// never stored.
	FriendNone FriendStatus = "none"
)

// FriendEdge is one row of the friendships table: user_id -> friend_id.
//
// A pending edge points from requester to receiver. An accepted friendship is
// always stored as two accepted edges, one per direction.
type FriendEdge struct {
	UserID    string       `json:"user_id"`
	FriendID  string       `json:"friend_id"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Direction selects which pending requests to list, relative to the caller.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionAll      Direction = "all"
)

// ParseDirection maps a query value to a Direction. Unknown values fall back
// to DirectionAll.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirectionIncoming, DirectionOutgoing:
		return Direction(s)
	default:
		return DirectionAll
	}
}

// FriendRequest is a pending edge joined with the profile of the other party
// (the requester for incoming rows, the receiver for outgoing rows).
type FriendRequest struct {
	RequesterID   string       `json:"requester_id"`
	ReceiverID    string       `json:"receiver_id"`
	Status        FriendStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	OtherUserID   string       `json:"other_user_id"`
	OtherUsername string       `json:"other_username"`
	OtherIconURL  string       `json:"other_icon_url"`
	Direction     Direction    `json:"direction"`
}

// Friend is an accepted friend as seen from the caller.
type Friend struct {
	PublicProfile
	Since time.Time `json:"created_at"`
}

// FriendshipStatus reports both directed edges between the caller and
// another user.
type FriendshipStatus struct {
	UserID   string       `json:"user_id"`
	Outgoing FriendStatus `json:"outgoing"`
	Incoming FriendStatus `json:"incoming"`
}
