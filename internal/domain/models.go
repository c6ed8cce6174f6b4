package domain

import "encoding/json"

// Domain contains the lobby request bodies and the opaque status payload.

// Player is the body of an add-player request.
type Player struct {
	Name    string   `json:"player_name"`
	Regions []string `json:"regions"`
}

// Room is the body of an add-room request.
type Room struct {
	PlayerName string   `json:"player_name"`
	RoomName   string   `json:"room_name"`
	Regions    []string `json:"regions"`
}

// StatusPayload is the body the lobby server answered with. It is never validated
// and may not be JSON at all.
type StatusPayload = json.RawMessage
