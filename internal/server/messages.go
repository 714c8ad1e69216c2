package server

import (
	"encoding/json"
	"time"

	"wolfnight/internal/game"
)

// ClientMessage 定義 WebSocket 客戶端發送的通用訊息格式
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// 大廳與房間管理請求
type CreateRoomPayload struct {
	Name string `json:"name"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type SetAICountPayload struct {
	Count int `json:"count"`
}

// 對局階段請求
type VotePayload struct {
	TargetID string `json:"targetId"`
}

type NightActionPayload struct {
	TargetID string `json:"targetId"`
}

type SendMessagePayload struct {
	Content string `json:"content"`
}

// ServerMessage 是伺服器端對外推送的通用訊息格式
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// 大廳資訊
type RoomSummary struct {
	RoomID  string `json:"roomId"`
	Name    string `json:"name"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
	AICount int    `json:"aiCount"`
	Host    string `json:"host"`
}

type LobbyRoomsPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

// 房間內公開資訊
type PublicStatePayload struct {
	RoomName string              `json:"roomName"`
	Snapshot game.PublicSnapshot `json:"snapshot"`
}

type PhaseChangedPayload struct {
	Phase       game.Phase `json:"phase"`
	PhaseLabel  string     `json:"phaseLabel"`
	Duration    int        `json:"duration"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	RoundNumber int        `json:"roundNumber"`
}

type VoteUpdatePayload struct {
	Counts map[string]int `json:"counts"`
}

// PlayerEliminatedPayload 的 PlayerID 在平手時為 nil；
// 放逐後公開死者的真實角色
type PlayerEliminatedPayload struct {
	PlayerID *string   `json:"playerId"`
	Name     string    `json:"name,omitempty"`
	Role     game.Role `json:"role,omitempty"`
	Tie      bool      `json:"tie"`
}

type DeathView struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	Role     game.Role `json:"role"`
}

type NightResultPayload struct {
	Deaths []DeathView `json:"deaths"`
	Saved  bool        `json:"saved"`
}

// 私人資訊
type GameStartedPayload struct {
	Role        game.Role `json:"role"`
	RoleLabel   string    `json:"roleLabel"`
	Team        game.Team `json:"team"`
	WerewolfIDs []string  `json:"werewolfIds,omitempty"`
}

type SeerResultPayload struct {
	TargetID   string    `json:"targetId"`
	TargetName string    `json:"targetName"`
	Role       game.Role `json:"role"`
	IsWerewolf bool      `json:"isWerewolf"`
}

type GameEndedPayload struct {
	Winner      game.Team             `json:"winner"`
	WinnerLabel string                `json:"winnerLabel"`
	Players     []game.RevealedPlayer `json:"players"`
}

// 房間事件
type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type HostChangedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type NewMessagePayload struct {
	Message game.ChatMessage `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
