package game

import "time"

// PlayerSnapshot 為對房間內所有人公開的玩家資訊，不含角色
type PlayerSnapshot struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsAI   bool   `json:"isAi"`
	IsHost bool   `json:"isHost"`
	Alive  bool   `json:"alive"`
}

// RevealedPlayer 為遊戲結束時公開的完整玩家資訊
type RevealedPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Team  Team   `json:"team"`
	Alive bool   `json:"alive"`
}

// PublicSnapshot 為房間目前的公開狀態
type PublicSnapshot struct {
	RoomID   string           `json:"roomId"`
	Phase    Phase            `json:"phase"`
	Round    int              `json:"round"`
	EndsAt   *time.Time       `json:"endsAt,omitempty"`
	Players  []PlayerSnapshot `json:"players"`
	AICount  int              `json:"aiCount"`
	Messages []ChatMessage    `json:"messages"`
}

// EndSnapshot 為遊戲結束時的終局快照，建立一次後不再改變
type EndSnapshot struct {
	Winner  Team             `json:"winner"`
	Players []RevealedPlayer `json:"players"`
}

// BuildPublicSnapshot 建立目前的公開狀態快照
func (s *State) BuildPublicSnapshot() PublicSnapshot {
	snapshot := PublicSnapshot{
		RoomID:   s.RoomID,
		Phase:    s.Phase,
		Round:    s.Round,
		AICount:  s.AICount,
		Players:  make([]PlayerSnapshot, 0, len(s.order)),
		Messages: s.Messages,
	}
	if !s.Deadline.IsZero() {
		deadline := s.Deadline
		snapshot.EndsAt = &deadline
	}
	for _, p := range s.Players() {
		snapshot.Players = append(snapshot.Players, PlayerSnapshot{
			ID:     p.ID,
			Name:   p.Name,
			IsAI:   p.IsAI(),
			IsHost: p.IsHost,
			Alive:  p.Alive,
		})
	}
	return snapshot
}

// BuildEndSnapshot 建立終局快照並公開所有角色
func (s *State) BuildEndSnapshot(winner Team) EndSnapshot {
	snapshot := EndSnapshot{
		Winner:  winner,
		Players: make([]RevealedPlayer, 0, len(s.order)),
	}
	for _, p := range s.Players() {
		snapshot.Players = append(snapshot.Players, RevealedPlayer{
			ID:    p.ID,
			Name:  p.Name,
			Role:  p.Role,
			Team:  p.Team,
			Alive: p.Alive,
		})
	}
	return snapshot
}
