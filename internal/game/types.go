package game

import "time"

// Phase 表示遊戲目前所處的階段
type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhaseDay    Phase = "day"
	PhaseVoting Phase = "voting"
	PhaseNight  Phase = "night"
	PhaseEnded  Phase = "ended"
)

func (p Phase) Label() string {
	switch p {
	case PhaseLobby:
		return "等待中"
	case PhaseDay:
		return "白天"
	case PhaseVoting:
		return "投票"
	case PhaseNight:
		return "夜晚"
	case PhaseEnded:
		return "已結束"
	default:
		return "未知階段"
	}
}

// Role 表示玩家的遊戲角色，開局前為空值
type Role string

const (
	RoleNone     Role = ""
	RoleVillager Role = "villager"
	RoleWerewolf Role = "werewolf"
	RoleSeer     Role = "seer"
	RoleDoctor   Role = "doctor"
)

func (r Role) Label() string {
	switch r {
	case RoleVillager:
		return "村民"
	case RoleWerewolf:
		return "狼人"
	case RoleSeer:
		return "預言家"
	case RoleDoctor:
		return "醫生"
	default:
		return "未分配"
	}
}

// Team 表示玩家所屬陣營，由角色推導
type Team string

const (
	TeamNone  Team = ""
	TeamTown  Team = "town"
	TeamMafia Team = "mafia"
)

func (t Team) Label() string {
	switch t {
	case TeamTown:
		return "好人陣營"
	case TeamMafia:
		return "狼人陣營"
	default:
		return "未分配"
	}
}

// TeamOf 回傳角色所屬陣營
func TeamOf(r Role) Team {
	switch r {
	case RoleWerewolf:
		return TeamMafia
	case RoleVillager, RoleSeer, RoleDoctor:
		return TeamTown
	default:
		return TeamNone
	}
}

// ParticipantType 區分真人與 AI 玩家
type ParticipantType string

const (
	ParticipantHuman ParticipantType = "human"
	ParticipantAI    ParticipantType = "ai"
)

// Player 表示一名房間內的玩家
type Player struct {
	ID     string
	Name   string
	Type   ParticipantType
	Role   Role
	Team   Team
	Alive  bool
	IsHost bool
}

func (p *Player) IsAI() bool {
	return p.Type == ParticipantAI
}

// ChatMessage 表示一則白天討論訊息
type ChatMessage struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}
