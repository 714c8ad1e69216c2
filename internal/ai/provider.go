package ai

import (
	"context"

	"wolfnight/internal/game"
)

// DecisionKind 區分 AI 需要做出的決策類型
type DecisionKind string

const (
	DecisionChat  DecisionKind = "chat"
	DecisionVote  DecisionKind = "vote"
	DecisionNight DecisionKind = "night"
	DecisionNotes DecisionKind = "notes"
)

// TargetRef 為決策候選目標的最小描述
type TargetRef struct {
	ID   string
	Name string
}

// SeerMemory 為 AI 預言家累積的查驗記憶
type SeerMemory struct {
	TargetName string
	IsWerewolf bool
}

// Request 為一次決策請求的完整上下文，屬於暫時性資料，不會保存
type Request struct {
	Kind DecisionKind

	PlayerID   string
	PlayerName string
	Role       game.Role
	Team       game.Team
	Phase      game.Phase
	Round      int

	Alive        []TargetRef
	Dead         []TargetRef
	ValidTargets []TargetRef
	FellowWolves []string
	SeerReveals  []SeerMemory
	Messages     []game.ChatMessage
	VoteCounts   map[string]int

	Notes        string
	MessagesSent int
	MaxMessages  int
}

// Result 為供應端的回答。投票與夜晚行動使用 TargetID；
// 聊天使用 Send 與 Message；筆記更新使用 Message。
// Fallback 標記該結果是否由保底機制產生。
type Result struct {
	TargetID string
	Send     bool
	Message  string
	Fallback bool
}

// Provider 為非同步的決策能力。實作可能逾時或失敗，
// 由 Orchestrator 的重試與保底策略處理。
type Provider interface {
	Propose(ctx context.Context, req Request) (Result, error)
}

// Agent 為房間內一名 AI 玩家的協調層記錄
type Agent struct {
	ID           string
	Name         string
	Role         game.Role
	Team         game.Team
	Notes        string
	SeerReveals  []SeerMemory
	MessagesSent int
	MaxMessages  int
}

// SetRole 在開局時設定 AI 的角色與陣營
func (a *Agent) SetRole(role game.Role, team game.Team) {
	a.Role = role
	a.Team = team
}

// AddSeerReveal 記錄一次查驗結果供之後的決策使用
func (a *Agent) AddSeerReveal(targetName string, isWerewolf bool) {
	a.SeerReveals = append(a.SeerReveals, SeerMemory{TargetName: targetName, IsWerewolf: isWerewolf})
}

// ResetForNewDay 重設每日聊天計數
func (a *Agent) ResetForNewDay() {
	a.MessagesSent = 0
}
