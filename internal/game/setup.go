package game

import (
	"errors"
	"math/rand"
)

var (
	// ErrTooFewPlayers 表示玩家人數不足以開局
	ErrTooFewPlayers = errors.New("至少需要 4 名玩家才能開始遊戲")
	// ErrGameAlreadyStarted 表示遊戲已離開大廳階段
	ErrGameAlreadyStarted = errors.New("遊戲已經開始")
)

// MinPlayers 為開局所需的最低玩家數
const MinPlayers = 4

// RoleDistribution 依玩家人數產生角色清單：
// 狼人 ⌊N/3⌋（至少 1）、預言家 1、N≥5 時醫生 1，其餘為村民。
func RoleDistribution(playerCount int) []Role {
	wolves := playerCount / 3
	if wolves < 1 {
		wolves = 1
	}

	roles := make([]Role, 0, playerCount)
	for i := 0; i < wolves; i++ {
		roles = append(roles, RoleWerewolf)
	}
	roles = append(roles, RoleSeer)
	if playerCount >= 5 {
		roles = append(roles, RoleDoctor)
	}
	for len(roles) < playerCount {
		roles = append(roles, RoleVillager)
	}
	return roles
}

// AssignRoles 以房間的亂數源隨機分配角色並推導陣營。
// 只能在大廳階段執行一次。
func (s *State) AssignRoles(rng *rand.Rand) error {
	if s.Phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	if s.PlayerCount() < MinPlayers {
		return ErrTooFewPlayers
	}

	roles := RoleDistribution(s.PlayerCount())
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, id := range s.order {
		p := s.players[id]
		p.Role = roles[i]
		p.Team = TeamOf(roles[i])
		p.Alive = true
	}
	return nil
}

// WerewolfIDs 回傳存活狼人的編號，讓狼人彼此認識
func (s *State) WerewolfIDs() []string {
	ids := make([]string, 0)
	for _, id := range s.order {
		if p := s.players[id]; p.Alive && p.Role == RoleWerewolf {
			ids = append(ids, id)
		}
	}
	return ids
}
