package game

import (
	"fmt"
	"time"
)

// VoteAbstain 表示投票者明確棄票
const VoteAbstain = "abstain"

// State 表示單一房間的完整遊戲狀態。
// 狀態只允許由房間的唯一持有者（PhaseController）修改，
// 其餘元件僅能透過快照或純函式結果與之互動。
type State struct {
	RoomID  string
	Phase   Phase
	Round   int
	players map[string]*Player
	order   []string

	// Deadline 為目前階段的絕對截止時間，零值表示無計時
	Deadline time.Time

	votes        map[string]string
	nightActions map[string]string

	Messages []ChatMessage
	AICount  int
}

// NewState 建立一個停留在大廳階段的空房間狀態
func NewState(roomID string) *State {
	return &State{
		RoomID:       roomID,
		Phase:        PhaseLobby,
		players:      make(map[string]*Player),
		votes:        make(map[string]string),
		nightActions: make(map[string]string),
	}
}

// AddPlayer 將玩家加入房間，保留加入順序以便之後分配角色
func (s *State) AddPlayer(p *Player) error {
	if s.Phase != PhaseLobby {
		return fmt.Errorf("遊戲已開始，無法加入")
	}
	if _, exists := s.players[p.ID]; exists {
		return fmt.Errorf("玩家 %s 已在房間內", p.ID)
	}
	s.players[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

// RemovePlayer 將玩家移出房間
func (s *State) RemovePlayer(id string) {
	if _, exists := s.players[id]; !exists {
		return
	}
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Player 依編號取得玩家，不存在時回傳 nil
func (s *State) Player(id string) *Player {
	return s.players[id]
}

// Players 依加入順序回傳所有玩家
func (s *State) Players() []*Player {
	result := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.players[id])
	}
	return result
}

// PlayerCount 回傳房間內玩家總數
func (s *State) PlayerCount() int {
	return len(s.players)
}

// AlivePlayers 回傳仍然存活的玩家
func (s *State) AlivePlayers() []*Player {
	result := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		if p := s.players[id]; p.Alive {
			result = append(result, p)
		}
	}
	return result
}

// AliveCount 回傳存活玩家數量
func (s *State) AliveCount() int {
	count := 0
	for _, p := range s.players {
		if p.Alive {
			count++
		}
	}
	return count
}

// AliveByRole 回傳指定角色的存活玩家
func (s *State) AliveByRole(role Role) []*Player {
	result := make([]*Player, 0)
	for _, id := range s.order {
		if p := s.players[id]; p.Alive && p.Role == role {
			result = append(result, p)
		}
	}
	return result
}

// AddMessage 附加一則討論訊息
func (s *State) AddMessage(msg ChatMessage) {
	s.Messages = append(s.Messages, msg)
}

// HasVoted 回傳指定玩家是否已投過放逐票（含棄票）
func (s *State) HasVoted(id string) bool {
	_, ok := s.votes[id]
	return ok
}

// HasNightAction 回傳指定玩家是否已提交夜晚行動
func (s *State) HasNightAction(id string) bool {
	_, ok := s.nightActions[id]
	return ok
}

// ClearVotes 清空放逐投票，進入投票階段時呼叫
func (s *State) ClearVotes() {
	s.votes = make(map[string]string)
}

// ClearNightActions 清空夜晚行動，進入夜晚階段時呼叫
func (s *State) ClearNightActions() {
	s.nightActions = make(map[string]string)
}
