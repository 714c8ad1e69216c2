package game

import "errors"

var (
	// ErrWrongPhase 表示該操作不屬於目前階段
	ErrWrongPhase = errors.New("目前階段不允許此操作")
	// ErrDeadActor 表示行動者已被淘汰
	ErrDeadActor = errors.New("已淘汰的玩家無法行動")
	// ErrDeadTarget 表示目標已被淘汰
	ErrDeadTarget = errors.New("目標玩家已被淘汰")
	// ErrUnknownPlayer 表示找不到指定玩家
	ErrUnknownPlayer = errors.New("找不到指定玩家")
)

// VoteOutcome 表示一次放逐投票的結算結果，僅供推導，不會保存
type VoteOutcome struct {
	EliminatedID string
	Tie          bool
	Counts       map[string]int
}

// SubmitVote 登記一張放逐票，target 可為 VoteAbstain 表示棄票。
// 投票者死亡、目標死亡或階段不符時拒絕且不改變任何狀態；
// 同一投票者重複投票以最後一票為準。
func (s *State) SubmitVote(voterID, targetID string) error {
	if s.Phase != PhaseVoting {
		return ErrWrongPhase
	}
	voter := s.players[voterID]
	if voter == nil {
		return ErrUnknownPlayer
	}
	if !voter.Alive {
		return ErrDeadActor
	}
	if targetID != VoteAbstain {
		target := s.players[targetID]
		if target == nil {
			return ErrUnknownPlayer
		}
		if !target.Alive {
			return ErrDeadTarget
		}
	}
	s.votes[voterID] = targetID
	return nil
}

// VoteCounts 統計目前有效票數：僅計入存活投票者投給存活目標的票
func (s *State) VoteCounts() map[string]int {
	counts := make(map[string]int)
	for voterID, targetID := range s.votes {
		voter := s.players[voterID]
		if voter == nil || !voter.Alive {
			continue
		}
		if targetID == VoteAbstain {
			continue
		}
		target := s.players[targetID]
		if target == nil || !target.Alive {
			continue
		}
		counts[targetID]++
	}
	return counts
}

// AllAliveVoted 回傳是否所有存活玩家都已投票（含棄票）
func (s *State) AllAliveVoted() bool {
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		if _, ok := s.votes[p.ID]; !ok {
			return false
		}
	}
	return true
}

// FinalizeVotes 結算放逐投票：得票嚴格多於其他所有目標者被放逐，
// 最高票並列則無人出局並設定平手旗標。不修改存活狀態，
// 結果由呼叫端套用。
func (s *State) FinalizeVotes() VoteOutcome {
	counts := s.VoteCounts()
	targetID, decided := pluralityTarget(counts)
	outcome := VoteOutcome{Counts: counts}
	if !decided {
		outcome.Tie = len(counts) > 0
		return outcome
	}
	outcome.EliminatedID = targetID
	return outcome
}

// pluralityTarget 找出嚴格多數的目標；最高票並列或沒有任何票時回傳 false
func pluralityTarget(counts map[string]int) (string, bool) {
	best := ""
	bestCount := 0
	tied := false
	for id, count := range counts {
		switch {
		case count > bestCount:
			best = id
			bestCount = count
			tied = false
		case count == bestCount:
			tied = true
		}
	}
	if best == "" || tied {
		return "", false
	}
	return best, true
}
