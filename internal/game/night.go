package game

import "errors"

var (
	// ErrInvalidNightTarget 表示行動目標不符合角色能力限制
	ErrInvalidNightTarget = errors.New("此角色不能選擇該目標")
	// ErrNoNightAction 表示該角色沒有夜晚行動
	ErrNoNightAction = errors.New("此角色沒有夜晚行動")
)

// Death 表示夜晚結算造成的一筆死亡
type Death struct {
	ID   string
	Role Role
}

// SeerReveal 表示預言家的查驗結果，只能私下傳給預言家本人
type SeerReveal struct {
	SeerID   string
	TargetID string
	Role     Role
}

// NightOutcome 表示一次夜晚結算的結果，消費一次後即丟棄。
// AttackTargetID 為狼人達成共識的攻擊目標，票數並列或無票時為空。
type NightOutcome struct {
	Deaths         []Death
	AttackTargetID string
	ProtectedID    string
	Reveal         *SeerReveal
	WolfCounts     map[string]int
}

// SubmitNightAction 登記一筆夜晚行動並依角色能力驗證：
// 狼人可攻擊任一存活非狼人；預言家可查驗除自己外任一存活玩家；
// 醫生可保護任一存活玩家（含自己）。行動者死亡、階段不符或
// 目標不合法時拒絕；同一行動者重複提交以最後一次為準。
func (s *State) SubmitNightAction(actorID, targetID string) error {
	if s.Phase != PhaseNight {
		return ErrWrongPhase
	}
	actor := s.players[actorID]
	if actor == nil {
		return ErrUnknownPlayer
	}
	if !actor.Alive {
		return ErrDeadActor
	}
	target := s.players[targetID]
	if target == nil {
		return ErrUnknownPlayer
	}
	if !target.Alive {
		return ErrDeadTarget
	}

	switch actor.Role {
	case RoleWerewolf:
		if target.Role == RoleWerewolf {
			return ErrInvalidNightTarget
		}
	case RoleSeer:
		if targetID == actorID {
			return ErrInvalidNightTarget
		}
	case RoleDoctor:
		// 醫生可以保護任何人，包含自己
	default:
		return ErrNoNightAction
	}

	s.nightActions[actorID] = targetID
	return nil
}

// WerewolfVoteCounts 統計存活狼人目前的攻擊票數
func (s *State) WerewolfVoteCounts() map[string]int {
	counts := make(map[string]int)
	for actorID, targetID := range s.nightActions {
		actor := s.players[actorID]
		if actor == nil || !actor.Alive || actor.Role != RoleWerewolf {
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

// RequiredNightActors 回傳本夜必須行動的存活玩家編號
func (s *State) RequiredNightActors() []string {
	ids := make([]string, 0)
	for _, id := range s.order {
		p := s.players[id]
		if !p.Alive {
			continue
		}
		switch p.Role {
		case RoleWerewolf, RoleSeer, RoleDoctor:
			ids = append(ids, id)
		}
	}
	return ids
}

// AllNightActionsIn 回傳所有必要行動者是否都已提交
func (s *State) AllNightActionsIn() bool {
	for _, id := range s.RequiredNightActors() {
		if _, ok := s.nightActions[id]; !ok {
			return false
		}
	}
	return true
}

// ResolveNight 依固定順序結算夜晚行動：
// 1. 狼人攻擊目標取嚴格多數，並列表示狼人協調失敗、當夜無人被殺；
// 2. 醫生保護目標與攻擊目標相同時攻擊無效（含醫生自保）；
// 3. 預言家查驗產生私人結果，不影響死亡判定。
// 缺少某角色的存活持有者時該步驟自動略過。不修改存活狀態，
// 結果由呼叫端套用。
func (s *State) ResolveNight() NightOutcome {
	outcome := NightOutcome{WolfCounts: s.WerewolfVoteCounts()}

	killTargetID, decided := pluralityTarget(outcome.WolfCounts)
	if decided {
		outcome.AttackTargetID = killTargetID
	}

	for _, doctor := range s.AliveByRole(RoleDoctor) {
		if targetID, ok := s.nightActions[doctor.ID]; ok {
			outcome.ProtectedID = targetID
		}
	}

	if decided && killTargetID != outcome.ProtectedID {
		if target := s.players[killTargetID]; target != nil && target.Alive {
			outcome.Deaths = append(outcome.Deaths, Death{ID: target.ID, Role: target.Role})
		}
	}

	for _, seer := range s.AliveByRole(RoleSeer) {
		targetID, ok := s.nightActions[seer.ID]
		if !ok {
			continue
		}
		if target := s.players[targetID]; target != nil {
			outcome.Reveal = &SeerReveal{SeerID: seer.ID, TargetID: targetID, Role: target.Role}
		}
	}

	return outcome
}
