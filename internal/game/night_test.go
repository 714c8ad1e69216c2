package game

import "testing"

// nightState 建立一個已進入夜晚階段的測試局面
func nightState(t *testing.T, roles map[string]Role) *State {
	t.Helper()
	s := NewState("room-test")
	for id, role := range roles {
		p := &Player{ID: id, Name: id, Type: ParticipantHuman, Role: role, Team: TeamOf(role), Alive: true}
		if err := s.AddPlayer(p); err != nil {
			t.Fatalf("加入玩家失敗: %v", err)
		}
	}
	s.Phase = PhaseNight
	s.Round = 1
	return s
}

func TestNightActionCapabilities(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼": RoleWerewolf, "狼二": RoleWerewolf, "預": RoleSeer, "醫": RoleDoctor, "民": RoleVillager,
	})

	if err := s.SubmitNightAction("狼", "狼二"); err != ErrInvalidNightTarget {
		t.Fatalf("狼人攻擊狼人應被拒絕，實際 %v", err)
	}
	if err := s.SubmitNightAction("狼", "民"); err != nil {
		t.Fatalf("狼人攻擊村民應成功: %v", err)
	}
	if err := s.SubmitNightAction("預", "預"); err != ErrInvalidNightTarget {
		t.Fatalf("預言家查驗自己應被拒絕，實際 %v", err)
	}
	if err := s.SubmitNightAction("預", "狼"); err != nil {
		t.Fatalf("預言家查驗他人應成功: %v", err)
	}
	if err := s.SubmitNightAction("醫", "醫"); err != nil {
		t.Fatalf("醫生自保應成功: %v", err)
	}
	if err := s.SubmitNightAction("民", "狼"); err != ErrNoNightAction {
		t.Fatalf("村民沒有夜晚行動，實際 %v", err)
	}

	s.Phase = PhaseDay
	if err := s.SubmitNightAction("狼", "民"); err != ErrWrongPhase {
		t.Fatalf("非夜晚階段應被拒絕，實際 %v", err)
	}
}

func TestResolveNightKill(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼": RoleWerewolf, "預": RoleSeer, "醫": RoleDoctor, "民": RoleVillager, "民二": RoleVillager,
	})

	mustAct := func(actor, target string) {
		if err := s.SubmitNightAction(actor, target); err != nil {
			t.Fatalf("%s 行動失敗: %v", actor, err)
		}
	}
	mustAct("狼", "民")
	mustAct("醫", "醫")
	mustAct("預", "狼")

	if !s.AllNightActionsIn() {
		t.Fatalf("所有必要行動者均已提交")
	}

	outcome := s.ResolveNight()
	if len(outcome.Deaths) != 1 || outcome.Deaths[0].ID != "民" {
		t.Fatalf("民應被狼人殺死，實際 %+v", outcome.Deaths)
	}
	if outcome.AttackTargetID != "民" {
		t.Fatalf("攻擊目標應為民，實際 %q", outcome.AttackTargetID)
	}
	if outcome.Reveal == nil || outcome.Reveal.TargetID != "狼" || outcome.Reveal.Role != RoleWerewolf {
		t.Fatalf("預言家應查出狼人，實際 %+v", outcome.Reveal)
	}
	// 結算不改變存活狀態，由呼叫端套用
	if !s.Player("民").Alive {
		t.Fatalf("ResolveNight 不應直接修改存活狀態")
	}
}

func TestDoctorProtectionNullifiesAttack(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼": RoleWerewolf, "預": RoleSeer, "醫": RoleDoctor, "民": RoleVillager, "民二": RoleVillager,
	})

	mustAct := func(actor, target string) {
		if err := s.SubmitNightAction(actor, target); err != nil {
			t.Fatalf("%s 行動失敗: %v", actor, err)
		}
	}
	mustAct("狼", "民")
	mustAct("醫", "民")
	mustAct("預", "民二")

	outcome := s.ResolveNight()
	if len(outcome.Deaths) != 0 {
		t.Fatalf("醫生保護下不應有人死亡，實際 %+v", outcome.Deaths)
	}
	if outcome.AttackTargetID != "民" || outcome.ProtectedID != "民" {
		t.Fatalf("攻擊與保護目標應一致指向民，實際攻擊 %q 保護 %q", outcome.AttackTargetID, outcome.ProtectedID)
	}
}

func TestDoctorSelfProtection(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼": RoleWerewolf, "預": RoleSeer, "醫": RoleDoctor, "民": RoleVillager, "民二": RoleVillager,
	})

	mustAct := func(actor, target string) {
		if err := s.SubmitNightAction(actor, target); err != nil {
			t.Fatalf("%s 行動失敗: %v", actor, err)
		}
	}
	mustAct("狼", "醫")
	mustAct("醫", "醫")
	mustAct("預", "民")

	outcome := s.ResolveNight()
	if len(outcome.Deaths) != 0 {
		t.Fatalf("醫生自保應擋下攻擊，實際 %+v", outcome.Deaths)
	}
}

func TestWerewolfTieMeansNoKill(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼":  RoleWerewolf,
		"狼二": RoleWerewolf,
		"預":  RoleSeer,
		"民":  RoleVillager,
		"民二": RoleVillager,
		"民三": RoleVillager,
	})

	mustAct := func(actor, target string) {
		if err := s.SubmitNightAction(actor, target); err != nil {
			t.Fatalf("%s 行動失敗: %v", actor, err)
		}
	}
	mustAct("狼", "民")
	mustAct("狼二", "民二")
	mustAct("預", "狼")

	outcome := s.ResolveNight()
	if len(outcome.Deaths) != 0 {
		t.Fatalf("狼人票數並列時當夜不應有人死亡，實際 %+v", outcome.Deaths)
	}
	if outcome.AttackTargetID != "" {
		t.Fatalf("並列時不應有攻擊目標，實際 %q", outcome.AttackTargetID)
	}
	if outcome.WolfCounts["民"] != 1 || outcome.WolfCounts["民二"] != 1 {
		t.Fatalf("狼人票數統計錯誤: %+v", outcome.WolfCounts)
	}
}

func TestWerewolfLastActionWins(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼": RoleWerewolf, "預": RoleSeer, "民": RoleVillager, "民二": RoleVillager,
	})

	if err := s.SubmitNightAction("狼", "民"); err != nil {
		t.Fatalf("行動失敗: %v", err)
	}
	if err := s.SubmitNightAction("狼", "民二"); err != nil {
		t.Fatalf("改選目標失敗: %v", err)
	}

	counts := s.WerewolfVoteCounts()
	if counts["民"] != 0 || counts["民二"] != 1 {
		t.Fatalf("改選後應只計最後一次，實際 %+v", counts)
	}
}

func TestRequiredNightActorsSkipDead(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼": RoleWerewolf, "預": RoleSeer, "醫": RoleDoctor, "民": RoleVillager,
	})
	s.Player("預").Alive = false

	actors := s.RequiredNightActors()
	for _, id := range actors {
		if id == "預" || id == "民" {
			t.Fatalf("死亡的預言家與村民不應列入必要行動者: %v", actors)
		}
	}
	if len(actors) != 2 {
		t.Fatalf("必要行動者應為狼與醫，實際 %v", actors)
	}

	if err := s.SubmitNightAction("狼", "民"); err != nil {
		t.Fatalf("行動失敗: %v", err)
	}
	if s.AllNightActionsIn() {
		t.Fatalf("醫生尚未行動")
	}
	if err := s.SubmitNightAction("醫", "狼"); err != nil {
		t.Fatalf("行動失敗: %v", err)
	}
	if !s.AllNightActionsIn() {
		t.Fatalf("全部必要行動者已提交")
	}
}

func TestResolveNightWithoutDoctor(t *testing.T) {
	s := nightState(t, map[string]Role{
		"狼": RoleWerewolf, "預": RoleSeer, "民": RoleVillager, "民二": RoleVillager,
	})

	if err := s.SubmitNightAction("狼", "預"); err != nil {
		t.Fatalf("行動失敗: %v", err)
	}
	if err := s.SubmitNightAction("預", "民"); err != nil {
		t.Fatalf("行動失敗: %v", err)
	}

	outcome := s.ResolveNight()
	if len(outcome.Deaths) != 1 || outcome.Deaths[0].ID != "預" {
		t.Fatalf("沒有醫生時攻擊應成立，實際 %+v", outcome.Deaths)
	}
	if outcome.ProtectedID != "" {
		t.Fatalf("沒有醫生時不應有保護目標，實際 %q", outcome.ProtectedID)
	}
	if outcome.Reveal == nil || outcome.Reveal.Role != RoleVillager {
		t.Fatalf("預言家查驗村民應得到村民身分，實際 %+v", outcome.Reveal)
	}
}
