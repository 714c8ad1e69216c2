package game

import (
	"math/rand"
	"testing"
)

func addTestPlayers(t *testing.T, s *State, n int) {
	t.Helper()
	names := []string{"小明", "小華", "小美", "阿強", "阿珍", "大雄", "靜香", "胖虎"}
	for i := 0; i < n; i++ {
		p := &Player{ID: names[i], Name: names[i], Type: ParticipantHuman, Alive: true}
		if err := s.AddPlayer(p); err != nil {
			t.Fatalf("加入玩家失敗: %v", err)
		}
	}
}

func TestRoleDistribution(t *testing.T) {
	cases := []struct {
		players  int
		wolves   int
		seers    int
		doctors  int
		villager int
	}{
		{4, 1, 1, 0, 2},
		{5, 1, 1, 1, 2},
		{6, 2, 1, 1, 2},
		{8, 2, 1, 1, 4},
		{9, 3, 1, 1, 4},
		{12, 4, 1, 1, 6},
	}

	for _, tc := range cases {
		roles := RoleDistribution(tc.players)
		if len(roles) != tc.players {
			t.Fatalf("%d 人局角色總數應為 %d，實際 %d", tc.players, tc.players, len(roles))
		}
		counts := make(map[Role]int)
		for _, role := range roles {
			counts[role]++
		}
		if counts[RoleWerewolf] != tc.wolves {
			t.Fatalf("%d 人局狼人應為 %d，實際 %d", tc.players, tc.wolves, counts[RoleWerewolf])
		}
		if counts[RoleSeer] != tc.seers {
			t.Fatalf("%d 人局預言家應為 %d，實際 %d", tc.players, tc.seers, counts[RoleSeer])
		}
		if counts[RoleDoctor] != tc.doctors {
			t.Fatalf("%d 人局醫生應為 %d，實際 %d", tc.players, tc.doctors, counts[RoleDoctor])
		}
		if counts[RoleVillager] != tc.villager {
			t.Fatalf("%d 人局村民應為 %d，實際 %d", tc.players, tc.villager, counts[RoleVillager])
		}
	}
}

func TestAssignRolesRequiresMinPlayers(t *testing.T) {
	s := NewState("room-test")
	addTestPlayers(t, s, 3)
	if err := s.AssignRoles(rand.New(rand.NewSource(1))); err != ErrTooFewPlayers {
		t.Fatalf("3 人開局應回傳人數不足，實際 %v", err)
	}
}

func TestAssignRolesOnlyInLobby(t *testing.T) {
	s := NewState("room-test")
	addTestPlayers(t, s, 6)
	if err := s.AssignRoles(rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("分配角色失敗: %v", err)
	}
	s.Phase = PhaseDay
	if err := s.AssignRoles(rand.New(rand.NewSource(2))); err != ErrGameAlreadyStarted {
		t.Fatalf("開局後再分配應被拒絕，實際 %v", err)
	}
}

func TestAssignRolesCoversAllPlayers(t *testing.T) {
	s := NewState("room-test")
	addTestPlayers(t, s, 7)
	if err := s.AssignRoles(rand.New(rand.NewSource(42))); err != nil {
		t.Fatalf("分配角色失敗: %v", err)
	}

	wolves := 0
	for _, p := range s.Players() {
		if p.Role == RoleNone {
			t.Fatalf("玩家 %s 未分配到角色", p.Name)
		}
		if p.Team != TeamOf(p.Role) {
			t.Fatalf("玩家 %s 的陣營與角色不符", p.Name)
		}
		if !p.Alive {
			t.Fatalf("開局時玩家 %s 不應處於死亡狀態", p.Name)
		}
		if p.Role == RoleWerewolf {
			wolves++
		}
	}
	if wolves != 2 {
		t.Fatalf("7 人局狼人應為 2，實際 %d", wolves)
	}
	if len(s.WerewolfIDs()) != 2 {
		t.Fatalf("WerewolfIDs 應回傳 2 名狼人，實際 %d", len(s.WerewolfIDs()))
	}
}

func TestAssignRolesDeterministicWithSeed(t *testing.T) {
	build := func(seed int64) []Role {
		s := NewState("room-test")
		addTestPlayers(t, s, 8)
		if err := s.AssignRoles(rand.New(rand.NewSource(seed))); err != nil {
			t.Fatalf("分配角色失敗: %v", err)
		}
		roles := make([]Role, 0, 8)
		for _, p := range s.Players() {
			roles = append(roles, p.Role)
		}
		return roles
	}

	first := build(99)
	second := build(99)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("相同種子應得到相同的角色分配")
		}
	}
}
