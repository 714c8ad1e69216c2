package game

// CountLivingTeams 統計存活的狼人與好人數量
func (s *State) CountLivingTeams() (wolves int, town int) {
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		if p.Role == RoleWerewolf {
			wolves++
		} else {
			town++
		}
	}
	return
}

// CheckWin 依存活玩家組成判定勝負：
// 狼人全滅時好人獲勝；存活狼人數大於等於存活好人數時狼人獲勝
// （好人已無法靠投票翻盤）。尚未分出勝負時回傳 false。
func (s *State) CheckWin() (Team, bool) {
	wolves, town := s.CountLivingTeams()
	if wolves == 0 {
		return TeamTown, true
	}
	if wolves >= town {
		return TeamMafia, true
	}
	return TeamNone, false
}
