package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"wolfnight/internal/ai"
	"wolfnight/internal/config"
	"wolfnight/internal/game"
	"wolfnight/internal/store"
)

const (
	// 每名 AI 在單一白天階段的發言上限
	aiMaxMessagesPerDay = 3
	// 討論訊息的長度上限
	maxChatLength = 300
	// 終局後停留在結算畫面的時間
	endedLinger = 10 * time.Second
)

// Room 負責管理單一遊戲房間的生命週期。
// 所有狀態修改都在 mu 之下進行；phaseSeq 在每次階段切換時遞增，
// 讓計時器與 AI 決策的回呼能辨識並丟棄過期的結果。
type Room struct {
	id   string
	name string
	hub  *Hub

	mu      sync.Mutex
	state   *game.State
	clients map[string]*Client
	agents  map[string]*ai.Agent

	phaseSeq    int
	phaseTimer  *time.Timer
	phaseCtx    context.Context
	phaseCancel context.CancelFunc

	rng   *rand.Rand
	orch  *ai.Orchestrator
	store *store.Store
	cfg   config.Config
}

// NewRoom 建立房間，seed 為 0 時使用目前時間
func NewRoom(id, name string, hub *Hub, cfg config.Config, orch *ai.Orchestrator, st *store.Store, seed int64) *Room {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Room{
		id:      id,
		name:    name,
		hub:     hub,
		state:   game.NewState(id),
		clients: make(map[string]*Client),
		agents:  make(map[string]*ai.Agent),
		rng:     rand.New(rand.NewSource(seed)),
		orch:    orch,
		store:   st,
		cfg:     cfg,
	}
}

func clientPlayerID(c *Client) string {
	return fmt.Sprintf("user_%d", c.userID)
}

// Join 將玩家加入房間；若同帳號的玩家已在局內且無連線，視為重連
func (r *Room) Join(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid := clientPlayerID(c)
	if p := r.state.Player(pid); p != nil {
		if r.clients[pid] != nil {
			return fmt.Errorf("該帳號已有連線在房間內")
		}
		// 重連：若離線期間由 AI 接手，收回控制權
		if p.IsAI() {
			p.Type = game.ParticipantHuman
			delete(r.agents, pid)
		}
		p.Name = c.name
		r.attachClientLocked(c, pid)
		r.sendWelcomeLocked(c)
		if r.state.Phase != game.PhaseLobby && r.state.Phase != game.PhaseEnded {
			r.sendRoleInfoLocked(c, p)
		}
		r.broadcastPublicStateLocked()
		return nil
	}

	if r.state.Phase != game.PhaseLobby {
		return fmt.Errorf("遊戲已開始或結束，無法加入")
	}

	p := &game.Player{ID: pid, Name: c.name, Type: game.ParticipantHuman, Alive: true}
	if err := r.state.AddPlayer(p); err != nil {
		return err
	}
	r.attachClientLocked(c, pid)
	r.assignHostLocked()
	r.sendWelcomeLocked(c)
	r.broadcastLocked(ServerMessage{Type: "player_joined", Payload: PlayerJoinedPayload{PlayerID: pid, Name: p.Name}})
	r.broadcastPublicStateLocked()
	return nil
}

func (r *Room) attachClientLocked(c *Client, pid string) {
	r.clients[pid] = c
	c.room = r
	c.playerID = pid
	c.inLobby = false
}

// onClientLeft 處理連線離開：大廳直接移除玩家，
// 對局中則交由 AI 接手原角色，房間不會因此卡住。
func (r *Room) onClientLeft(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid := c.playerID
	if pid == "" || r.clients[pid] != c {
		return
	}
	delete(r.clients, pid)

	p := r.state.Player(pid)
	if p == nil {
		return
	}

	switch r.state.Phase {
	case game.PhaseLobby, game.PhaseEnded:
		r.state.RemovePlayer(pid)
		r.broadcastLocked(ServerMessage{Type: "player_left", Payload: PlayerLeftPayload{PlayerID: pid, Name: p.Name}})
		if p.IsHost {
			p.IsHost = false
			r.assignHostLocked()
		}
	default:
		p.Type = game.ParticipantAI
		agent := &ai.Agent{ID: pid, Name: p.Name, MaxMessages: aiMaxMessagesPerDay}
		agent.SetRole(p.Role, p.Team)
		r.agents[pid] = agent
		log.Printf("房間 %s：玩家 %s 離線，由 AI 接手", r.id, p.Name)
		if p.Alive {
			r.scheduleTakeoverLocked(agent)
		}
		if p.IsHost {
			p.IsHost = false
			r.assignHostLocked()
		}
	}
	r.broadcastPublicStateLocked()
}

// assignHostLocked 讓加入順序最前的真人玩家擔任房主
func (r *Room) assignHostLocked() {
	var host *game.Player
	for _, p := range r.state.Players() {
		p.IsHost = false
		if host == nil && p.Type == game.ParticipantHuman && r.clients[p.ID] != nil {
			host = p
		}
	}
	if host == nil {
		return
	}
	host.IsHost = true
	r.broadcastLocked(ServerMessage{Type: "host_changed", Payload: HostChangedPayload{PlayerID: host.ID, Name: host.Name}})
}

func (r *Room) isHost(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.state.Player(c.playerID)
	return p != nil && p.IsHost
}

func (r *Room) summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	hostName := ""
	for _, p := range r.state.Players() {
		if p.IsHost {
			hostName = p.Name
			break
		}
	}
	return RoomSummary{
		RoomID:  r.id,
		Name:    r.name,
		Phase:   string(r.state.Phase),
		Players: r.state.PlayerCount(),
		AICount: r.state.AICount,
		Host:    hostName,
	}
}

func (r *Room) isEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}

// shutdown 在房間被回收時停止計時器與進行中的 AI 請求
func (r *Room) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phaseSeq++
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
	if r.phaseCancel != nil {
		r.phaseCancel()
		r.phaseCancel = nil
	}
}

// SetAICount 由房主在大廳調整 AI 玩家數量，多退少補
func (r *Room) SetAICount(c *Client, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != game.PhaseLobby {
		return fmt.Errorf("僅能在開局前調整 AI 數量")
	}
	p := r.state.Player(c.playerID)
	if p == nil || !p.IsHost {
		return fmt.Errorf("僅房主可調整 AI 數量")
	}
	if count < 0 {
		count = 0
	}
	if count > r.cfg.AI.MaxPerRoom {
		count = r.cfg.AI.MaxPerRoom
	}

	aiPlayers := make([]*game.Player, 0)
	for _, player := range r.state.Players() {
		if player.IsAI() {
			aiPlayers = append(aiPlayers, player)
		}
	}

	for len(aiPlayers) > count {
		last := aiPlayers[len(aiPlayers)-1]
		r.state.RemovePlayer(last.ID)
		delete(r.agents, last.ID)
		aiPlayers = aiPlayers[:len(aiPlayers)-1]
	}

	for len(aiPlayers) < count {
		existing := make([]string, 0, r.state.PlayerCount())
		for _, player := range r.state.Players() {
			existing = append(existing, player.Name)
		}
		id := ai.NewAgentID()
		name := ai.RandomName(r.rng, existing)
		player := &game.Player{ID: id, Name: name, Type: game.ParticipantAI, Alive: true}
		if err := r.state.AddPlayer(player); err != nil {
			return err
		}
		agent := &ai.Agent{ID: id, Name: name, MaxMessages: aiMaxMessagesPerDay}
		if notes, err := r.store.LoadAINotes(r.id, id); err == nil {
			agent.Notes = notes
		}
		r.agents[id] = agent
		aiPlayers = append(aiPlayers, player)
	}

	r.state.AICount = count
	r.broadcastPublicStateLocked()
	return nil
}

// StartGame 由房主觸發正式開局
func (r *Room) StartGame(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.state.Player(c.playerID)
	if p == nil || !p.IsHost {
		return fmt.Errorf("僅房主可開始遊戲")
	}
	if err := r.state.AssignRoles(r.rng); err != nil {
		return err
	}

	for _, player := range r.state.Players() {
		if agent := r.agents[player.ID]; agent != nil {
			agent.SetRole(player.Role, player.Team)
			continue
		}
		if client := r.clients[player.ID]; client != nil {
			r.sendRoleInfoLocked(client, player)
		}
	}

	r.state.Round = 1
	log.Printf("房間 %s 開局：%d 名玩家（AI %d 名）", r.id, r.state.PlayerCount(), r.state.AICount)
	r.transitionLocked(game.PhaseDay)
	return nil
}

// sendRoleInfoLocked 私下告知玩家角色；狼人另外取得同伴名單
func (r *Room) sendRoleInfoLocked(c *Client, p *game.Player) {
	payload := GameStartedPayload{Role: p.Role, RoleLabel: p.Role.Label(), Team: p.Team}
	if p.Role == game.RoleWerewolf {
		payload.WerewolfIDs = r.state.WerewolfIDs()
	}
	r.sendToLocked(c, ServerMessage{Type: "game_started", Payload: payload})
}

// SkipToVoting 由房主提前結束白天討論
func (r *Room) SkipToVoting(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.state.Player(c.playerID)
	if p == nil || !p.IsHost {
		return fmt.Errorf("僅房主可跳過討論")
	}
	if r.state.Phase != game.PhaseDay {
		return fmt.Errorf("目前不在白天階段")
	}
	r.transitionLocked(game.PhaseVoting)
	return nil
}

// HandleVote 處理放逐投票，真人與 AI 走同一條驗證路徑
func (r *Room) HandleVote(c *Client, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if targetID == "" {
		targetID = game.VoteAbstain
	}
	if err := r.state.SubmitVote(c.playerID, targetID); err != nil {
		return err
	}
	r.afterVoteLocked()
	return nil
}

func (r *Room) afterVoteLocked() {
	r.broadcastLocked(ServerMessage{Type: "vote_update", Payload: VoteUpdatePayload{Counts: r.state.VoteCounts()}})
	if r.state.AllAliveVoted() {
		r.finalizeVotingLocked()
	}
}

// HandleNightAction 處理夜晚行動
func (r *Room) HandleNightAction(c *Client, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.state.SubmitNightAction(c.playerID, targetID); err != nil {
		return err
	}
	r.afterNightActionLocked(c.playerID)
	return nil
}

func (r *Room) afterNightActionLocked(actorID string) {
	if p := r.state.Player(actorID); p != nil && p.Role == game.RoleWerewolf {
		r.sendToWolvesLocked(ServerMessage{Type: "werewolf_vote_update", Payload: VoteUpdatePayload{Counts: r.state.WerewolfVoteCounts()}})
	}
	if r.state.AllNightActionsIn() {
		r.finalizeNightLocked()
	}
}

// HandleChat 處理白天討論訊息；死亡玩家與非白天階段一律拒絕
func (r *Room) HandleChat(c *Client, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("訊息不可為空")
	}
	if len(content) > maxChatLength {
		return fmt.Errorf("訊息過長")
	}
	if r.state.Phase != game.PhaseDay {
		return game.ErrWrongPhase
	}
	p := r.state.Player(c.playerID)
	if p == nil {
		return game.ErrUnknownPlayer
	}
	if !p.Alive {
		return game.ErrDeadActor
	}

	r.appendMessageLocked(p.ID, p.Name, content)
	return nil
}

func (r *Room) appendMessageLocked(playerID, name, content string) {
	msg := game.ChatMessage{PlayerID: playerID, PlayerName: name, Content: content, Timestamp: time.Now()}
	r.state.AddMessage(msg)
	r.broadcastLocked(ServerMessage{Type: "new_message", Payload: NewMessagePayload{Message: msg}})
}

// transitionLocked 切換階段：遞增 phaseSeq 使所有舊的計時器與
// AI 回呼失效，重設階段資料，廣播並啟動新階段的計時與 AI 排程。
func (r *Room) transitionLocked(phase game.Phase) {
	r.phaseSeq++
	seq := r.phaseSeq
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
	if r.phaseCancel != nil {
		r.phaseCancel()
		r.phaseCancel = nil
	}

	r.state.Phase = phase
	var duration time.Duration
	switch phase {
	case game.PhaseDay:
		duration = r.cfg.DayDuration
		r.state.ClearVotes()
		for _, agent := range r.agents {
			agent.ResetForNewDay()
		}
	case game.PhaseVoting:
		duration = r.cfg.VotingDuration
		r.state.ClearVotes()
	case game.PhaseNight:
		duration = r.cfg.NightDuration
		r.state.ClearNightActions()
	}

	payload := PhaseChangedPayload{
		Phase:       phase,
		PhaseLabel:  phase.Label(),
		Duration:    int(duration / time.Second),
		RoundNumber: r.state.Round,
	}
	if duration > 0 {
		r.state.Deadline = time.Now().Add(duration)
		deadline := r.state.Deadline
		payload.EndsAt = &deadline
		r.phaseTimer = time.AfterFunc(duration, func() {
			r.onPhaseTimeout(seq)
		})
	} else {
		r.state.Deadline = time.Time{}
	}

	r.broadcastLocked(ServerMessage{Type: "phase_changed", Payload: payload})
	r.broadcastPublicStateLocked()

	ctx, cancel := context.WithCancel(context.Background())
	r.phaseCtx = ctx
	r.phaseCancel = cancel
	r.scheduleAIForPhaseLocked(duration)
}

// onPhaseTimeout 由階段計時器觸發；seq 不符表示階段已提前結束
func (r *Room) onPhaseTimeout(seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.phaseSeq {
		return
	}
	switch r.state.Phase {
	case game.PhaseDay:
		r.transitionLocked(game.PhaseVoting)
	case game.PhaseVoting:
		r.finalizeVotingLocked()
	case game.PhaseNight:
		r.finalizeNightLocked()
	}
}

// finalizeVotingLocked 結算放逐投票並推進到夜晚或終局
func (r *Room) finalizeVotingLocked() {
	outcome := r.state.FinalizeVotes()
	if outcome.EliminatedID != "" {
		p := r.state.Player(outcome.EliminatedID)
		p.Alive = false
		id := p.ID
		r.broadcastLocked(ServerMessage{Type: "player_eliminated", Payload: PlayerEliminatedPayload{PlayerID: &id, Name: p.Name, Role: p.Role}})
	} else {
		r.broadcastLocked(ServerMessage{Type: "player_eliminated", Payload: PlayerEliminatedPayload{Tie: outcome.Tie}})
	}

	if winner, ended := r.state.CheckWin(); ended {
		r.endGameLocked(winner)
		return
	}
	r.transitionLocked(game.PhaseNight)
}

// finalizeNightLocked 結算夜晚行動並推進到新的白天或終局
func (r *Room) finalizeNightLocked() {
	outcome := r.state.ResolveNight()

	for _, death := range outcome.Deaths {
		if p := r.state.Player(death.ID); p != nil {
			p.Alive = false
		}
	}

	if outcome.Reveal != nil {
		r.deliverSeerResultLocked(outcome.Reveal)
	}

	deaths := make([]DeathView, 0, len(outcome.Deaths))
	for _, death := range outcome.Deaths {
		if p := r.state.Player(death.ID); p != nil {
			deaths = append(deaths, DeathView{PlayerID: p.ID, Name: p.Name, Role: death.Role})
		}
	}
	saved := outcome.AttackTargetID != "" && outcome.AttackTargetID == outcome.ProtectedID
	r.broadcastLocked(ServerMessage{Type: "night_result", Payload: NightResultPayload{Deaths: deaths, Saved: saved}})

	if winner, ended := r.state.CheckWin(); ended {
		r.endGameLocked(winner)
		return
	}
	r.state.Round++
	r.transitionLocked(game.PhaseDay)
}

// deliverSeerResultLocked 將查驗結果私下交給預言家本人
func (r *Room) deliverSeerResultLocked(reveal *game.SeerReveal) {
	target := r.state.Player(reveal.TargetID)
	if target == nil {
		return
	}
	isWolf := reveal.Role == game.RoleWerewolf
	if agent := r.agents[reveal.SeerID]; agent != nil {
		agent.AddSeerReveal(target.Name, isWolf)
		return
	}
	if c := r.clients[reveal.SeerID]; c != nil {
		r.sendToLocked(c, ServerMessage{Type: "seer_result", Payload: SeerResultPayload{
			TargetID:   target.ID,
			TargetName: target.Name,
			Role:       reveal.Role,
			IsWerewolf: isWolf,
		}})
	}
}

// endGameLocked 結束對局，公開所有角色並在片刻後重回大廳
func (r *Room) endGameLocked(winner game.Team) {
	r.phaseSeq++
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
	if r.phaseCancel != nil {
		r.phaseCancel()
		r.phaseCancel = nil
	}
	r.state.Phase = game.PhaseEnded
	r.state.Deadline = time.Time{}

	snapshot := r.state.BuildEndSnapshot(winner)
	r.broadcastLocked(ServerMessage{Type: "game_ended", Payload: GameEndedPayload{
		Winner:      winner,
		WinnerLabel: winner.Label(),
		Players:     snapshot.Players,
	}})
	r.broadcastPublicStateLocked()
	log.Printf("房間 %s 對局結束，%s獲勝", r.id, winner.Label())

	if err := r.store.ClearRoomNotes(r.id); err != nil {
		log.Printf("清除房間 %s 的 AI 筆記失敗: %v", r.id, err)
	}

	seq := r.phaseSeq
	time.AfterFunc(endedLinger, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if seq != r.phaseSeq || r.state.Phase != game.PhaseEnded {
			return
		}
		r.resetToLobbyLocked()
	})
}

func (r *Room) resetToLobbyLocked() {
	r.state.Phase = game.PhaseLobby
	r.state.Round = 0
	r.state.Deadline = time.Time{}
	r.state.ClearVotes()
	r.state.ClearNightActions()
	r.state.Messages = nil
	for _, p := range r.state.Players() {
		p.Role = game.RoleNone
		p.Team = game.TeamNone
		p.Alive = true
	}
	for _, agent := range r.agents {
		agent.SetRole(game.RoleNone, game.TeamNone)
		agent.SeerReveals = nil
		agent.Notes = ""
		agent.ResetForNewDay()
	}
	r.broadcastPublicStateLocked()
}

// ---- 訊息傳送 ----

func (r *Room) sendWelcomeLocked(c *Client) {
	r.sendToLocked(c, ServerMessage{Type: "welcome", Payload: map[string]interface{}{
		"roomId":      r.id,
		"roomName":    r.name,
		"playerId":    c.playerID,
		"displayName": c.name,
	}})
	r.sendToLocked(c, ServerMessage{Type: "public_state", Payload: PublicStatePayload{
		RoomName: r.name,
		Snapshot: r.state.BuildPublicSnapshot(),
	}})
}

func (r *Room) broadcastPublicStateLocked() {
	r.broadcastLocked(ServerMessage{Type: "public_state", Payload: PublicStatePayload{
		RoomName: r.name,
		Snapshot: r.state.BuildPublicSnapshot(),
	}})
}

func (r *Room) broadcastLocked(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, c := range r.clients {
		select {
		case c.send <- data:
		default:
			go c.close()
		}
	}
}

// sendToWolvesLocked 僅推送給狼人陣營的真人連線
func (r *Room) sendToWolvesLocked(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for pid, c := range r.clients {
		p := r.state.Player(pid)
		if p == nil || p.Role != game.RoleWerewolf {
			continue
		}
		select {
		case c.send <- data:
		default:
			go c.close()
		}
	}
}

func (r *Room) sendToLocked(c *Client, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		go c.close()
	}
}

// ---- AI 排程 ----

// scheduleAIForPhaseLocked 為目前階段啟動所有 AI 的行動排程。
// 白天輪詢聊天、投票階段在 50%～90% 的時間點投票、
// 夜晚在 40%～80% 的時間點行動並更新推理筆記。
func (r *Room) scheduleAIForPhaseLocked(duration time.Duration) {
	ctx := r.phaseCtx
	seq := r.phaseSeq

	switch r.state.Phase {
	case game.PhaseDay:
		for _, agent := range r.agents {
			if p := r.state.Player(agent.ID); p != nil && p.Alive {
				r.spawnChatLoop(ctx, seq, agent.ID)
			}
		}
	case game.PhaseVoting:
		for _, agent := range r.agents {
			if p := r.state.Player(agent.ID); p != nil && p.Alive {
				r.spawnVote(ctx, seq, agent.ID, r.orch.ActionDelay(duration, 0.5, 0.9))
			}
		}
	case game.PhaseNight:
		for _, agent := range r.agents {
			p := r.state.Player(agent.ID)
			if p == nil || !p.Alive {
				continue
			}
			switch p.Role {
			case game.RoleWerewolf, game.RoleSeer, game.RoleDoctor:
				r.spawnNightAction(ctx, seq, agent.ID, r.orch.ActionDelay(duration, 0.4, 0.8))
			}
			r.spawnNotesUpdate(ctx, seq, agent.ID, r.orch.ActionDelay(duration, 0.1, 0.3))
		}
	}
}

// scheduleTakeoverLocked 為接手離線玩家的 AI 補上本階段的行動
func (r *Room) scheduleTakeoverLocked(agent *ai.Agent) {
	if r.phaseCtx == nil {
		return
	}
	ctx := r.phaseCtx
	seq := r.phaseSeq
	remaining := time.Until(r.state.Deadline)
	if remaining < 0 {
		remaining = 0
	}

	switch r.state.Phase {
	case game.PhaseDay:
		r.spawnChatLoop(ctx, seq, agent.ID)
	case game.PhaseVoting:
		if !r.state.HasVoted(agent.ID) {
			r.spawnVote(ctx, seq, agent.ID, r.orch.Stagger()+r.orch.ActionDelay(remaining, 0.2, 0.6))
		}
	case game.PhaseNight:
		switch agent.Role {
		case game.RoleWerewolf, game.RoleSeer, game.RoleDoctor:
			if !r.state.HasNightAction(agent.ID) {
				r.spawnNightAction(ctx, seq, agent.ID, r.orch.Stagger()+r.orch.ActionDelay(remaining, 0.2, 0.6))
			}
		}
	}
}

// spawnChatLoop 以隨機間隔輪詢一名 AI 是否發言，直到階段結束
func (r *Room) spawnChatLoop(ctx context.Context, seq int, agentID string) {
	stagger := r.orch.Stagger()
	go func() {
		if !sleepCtx(ctx, stagger) {
			return
		}
		for {
			if !sleepCtx(ctx, r.orch.ChatInterval()) {
				return
			}
			req, ok := r.decisionRequest(agentID, ai.DecisionChat, seq)
			if !ok {
				return
			}
			result := r.orch.Decide(ctx, req)
			if ctx.Err() != nil {
				return
			}
			if !result.Send || strings.TrimSpace(result.Message) == "" {
				continue
			}
			r.submitAIChat(agentID, result.Message, seq)
		}
	}()
}

func (r *Room) spawnVote(ctx context.Context, seq int, agentID string, delay time.Duration) {
	stagger := r.orch.Stagger()
	go func() {
		if !sleepCtx(ctx, delay+stagger) {
			return
		}
		req, ok := r.decisionRequest(agentID, ai.DecisionVote, seq)
		if !ok {
			return
		}
		result := r.orch.Decide(ctx, req)
		if ctx.Err() != nil {
			return
		}
		r.submitAIVote(agentID, result.TargetID, seq)
	}()
}

func (r *Room) spawnNightAction(ctx context.Context, seq int, agentID string, delay time.Duration) {
	stagger := r.orch.Stagger()
	go func() {
		if !sleepCtx(ctx, delay+stagger) {
			return
		}
		req, ok := r.decisionRequest(agentID, ai.DecisionNight, seq)
		if !ok {
			return
		}
		result := r.orch.Decide(ctx, req)
		if ctx.Err() != nil {
			return
		}
		r.submitAINightAction(agentID, result.TargetID, seq)
	}()
}

// spawnNotesUpdate 讓 AI 在夜晚整理推理筆記並持久化
func (r *Room) spawnNotesUpdate(ctx context.Context, seq int, agentID string, delay time.Duration) {
	go func() {
		if !sleepCtx(ctx, delay) {
			return
		}
		req, ok := r.decisionRequest(agentID, ai.DecisionNotes, seq)
		if !ok {
			return
		}
		notes := r.orch.UpdateNotes(ctx, req)
		if ctx.Err() != nil {
			return
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if seq != r.phaseSeq {
			return
		}
		agent := r.agents[agentID]
		if agent == nil {
			return
		}
		agent.Notes = notes
		if err := r.store.SaveAINotes(r.id, agentID, notes); err != nil {
			log.Printf("保存 AI %s 筆記失敗: %v", agent.Name, err)
		}
	}()
}

// sleepCtx 等待指定時間，ctx 取消時回傳 false
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// decisionRequest 在鎖內組出一次決策的完整上下文；
// seq 不符或玩家已死亡時回傳 false，呼叫端直接放棄。
func (r *Room) decisionRequest(agentID string, kind ai.DecisionKind, seq int) (ai.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.phaseSeq {
		return ai.Request{}, false
	}
	agent := r.agents[agentID]
	p := r.state.Player(agentID)
	if agent == nil || p == nil || !p.Alive {
		return ai.Request{}, false
	}

	req := ai.Request{
		Kind:         kind,
		PlayerID:     agent.ID,
		PlayerName:   agent.Name,
		Role:         agent.Role,
		Team:         agent.Team,
		Phase:        r.state.Phase,
		Round:        r.state.Round,
		SeerReveals:  agent.SeerReveals,
		Messages:     r.state.Messages,
		Notes:        agent.Notes,
		MessagesSent: agent.MessagesSent,
		MaxMessages:  agent.MaxMessages,
	}

	for _, player := range r.state.Players() {
		ref := ai.TargetRef{ID: player.ID, Name: player.Name}
		if player.Alive {
			req.Alive = append(req.Alive, ref)
		} else {
			req.Dead = append(req.Dead, ref)
		}
	}

	if agent.Role == game.RoleWerewolf {
		for _, id := range r.state.WerewolfIDs() {
			if id == agent.ID {
				continue
			}
			if wolf := r.state.Player(id); wolf != nil {
				req.FellowWolves = append(req.FellowWolves, wolf.Name)
			}
		}
	}

	switch kind {
	case ai.DecisionVote:
		req.VoteCounts = r.state.VoteCounts()
		for _, player := range r.state.AlivePlayers() {
			if player.ID != agent.ID {
				req.ValidTargets = append(req.ValidTargets, ai.TargetRef{ID: player.ID, Name: player.Name})
			}
		}
	case ai.DecisionNight:
		if agent.Role == game.RoleWerewolf {
			req.VoteCounts = r.state.WerewolfVoteCounts()
		}
		for _, player := range r.state.AlivePlayers() {
			valid := false
			switch agent.Role {
			case game.RoleWerewolf:
				valid = player.Role != game.RoleWerewolf
			case game.RoleSeer:
				valid = player.ID != agent.ID
			case game.RoleDoctor:
				valid = true
			}
			if valid {
				req.ValidTargets = append(req.ValidTargets, ai.TargetRef{ID: player.ID, Name: player.Name})
			}
		}
	}

	return req, true
}

// submitAIChat 在鎖內重新驗證階段後送出 AI 的發言
func (r *Room) submitAIChat(agentID, content string, seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.phaseSeq || r.state.Phase != game.PhaseDay {
		return
	}
	agent := r.agents[agentID]
	p := r.state.Player(agentID)
	if agent == nil || p == nil || !p.Alive {
		return
	}
	if agent.MaxMessages > 0 && agent.MessagesSent >= agent.MaxMessages {
		return
	}
	if len(content) > maxChatLength {
		content = content[:maxChatLength]
	}
	agent.MessagesSent++
	r.appendMessageLocked(p.ID, p.Name, content)
}

// submitAIVote 走與真人相同的驗證與結算路徑
func (r *Room) submitAIVote(agentID, targetID string, seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.phaseSeq || r.state.Phase != game.PhaseVoting {
		return
	}
	if targetID == "" {
		targetID = game.VoteAbstain
	}
	if err := r.state.SubmitVote(agentID, targetID); err != nil {
		log.Printf("AI %s 投票被拒: %v", agentID, err)
		return
	}
	r.afterVoteLocked()
}

func (r *Room) submitAINightAction(agentID, targetID string, seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.phaseSeq || r.state.Phase != game.PhaseNight {
		return
	}
	if targetID == "" {
		return
	}
	if err := r.state.SubmitNightAction(agentID, targetID); err != nil {
		log.Printf("AI %s 夜晚行動被拒: %v", agentID, err)
		return
	}
	r.afterNightActionLocked(agentID)
}
