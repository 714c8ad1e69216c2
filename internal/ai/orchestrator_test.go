package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"wolfnight/internal/config"
	"wolfnight/internal/game"
)

// scriptedProvider 依序回放預設的回答，供重試與保底測試使用
type scriptedProvider struct {
	results []Result
	errs    []error
	calls   int
}

func (p *scriptedProvider) Propose(ctx context.Context, req Request) (Result, error) {
	idx := p.calls
	p.calls++
	if idx >= len(p.results) {
		return Result{}, errors.New("腳本已用盡")
	}
	return p.results[idx], p.errs[idx]
}

func testAIConfig(maxRetries int) config.AIConfig {
	return config.AIConfig{
		Timeout:         200 * time.Millisecond,
		MaxRetries:      maxRetries,
		StaggerMin:      time.Millisecond,
		StaggerMax:      5 * time.Millisecond,
		ChatIntervalMin: time.Millisecond,
		ChatIntervalMax: 5 * time.Millisecond,
		MaxPerRoom:      10,
	}
}

func voteRequest() Request {
	return Request{
		Kind:       DecisionVote,
		PlayerID:   "ai_1",
		PlayerName: "小艾",
		Role:       game.RoleVillager,
		Team:       game.TeamTown,
		Phase:      game.PhaseVoting,
		Round:      1,
		ValidTargets: []TargetRef{
			{ID: "user_1", Name: "小明"},
			{ID: "user_2", Name: "小華"},
			{ID: "ai_2", Name: "阿傑"},
		},
	}
}

func containsTarget(targets []TargetRef, id string) bool {
	for _, target := range targets {
		if target.ID == id {
			return true
		}
	}
	return false
}

func TestDecideSuccess(t *testing.T) {
	provider := &scriptedProvider{
		results: []Result{{TargetID: "user_2"}},
		errs:    []error{nil},
	}
	orch := NewOrchestrator(provider, testAIConfig(2), 7)

	result := orch.Decide(context.Background(), voteRequest())
	if result.TargetID != "user_2" {
		t.Fatalf("應採用供應端的回答，實際 %q", result.TargetID)
	}
	if result.Fallback {
		t.Fatalf("成功的決策不應標記保底")
	}
	if provider.calls != 1 {
		t.Fatalf("成功時應只呼叫一次，實際 %d", provider.calls)
	}
	if orch.ConsecutiveFailures("ai_1") != 0 {
		t.Fatalf("成功後連續失敗次數應歸零")
	}
}

func TestDecideRetriesThenSucceeds(t *testing.T) {
	provider := &scriptedProvider{
		results: []Result{{}, {TargetID: "ai_2"}},
		errs:    []error{errors.New("暫時性錯誤"), nil},
	}
	orch := NewOrchestrator(provider, testAIConfig(2), 7)

	result := orch.Decide(context.Background(), voteRequest())
	if result.TargetID != "ai_2" {
		t.Fatalf("重試後應採用供應端的回答，實際 %q", result.TargetID)
	}
	if provider.calls != 2 {
		t.Fatalf("應呼叫兩次，實際 %d", provider.calls)
	}
}

func TestDecideFallbackOnExhaustedRetries(t *testing.T) {
	provider := &scriptedProvider{
		results: []Result{{}, {}},
		errs:    []error{errors.New("失敗一"), errors.New("失敗二")},
	}
	orch := NewOrchestrator(provider, testAIConfig(1), 7)

	req := voteRequest()
	result := orch.Decide(context.Background(), req)
	if !result.Fallback {
		t.Fatalf("重試用盡後應標記保底")
	}
	if !containsTarget(req.ValidTargets, result.TargetID) {
		t.Fatalf("保底目標 %q 必須在候選集合內", result.TargetID)
	}
	if orch.ConsecutiveFailures("ai_1") != 1 {
		t.Fatalf("保底後連續失敗次數應為 1，實際 %d", orch.ConsecutiveFailures("ai_1"))
	}
}

func TestDecideRejectsInvalidChoice(t *testing.T) {
	// 供應端回答不在候選集合內的目標，應視同失敗並保底
	provider := &scriptedProvider{
		results: []Result{{TargetID: "不存在的玩家"}},
		errs:    []error{nil},
	}
	orch := NewOrchestrator(provider, testAIConfig(0), 7)

	req := voteRequest()
	result := orch.Decide(context.Background(), req)
	if !result.Fallback {
		t.Fatalf("非法目標應觸發保底")
	}
	if !containsTarget(req.ValidTargets, result.TargetID) {
		t.Fatalf("保底目標 %q 必須在候選集合內", result.TargetID)
	}
}

func TestDecideChatFallbackStaysSilent(t *testing.T) {
	provider := &scriptedProvider{
		results: []Result{{}},
		errs:    []error{errors.New("服務不可用")},
	}
	orch := NewOrchestrator(provider, testAIConfig(0), 7)

	req := voteRequest()
	req.Kind = DecisionChat
	req.ValidTargets = nil
	result := orch.Decide(context.Background(), req)
	if result.Send {
		t.Fatalf("聊天保底應保持沉默")
	}
	if !result.Fallback {
		t.Fatalf("聊天保底應標記保底")
	}
}

func TestConsecutiveFailuresAccumulateAndReset(t *testing.T) {
	provider := &scriptedProvider{
		results: []Result{{}, {}, {TargetID: "user_1"}},
		errs:    []error{errors.New("一"), errors.New("二"), nil},
	}
	orch := NewOrchestrator(provider, testAIConfig(0), 7)

	orch.Decide(context.Background(), voteRequest())
	orch.Decide(context.Background(), voteRequest())
	if orch.ConsecutiveFailures("ai_1") != 2 {
		t.Fatalf("連續失敗次數應為 2，實際 %d", orch.ConsecutiveFailures("ai_1"))
	}
	orch.Decide(context.Background(), voteRequest())
	if orch.ConsecutiveFailures("ai_1") != 0 {
		t.Fatalf("成功後連續失敗次數應歸零")
	}
}

func TestExtractTargetID(t *testing.T) {
	valid := []TargetRef{
		{ID: "user_1", Name: "小明"},
		{ID: "ai_2", Name: "阿傑"},
	}

	cases := []struct {
		answer string
		want   string
	}{
		{"user_1", "user_1"},
		{"我投 user_1 一票", "user_1"},
		{"targetId: ai_2", "ai_2"},
		{"完全無關的回答", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractTargetID(tc.answer, valid); got != tc.want {
			t.Fatalf("ExtractTargetID(%q) 應為 %q，實際 %q", tc.answer, tc.want, got)
		}
	}
}

func TestUpdateNotesKeepsOldOnFailure(t *testing.T) {
	provider := &scriptedProvider{
		results: []Result{{}},
		errs:    []error{errors.New("服務不可用")},
	}
	orch := NewOrchestrator(provider, testAIConfig(0), 7)

	req := Request{Kind: DecisionNotes, PlayerID: "ai_1", PlayerName: "小艾", Notes: "第 1 回合：小明可疑。"}
	notes := orch.UpdateNotes(context.Background(), req)
	if notes != req.Notes {
		t.Fatalf("更新失敗時應保留舊筆記，實際 %q", notes)
	}
}

func TestUpdateNotesTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 1000; i++ {
		long += fmt.Sprintf("觀察 %d。", i)
	}
	provider := &scriptedProvider{
		results: []Result{{Message: long}},
		errs:    []error{nil},
	}
	orch := NewOrchestrator(provider, testAIConfig(0), 7)

	notes := orch.UpdateNotes(context.Background(), Request{Kind: DecisionNotes, PlayerID: "ai_1"})
	if len(notes) > maxNotesChars+3 {
		t.Fatalf("筆記應被截斷至上限附近，實際長度 %d", len(notes))
	}
}

func TestActionDelayWithinWindow(t *testing.T) {
	orch := NewOrchestrator(&scriptedProvider{}, testAIConfig(0), 7)
	duration := 30 * time.Second
	for i := 0; i < 50; i++ {
		delay := orch.ActionDelay(duration, 0.4, 0.8)
		if delay < 12*time.Second || delay > 24*time.Second {
			t.Fatalf("延遲 %v 超出 40%%～80%% 區間", delay)
		}
	}
}

func TestStaggerWithinRange(t *testing.T) {
	cfg := testAIConfig(0)
	cfg.StaggerMin = 500 * time.Millisecond
	cfg.StaggerMax = time.Second
	orch := NewOrchestrator(&scriptedProvider{}, cfg, 7)
	for i := 0; i < 50; i++ {
		d := orch.Stagger()
		if d < cfg.StaggerMin || d > cfg.StaggerMax {
			t.Fatalf("錯開延遲 %v 超出設定範圍", d)
		}
	}
}
