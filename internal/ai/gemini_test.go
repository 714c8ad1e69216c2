package ai

import (
	"strings"
	"testing"

	"wolfnight/internal/game"
)

func TestParseJSONResponsePlain(t *testing.T) {
	payload, err := parseJSONResponse(`{"targetId": "user_1"}`)
	if err != nil {
		t.Fatalf("純 JSON 應可解析: %v", err)
	}
	if payload.TargetID != "user_1" {
		t.Fatalf("targetId 解析錯誤，實際 %q", payload.TargetID)
	}
}

func TestParseJSONResponseCodeBlock(t *testing.T) {
	text := "好的，我的決定如下：\n```json\n{\"send\": true, \"message\": \"我覺得小明可疑\"}\n```"
	payload, err := parseJSONResponse(text)
	if err != nil {
		t.Fatalf("程式碼區塊包裝的 JSON 應可解析: %v", err)
	}
	if !payload.Send || payload.Message != "我覺得小明可疑" {
		t.Fatalf("解析結果錯誤: %+v", payload)
	}
}

func TestParseJSONResponseEmbedded(t *testing.T) {
	text := `我思考後決定 {"targetId": "ai_2"} 謝謝`
	payload, err := parseJSONResponse(text)
	if err != nil {
		t.Fatalf("夾帶在文字中的 JSON 應可解析: %v", err)
	}
	if payload.TargetID != "ai_2" {
		t.Fatalf("targetId 解析錯誤，實際 %q", payload.TargetID)
	}
}

func TestParseJSONResponseGarbage(t *testing.T) {
	if _, err := parseJSONResponse("完全不是 JSON 的回答"); err == nil {
		t.Fatalf("無法解析時應回傳錯誤")
	}
}

func TestBuildPromptIncludesContext(t *testing.T) {
	req := Request{
		Kind:       DecisionVote,
		PlayerID:   "ai_1",
		PlayerName: "小艾",
		Role:       game.RoleSeer,
		Team:       game.TeamTown,
		Phase:      game.PhaseVoting,
		Round:      2,
		Alive: []TargetRef{
			{ID: "ai_1", Name: "小艾"},
			{ID: "user_1", Name: "小明"},
		},
		ValidTargets: []TargetRef{{ID: "user_1", Name: "小明"}},
		SeerReveals:  []SeerMemory{{TargetName: "小明", IsWerewolf: true}},
		Notes:        "小明昨天帶風向。",
	}

	prompt := buildPrompt(req)
	for _, fragment := range []string{"小艾", "預言家", "第 2 回合", "小明 是狼人", "小明昨天帶風向", "targetId", "user_1"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("提示內容應包含 %q，實際：\n%s", fragment, prompt)
		}
	}
}

func TestBuildPromptWolfSeesFellows(t *testing.T) {
	req := Request{
		Kind:         DecisionNight,
		PlayerID:     "ai_1",
		PlayerName:   "小艾",
		Role:         game.RoleWerewolf,
		Team:         game.TeamMafia,
		Phase:        game.PhaseNight,
		Round:        1,
		FellowWolves: []string{"阿傑"},
		ValidTargets: []TargetRef{{ID: "user_1", Name: "小明"}},
	}

	prompt := buildPrompt(req)
	if !strings.Contains(prompt, "阿傑") {
		t.Fatalf("狼人提示應包含同伴名單")
	}
	if !strings.Contains(prompt, "攻擊") {
		t.Fatalf("狼人的夜晚提示應說明攻擊任務")
	}
}
