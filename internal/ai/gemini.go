package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"wolfnight/internal/game"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// GeminiProvider 以 Gemini API 作為決策供應端
type GeminiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

// NewGeminiProvider 建立 Gemini 供應端。單次請求的逾時
// 由呼叫端的 context 控制。
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}
}

func (g *GeminiProvider) Propose(ctx context.Context, req Request) (Result, error) {
	prompt := buildPrompt(req)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return Result{}, err
	}

	payload, err := parseJSONResponse(text)
	if err != nil {
		return Result{}, err
	}

	switch req.Kind {
	case DecisionChat:
		return Result{Send: payload.Send, Message: payload.Message}, nil
	case DecisionVote, DecisionNight:
		return Result{TargetID: payload.TargetID}, nil
	case DecisionNotes:
		return Result{Message: payload.Notes}, nil
	default:
		return Result{}, fmt.Errorf("未知的決策類型 %q", req.Kind)
	}
}

// generate 呼叫 Gemini generateContent 端點並取出第一個候選回答
func (g *GeminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.7,
			"maxOutputTokens":  1024,
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf(geminiEndpoint+"?key=%s", g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini 回應狀態碼 %d", resp.StatusCode)
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("Gemini 回應為空")
}

// decisionPayload 為模型回答的統一結構，各決策類型只使用部分欄位
type decisionPayload struct {
	TargetID string `json:"targetId"`
	Send     bool   `json:"send"`
	Message  string `json:"message"`
	Notes    string `json:"notes"`
}

var codeBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// parseJSONResponse 解析模型回答，容忍 markdown 程式碼區塊包裝
func parseJSONResponse(text string) (decisionPayload, error) {
	var payload decisionPayload
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return payload, nil
	}

	if match := codeBlockPattern.FindStringSubmatch(text); match != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &payload); err == nil {
			return payload, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err == nil {
			return payload, nil
		}
	}

	return payload, fmt.Errorf("模型回答中找不到合法 JSON")
}

// buildPrompt 組出一次決策所需的最小提示內容
func buildPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "你正在玩狼人殺。你是 %s（編號 %s），角色是 %s，陣營是 %s。\n",
		req.PlayerName, req.PlayerID, req.Role.Label(), req.Team.Label())
	fmt.Fprintf(&sb, "目前為第 %d 回合的%s階段。\n", req.Round, req.Phase.Label())

	sb.WriteString("存活玩家：")
	for i, p := range req.Alive {
		if i > 0 {
			sb.WriteString("、")
		}
		fmt.Fprintf(&sb, "%s(id=%s)", p.Name, p.ID)
	}
	sb.WriteString("\n")

	if len(req.FellowWolves) > 0 {
		fmt.Fprintf(&sb, "你的狼人同伴：%s\n", strings.Join(req.FellowWolves, "、"))
	}
	for _, reveal := range req.SeerReveals {
		verdict := "不是狼人"
		if reveal.IsWerewolf {
			verdict = "是狼人"
		}
		fmt.Fprintf(&sb, "查驗紀錄：%s %s。\n", reveal.TargetName, verdict)
	}
	if req.Notes != "" {
		fmt.Fprintf(&sb, "你的筆記：\n%s\n", req.Notes)
	}
	if len(req.Messages) > 0 {
		sb.WriteString("最近的討論：\n")
		messages := req.Messages
		if len(messages) > 20 {
			messages = messages[len(messages)-20:]
		}
		for _, msg := range messages {
			fmt.Fprintf(&sb, "%s：%s\n", msg.PlayerName, msg.Content)
		}
	}
	if len(req.VoteCounts) > 0 {
		sb.WriteString("目前票數：")
		for id, count := range req.VoteCounts {
			fmt.Fprintf(&sb, " %s=%d", id, count)
		}
		sb.WriteString("\n")
	}

	switch req.Kind {
	case DecisionChat:
		fmt.Fprintf(&sb, "你本階段已發言 %d 次（上限 %d）。決定是否發言，只回傳 JSON："+
			`{"send": true或false, "message": "發言內容"}`, req.MessagesSent, req.MaxMessages)
	case DecisionVote:
		sb.WriteString("從候選目標中選出你要投票放逐的對象，只回傳 JSON：" + `{"targetId": "目標id"}` + "\n候選目標：")
		writeTargets(&sb, req.ValidTargets)
	case DecisionNight:
		switch req.Role {
		case game.RoleWerewolf:
			sb.WriteString("選出今晚要攻擊的對象")
		case game.RoleSeer:
			sb.WriteString("選出今晚要查驗的對象")
		case game.RoleDoctor:
			sb.WriteString("選出今晚要保護的對象")
		}
		sb.WriteString("，只回傳 JSON：" + `{"targetId": "目標id"}` + "\n候選目標：")
		writeTargets(&sb, req.ValidTargets)
	case DecisionNotes:
		sb.WriteString("根據目前局勢更新你的推理筆記（保留重要結論、刪除過時資訊），只回傳 JSON：" + `{"notes": "新筆記"}`)
	}

	return sb.String()
}

func writeTargets(sb *strings.Builder, targets []TargetRef) {
	for i, target := range targets {
		if i > 0 {
			sb.WriteString("、")
		}
		fmt.Fprintf(sb, "%s(id=%s)", target.Name, target.ID)
	}
}
