package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"wolfnight/internal/game"
)

// 白天討論的預設台詞，保底與無金鑰模式共用
var dayChatLines = []string{
	"有人覺得誰可疑嗎？",
	"我還不知道該相信誰……",
	"我們冷靜分析一下吧。",
	"今天的氣氛怪怪的。",
	"誰的發言最奇怪？",
	"我有不好的預感。",
	"一定要把狼人找出來。",
	"大家專心一點。",
	"別被他們騙了。",
	"你們怎麼看？",
}

var accusationLines = []string{
	"我覺得 %s 很可疑。",
	"有人注意到 %s 一直很安靜嗎？",
	"%s 看起來很緊張。",
	"我對 %s 的發言有疑慮。",
	"為什麼 %s 這麼急著帶風向？",
}

// HeuristicProvider 為不依賴外部服務的啟發式決策供應端，
// 未設定 API 金鑰時作為預設實作。
type HeuristicProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicProvider 建立啟發式供應端，seed 為 0 時使用目前時間
func NewHeuristicProvider(seed int64) *HeuristicProvider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &HeuristicProvider{rng: rand.New(rand.NewSource(seed))}
}

func (h *HeuristicProvider) Propose(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch req.Kind {
	case DecisionChat:
		return h.proposeChat(req), nil
	case DecisionVote:
		return h.proposeVote(req), nil
	case DecisionNight:
		return h.proposeNight(req), nil
	case DecisionNotes:
		return h.proposeNotes(req), nil
	default:
		return Result{}, fmt.Errorf("未知的決策類型 %q", req.Kind)
	}
}

func (h *HeuristicProvider) proposeChat(req Request) Result {
	if req.MaxMessages > 0 && req.MessagesSent >= req.MaxMessages {
		return Result{Send: false}
	}
	// 三成機率開口，避免 AI 洗版
	if h.rng.Float64() > 0.3 {
		return Result{Send: false}
	}

	others := make([]string, 0, len(req.Alive))
	for _, p := range req.Alive {
		if p.ID != req.PlayerID {
			others = append(others, p.Name)
		}
	}
	if len(others) > 0 && h.rng.Float64() < 0.4 {
		line := accusationLines[h.rng.Intn(len(accusationLines))]
		return Result{Send: true, Message: fmt.Sprintf(line, others[h.rng.Intn(len(others))])}
	}
	return Result{Send: true, Message: dayChatLines[h.rng.Intn(len(dayChatLines))]}
}

func (h *HeuristicProvider) proposeVote(req Request) Result {
	if len(req.ValidTargets) == 0 {
		return Result{}
	}
	// 預言家優先投給已查出的狼人
	if req.Role == game.RoleSeer {
		for _, reveal := range req.SeerReveals {
			if !reveal.IsWerewolf {
				continue
			}
			for _, target := range req.ValidTargets {
				if target.Name == reveal.TargetName {
					return Result{TargetID: target.ID}
				}
			}
		}
	}
	return Result{TargetID: req.ValidTargets[h.rng.Intn(len(req.ValidTargets))].ID}
}

func (h *HeuristicProvider) proposeNight(req Request) Result {
	if len(req.ValidTargets) == 0 {
		return Result{}
	}
	// 預言家優先查驗還沒查過的對象
	if req.Role == game.RoleSeer {
		checked := make(map[string]struct{}, len(req.SeerReveals))
		for _, reveal := range req.SeerReveals {
			checked[reveal.TargetName] = struct{}{}
		}
		fresh := make([]TargetRef, 0, len(req.ValidTargets))
		for _, target := range req.ValidTargets {
			if _, ok := checked[target.Name]; !ok {
				fresh = append(fresh, target)
			}
		}
		if len(fresh) > 0 {
			return Result{TargetID: fresh[h.rng.Intn(len(fresh))].ID}
		}
	}
	return Result{TargetID: req.ValidTargets[h.rng.Intn(len(req.ValidTargets))].ID}
}

func (h *HeuristicProvider) proposeNotes(req Request) Result {
	var sb strings.Builder
	sb.WriteString(req.Notes)
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("第 %d 回合：存活 %d 人，死亡 %d 人。", req.Round, len(req.Alive), len(req.Dead)))
	for _, reveal := range req.SeerReveals {
		if reveal.IsWerewolf {
			sb.WriteString(fmt.Sprintf(" %s 是狼人。", reveal.TargetName))
		}
	}
	return Result{Message: truncateNotes(sb.String(), maxNotesChars)}
}
