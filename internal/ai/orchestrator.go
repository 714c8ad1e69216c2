package ai

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"wolfnight/internal/config"
)

// ErrInvalidChoice 表示供應端回答的目標不在候選集合內
var ErrInvalidChoice = errors.New("供應端回答的目標不在候選集合內")

// Orchestrator 負責對決策供應端套用逾時、重試、退避與保底策略，
// 並記錄每名 AI 玩家的連續失敗次數。任何失敗都不會使房間停擺：
// Decide 一定會回傳一個合法的決策。
type Orchestrator struct {
	provider Provider
	cfg      config.AIConfig

	mu       sync.Mutex
	failures map[string]int
	rng      *rand.Rand
}

// NewOrchestrator 建立協調器，seed 供保底隨機選擇使用，
// 測試時可注入固定值以取得可重現的結果。
func NewOrchestrator(provider Provider, cfg config.AIConfig, seed int64) *Orchestrator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Orchestrator{
		provider: provider,
		cfg:      cfg,
		failures: make(map[string]int),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Decide 向供應端請求一次決策：每次嘗試受逾時限制，
// 失敗時以指數退避重試，全部用盡後以均勻隨機的合法選項保底。
func (o *Orchestrator) Decide(ctx context.Context, req Request) Result {
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		result, err := o.provider.Propose(attemptCtx, req)
		cancel()

		if err == nil {
			result, err = normalizeResult(req, result)
			if err == nil {
				o.recordSuccess(req.PlayerID)
				return result
			}
		}

		log.Printf("AI %s 第 %d 次決策失敗: %v", req.PlayerName, attempt+1, err)

		if ctx.Err() != nil {
			break
		}
		if attempt < o.cfg.MaxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	o.recordFailure(req.PlayerID)
	return o.fallback(req)
}

// UpdateNotes 以純函式的方式計算新的筆記：輸入上下文與舊筆記，
// 回傳新筆記，失敗時保留舊筆記。
func (o *Orchestrator) UpdateNotes(ctx context.Context, req Request) string {
	req.Kind = DecisionNotes
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	result, err := o.provider.Propose(attemptCtx, req)
	if err != nil {
		log.Printf("AI %s 更新筆記失敗: %v", req.PlayerName, err)
		return req.Notes
	}
	return truncateNotes(result.Message, maxNotesChars)
}

// ConsecutiveFailures 回傳指定玩家目前的連續失敗次數（診斷用）
func (o *Orchestrator) ConsecutiveFailures(playerID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failures[playerID]
}

// Stagger 回傳設定範圍內的隨機錯開延遲
func (o *Orchestrator) Stagger() time.Duration {
	return o.randomBetween(o.cfg.StaggerMin, o.cfg.StaggerMax)
}

// ChatInterval 回傳白天聊天輪詢的隨機間隔
func (o *Orchestrator) ChatInterval() time.Duration {
	return o.randomBetween(o.cfg.ChatIntervalMin, o.cfg.ChatIntervalMax)
}

// ActionDelay 回傳階段長度指定比例區間內的隨機延遲，
// 讓 AI 的行動分散在階段中而非同時爆發。
func (o *Orchestrator) ActionDelay(duration time.Duration, minRatio, maxRatio float64) time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	ratio := minRatio + o.rng.Float64()*(maxRatio-minRatio)
	return time.Duration(float64(duration) * ratio)
}

func (o *Orchestrator) randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return min + time.Duration(o.rng.Int63n(int64(max-min)))
}

func (o *Orchestrator) recordSuccess(playerID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[playerID] = 0
}

func (o *Orchestrator) recordFailure(playerID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[playerID]++
	if o.failures[playerID] >= 5 {
		log.Printf("AI 玩家 %s 已連續失敗 %d 次", playerID, o.failures[playerID])
	}
}

// fallback 產生保底決策：投票與夜晚行動均勻隨機挑選合法目標，
// 聊天則保持沉默。
func (o *Orchestrator) fallback(req Request) Result {
	switch req.Kind {
	case DecisionVote, DecisionNight:
		if len(req.ValidTargets) == 0 {
			return Result{Fallback: true}
		}
		o.mu.Lock()
		target := req.ValidTargets[o.rng.Intn(len(req.ValidTargets))]
		o.mu.Unlock()
		return Result{TargetID: target.ID, Fallback: true}
	default:
		return Result{Send: false, Fallback: true}
	}
}

// normalizeResult 確認供應端的回答在候選集合內並整理成標準編號
func normalizeResult(req Request, result Result) (Result, error) {
	switch req.Kind {
	case DecisionVote, DecisionNight:
		extracted := ExtractTargetID(result.TargetID, req.ValidTargets)
		if extracted == "" {
			return result, ErrInvalidChoice
		}
		result.TargetID = extracted
		return result, nil
	default:
		return result, nil
	}
}

// ExtractTargetID 從供應端回答中抽出合法的目標編號，
// 容忍「id=xxx」或夾帶名稱等常見格式；找不到時回傳空字串。
func ExtractTargetID(answer string, valid []TargetRef) string {
	if answer == "" {
		return ""
	}
	for _, target := range valid {
		if answer == target.ID {
			return target.ID
		}
	}
	for _, target := range valid {
		if target.ID != "" && strings.Contains(answer, target.ID) {
			return target.ID
		}
	}
	return ""
}
