package ai

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// aiNames 為 AI 玩家的候選名單
var aiNames = []string{
	"小艾", "阿傑", "泰勒", "小墨", "凱西",
	"芮莉", "小昆", "艾薇", "布雷", "卡麥",
	"達柯", "艾默", "芬利", "海登", "小潔",
}

// NewAgentID 產生 AI 玩家的唯一編號
func NewAgentID() string {
	return fmt.Sprintf("ai_%s", uuid.NewString()[:8])
}

// RandomName 從名單中挑選尚未使用的名字，全部用完時改用編號名
func RandomName(rng *rand.Rand, existing []string) string {
	used := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		used[name] = struct{}{}
	}
	available := make([]string, 0, len(aiNames))
	for _, name := range aiNames {
		if _, ok := used[name]; !ok {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return fmt.Sprintf("玩家%03d", rng.Intn(1000))
	}
	return available[rng.Intn(len(available))]
}
