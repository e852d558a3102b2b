// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package draw 實作單一玩家的抽卡流程（含保底提升）與整批玩家的模擬。
//
// 這一層是純計算：只消耗呼叫端傳入的亂數來源，沒有其他副作用。
package draw

// Rarity 單抽的稀有度分級。
//
// 只有 Rare 與 CapReached 會成為 Outcome 的結果；Secondary / Common 只是觀測用分級，
// 不影響流程與保底。
type Rarity uint8

const (
	Common Rarity = iota
	Secondary
	Rare
	CapReached // 抽滿上限仍未出稀有，視為保底直接給予
)

var rarityName = map[Rarity]string{
	Common:     "common",
	Secondary:  "secondary",
	Rare:       "rare",
	CapReached: "cap_reached",
}

func (r Rarity) String() string {
	if s, ok := rarityName[r]; ok {
		return s
	}
	return "unknown"
}

// MarshalText 讓 JSON / YAML 以名稱輸出。
func (r Rarity) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Outcome 單一玩家的模擬結果。
type Outcome struct {
	Pulls  int     `json:"pulls"  yaml:"pulls"`  // 取得稀有所需抽數，1..Limit
	Rarity Rarity  `json:"rarity" yaml:"rarity"` // Rare 或 CapReached
	Cost   float64 `json:"cost"   yaml:"cost"`   // Pulls * CostPerPull
}
