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

package draw

import (
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/setting"
)

// Source 抽卡所需的亂數來源：每一抽取一個 [0,1) 值。
// *core.Core 滿足此介面。
type Source interface {
	Float64() float64
}

// Observer 逐抽觀測回呼（pull 從 1 開始）。回呼只能讀，不影響流程。
type Observer func(pull int, r Rarity)

// Drawer 依固定 Params 模擬單一玩家。
//
// Drawer 本身不持有亂數狀態，可重複使用；同一個 Source 依呼叫順序被消耗。
type Drawer struct {
	params setting.Params
	obs    Observer
}

// NewDrawer 檢查 Params 後建立 Drawer。
func NewDrawer(p setting.Params) (*Drawer, error) {
	if err := p.Validate(); err != nil {
		return nil, errs.Wrap(err, "new drawer failed")
	}
	return &Drawer{params: p}, nil
}

// Observe 設定逐抽觀測回呼，傳入 nil 取消觀測。
func (d *Drawer) Observe(obs Observer) {
	d.obs = obs
}

// Params 回傳 Drawer 使用的設定。
func (d *Drawer) Params() setting.Params {
	return d.params
}

// Draw 模擬一名玩家抽到稀有（或抽滿上限）為止。
//
// 每一抽：
//  1. 取 r ∈ [0,1)
//  2. r < p 出稀有，立即結束
//  3. 否則 r < p + PSecondary 為次稀有，其餘為普通（兩者都只是觀測）
//  4. 未中計數 +1，每 Step 抽提升 Bonus（上限 1.0）
//
// 抽滿 Limit 抽仍未中，回傳 (Limit, CapReached)。
func (d *Drawer) Draw(src Source) Outcome {
	p := d.params
	pity := NewPity(p.PRare, p.Step, p.Bonus)
	for i := 1; i <= p.Limit; i++ {
		r := src.Float64()
		cur := pity.P()
		if r < cur {
			if d.obs != nil {
				d.obs(i, Rare)
			}
			return d.outcome(i, Rare)
		}
		if d.obs != nil {
			tier := Common
			if r < cur+p.PSecondary {
				tier = Secondary
			}
			d.obs(i, tier)
		}
		pity.Miss()
	}
	return d.outcome(p.Limit, CapReached)
}

func (d *Drawer) outcome(pulls int, r Rarity) Outcome {
	return Outcome{
		Pulls:  pulls,
		Rarity: r,
		Cost:   float64(pulls) * d.params.CostPerPull,
	}
}

// Trace 單一玩家的逐抽紀錄（用於檢視/除錯）。
type Trace struct {
	Outcome Outcome `json:"outcome"`
	// 每一抽的分級
	Tiers []Rarity `json:"tiers"`
	// 每一抽判定時的稀有機率
	RareP []float64 `json:"rare_p"`
}

// DrawTrace 與 Draw 消耗相同的亂數，但額外回傳逐抽紀錄。
func (d *Drawer) DrawTrace(src Source) Trace {
	p := d.params
	tr := Trace{
		Tiers: make([]Rarity, 0, min(p.Limit, 256)),
		RareP: make([]float64, 0, min(p.Limit, 256)),
	}
	pity := NewPity(p.PRare, p.Step, p.Bonus)
	for i := 1; i <= p.Limit; i++ {
		r := src.Float64()
		cur := pity.P()
		tr.RareP = append(tr.RareP, cur)
		if r < cur {
			tr.Tiers = append(tr.Tiers, Rare)
			tr.Outcome = d.outcome(i, Rare)
			return tr
		}
		tier := Common
		if r < cur+p.PSecondary {
			tier = Secondary
		}
		tr.Tiers = append(tr.Tiers, tier)
		pity.Miss()
	}
	tr.Outcome = d.outcome(p.Limit, CapReached)
	return tr
}
