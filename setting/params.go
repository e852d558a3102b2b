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

// Package setting 定義抽卡模擬的輸入設定：單一機率組態（Params）與整場活動設定（Campaign）。
//
// 所有設定都是不可變的值：建立並驗證後直接以值傳遞給模擬層，模擬過程中不讀取任何全域狀態。
package setting

import (
	"math"

	"github.com/zintix-labs/gachalab/errs"
)

// probEps 容忍浮點加總誤差（例如 0.02 + 0.98）。
const probEps = 1e-12

// Params 單一機率組態（活動前或活動後）。
//
// 前提：PRare + PSecondary <= 1，且保底提升後的 PRare 加上 PSecondary 仍不超過 1。
type Params struct {
	PRare       float64 `yaml:"p_rare"        json:"p_rare"`        // 稀有（SSR）機率
	PSecondary  float64 `yaml:"p_secondary"   json:"p_secondary"`   // 次稀有（SR）機率，只作觀測
	Limit       int     `yaml:"limit"         json:"limit"`         // 抽卡上限，到達即視為保底給予
	Step        int     `yaml:"step"          json:"step"`          // 每幾抽未中提升一次機率
	Bonus       float64 `yaml:"bonus"         json:"bonus"`         // 每次提升的機率
	CostPerPull float64 `yaml:"cost_per_pull" json:"cost_per_pull"` // 每抽花費
}

// Validate 檢查 Params 是否在定義域內，回傳 KindInvalidConfiguration 錯誤。
func (p Params) Validate() error {
	if err := validProb("p_rare", p.PRare); err != nil {
		return err
	}
	if err := validProb("p_secondary", p.PSecondary); err != nil {
		return err
	}
	if p.Limit < 1 {
		return errs.InvalidConfig("limit must > 0, got %d", p.Limit)
	}
	if p.Step < 1 {
		return errs.InvalidConfig("step must > 0, got %d", p.Step)
	}
	if !finite(p.Bonus) || p.Bonus < 0 {
		return errs.InvalidConfig("bonus must be a finite number >= 0, got %v", p.Bonus)
	}
	if !finite(p.CostPerPull) || p.CostPerPull < 0 {
		return errs.InvalidConfig("cost_per_pull must be a finite number >= 0, got %v", p.CostPerPull)
	}
	if p.PRare+p.PSecondary > 1+probEps {
		return errs.InvalidConfig("p_rare + p_secondary must <= 1, got %v", p.PRare+p.PSecondary)
	}
	if peak := p.PeakRare(); peak+p.PSecondary > 1+probEps {
		return errs.InvalidConfig("pity escalated p_rare (%v) + p_secondary (%v) exceeds 1 within limit %d", peak, p.PSecondary, p.Limit)
	}
	return nil
}

// Escalations 回傳在 Limit 抽內、會影響某一抽判定的保底提升次數。
//
// 提升發生在第 Step, 2*Step, ... 抽「之後」，因此只有在第 Limit 抽之前發生的提升才有效。
func (p Params) Escalations() int {
	if p.Limit < 1 || p.Step < 1 {
		return 0
	}
	return (p.Limit - 1) / p.Step
}

// PeakRare 回傳單一玩家在 Limit 抽內可能遇到的最高稀有機率（已套用 1.0 上限）。
//
// 以與模擬相同的逐次累加方式計算，確保浮點結果一致。
func (p Params) PeakRare() float64 {
	cur := p.PRare
	for range p.Escalations() {
		if cur >= 1 {
			break
		}
		cur = min(cur+p.Bonus, 1.0)
	}
	return cur
}

func validProb(name string, v float64) error {
	if !finite(v) || v < 0 || v > 1 {
		return errs.InvalidConfig("%s must be in [0,1], got %v", name, v)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
