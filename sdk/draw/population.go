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

// Population 單一組態、單一場活動中所有玩家的結果（依模擬順序）。
type Population struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Len 玩家數
func (p Population) Len() int { return len(p.Outcomes) }

// MeanCost 平均花費；空集合回傳 0。
func (p Population) MeanCost() float64 {
	if len(p.Outcomes) == 0 {
		return 0
	}
	var sum float64
	for _, o := range p.Outcomes {
		sum += o.Cost
	}
	return sum / float64(len(p.Outcomes))
}

// Costs 依序取出每名玩家的花費欄位。
func (p Population) Costs() []float64 {
	out := make([]float64, len(p.Outcomes))
	for i, o := range p.Outcomes {
		out[i] = o.Cost
	}
	return out
}

// SimulatePopulation 以同一個亂數來源依序模擬 n 名獨立玩家。
func SimulatePopulation(src Source, n int, p setting.Params) (Population, error) {
	if n < 1 {
		return Population{}, errs.InvalidConfig("players must > 0, got %d", n)
	}
	d, err := NewDrawer(p)
	if err != nil {
		return Population{}, err
	}
	return d.Population(src, n), nil
}

// Population 以已檢查的 Drawer 模擬 n 名玩家（n <= 0 回傳空集合）。
func (d *Drawer) Population(src Source, n int) Population {
	if n <= 0 {
		return Population{}
	}
	out := make([]Outcome, n)
	for i := range out {
		out[i] = d.Draw(src)
	}
	return Population{Outcomes: out}
}
