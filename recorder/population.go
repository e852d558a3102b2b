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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/sdk/draw"
	"github.com/zintix-labs/gachalab/setting"
	"github.com/zintix-labs/gachalab/stats"
)

// PopulationRecorder 單一組態的玩家紀錄員
//
// 負責在整個 campaign 中逐名累計玩家結果，並透過 Done 輸出彙總報表。
// 紀錄員不是併發安全的；平行模式下每個 worker 持有自己的紀錄員，最後 Merge。
type PopulationRecorder struct {
	Config string
	Params setting.Params
	Basic  *BasicRecord
	Hist   []int // Hist[k] = 第 k 抽取得的人數，長度 Limit+1
}

// BasicRecord 基本計數
type BasicRecord struct {
	Agents         int
	Rare           int
	CapReached     int
	TotalPulls     int
	SecondaryPulls int
	CommonPulls    int
	PullsSqSum     int // 平方和
}

// NewPopulationRecorder 建立紀錄員；Params 必須合法。
func NewPopulationRecorder(config string, p setting.Params) (*PopulationRecorder, error) {
	if err := p.Validate(); err != nil {
		return nil, errs.Wrap(err, "new population recorder failed")
	}
	return &PopulationRecorder{
		Config: config,
		Params: p,
		Basic:  new(BasicRecord),
		Hist:   make([]int, p.Limit+1),
	}, nil
}

// Record 紀錄一名玩家的結果
//
// Pulls 必須落在 [1, Limit] 且 Rarity 只能是 Rare / CapReached，否則整筆拒收、計數不變。
func (r *PopulationRecorder) Record(o draw.Outcome) error {
	if o.Pulls < 1 || o.Pulls >= len(r.Hist) {
		return errs.NewFatal(fmt.Sprintf("record outcome err : pulls %d out of [1, %d]", o.Pulls, len(r.Hist)-1))
	}
	b := r.Basic
	switch o.Rarity {
	case draw.Rare:
		b.Rare++
	case draw.CapReached:
		b.CapReached++
	default:
		return errs.NewFatal("record outcome err : unexpected rarity " + o.Rarity.String())
	}
	b.Agents++
	b.TotalPulls += o.Pulls
	b.PullsSqSum += o.Pulls * o.Pulls
	r.Hist[o.Pulls]++
	return nil
}

// RecordPopulation 紀錄整批玩家，遇到第一筆不合法的結果即停止
func (r *PopulationRecorder) RecordPopulation(p draw.Population) error {
	for _, o := range p.Outcomes {
		if err := r.Record(o); err != nil {
			return err
		}
	}
	return nil
}

// Observer 回傳逐抽觀測回呼，用來累計次稀有 / 普通抽數。
func (r *PopulationRecorder) Observer() draw.Observer {
	return func(_ int, t draw.Rarity) {
		switch t {
		case draw.Secondary:
			r.Basic.SecondaryPulls++
		case draw.Common:
			r.Basic.CommonPulls++
		}
	}
}

// Merge 合併多個同組態的紀錄員為新的紀錄員（不修改輸入）。
func Merge(rs []*PopulationRecorder) (*PopulationRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge population record err : empty input")
	}
	r0 := rs[0]
	out, err := NewPopulationRecorder(r0.Config, r0.Params)
	if err != nil {
		return nil, err
	}
	for _, v := range rs {
		if v.Config != r0.Config {
			return nil, errs.NewFatal("merge population record err : different config")
		}
		if v.Params != r0.Params {
			return nil, errs.NewFatal("merge population record err : different params")
		}
		out.Basic.Agents += v.Basic.Agents
		out.Basic.Rare += v.Basic.Rare
		out.Basic.CapReached += v.Basic.CapReached
		out.Basic.TotalPulls += v.Basic.TotalPulls
		out.Basic.SecondaryPulls += v.Basic.SecondaryPulls
		out.Basic.CommonPulls += v.Basic.CommonPulls
		out.Basic.PullsSqSum += v.Basic.PullsSqSum

		// 整合 Hist
		for i := range v.Hist {
			out.Hist[i] += v.Hist[i]
		}
	}
	return out, nil
}

// Done 輸出彙總（已完成衍生欄位計算）
//
// 花費一律由整數抽數換算，合併順序不影響結果。
func (r *PopulationRecorder) Done() *stats.AgentSummary {
	b := r.Basic
	cpp := r.Params.CostPerPull
	hist := make([]int, len(r.Hist))
	copy(hist, r.Hist)
	a := &stats.AgentSummary{
		Config:         r.Config,
		Limit:          r.Params.Limit,
		Step:           r.Params.Step,
		CostPerPull:    r.Params.CostPerPull,
		Agents:         b.Agents,
		Rare:           b.Rare,
		CapReached:     b.CapReached,
		TotalPulls:     b.TotalPulls,
		SecondaryPulls: b.SecondaryPulls,
		CommonPulls:    b.CommonPulls,
		CostSum:        float64(b.TotalPulls) * cpp,
		CostSqSum:      float64(b.PullsSqSum) * cpp * cpp,
		PullsHist:      hist,
	}
	a.Done()
	return a
}
