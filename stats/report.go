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

package stats

import (
	"time"

	"github.com/zintix-labs/gachalab/errs"
)

// EventSummary 單場活動的兩組平均花費
type EventSummary struct {
	Event          int     `json:"event"            yaml:"event"` // 從 1 開始
	MeanCostBefore float64 `json:"mean_cost_before" yaml:"mean_cost_before"`
	MeanCostAfter  float64 `json:"mean_cost_after"  yaml:"mean_cost_after"`
}

// RNGAudit 重現與稽核用的亂數資訊
type RNGAudit struct {
	Seed     int64  `json:"seed"               yaml:"seed"`
	Mode     string `json:"mode"               yaml:"mode"` // sequential | parallel
	Draws    uint64 `json:"draws"              yaml:"draws"`
	Snapshot string `json:"snapshot,omitempty" yaml:"snapshot,omitempty"` // 結束時 PRNG 狀態（base64），僅 sequential
}

// CampaignReport 整個 campaign 的統計報告
type CampaignReport struct {
	Name    string         `json:"name"    yaml:"name"`
	Players int            `json:"players" yaml:"players"`
	Events  int            `json:"events"  yaml:"events"`
	Workers int            `json:"workers" yaml:"workers"`
	Series  []EventSummary `json:"series"  yaml:"series"`

	Before     ConfidenceInterval `json:"ci_before"  yaml:"ci_before"`
	After      ConfidenceInterval `json:"ci_after"   yaml:"ci_after"`
	Diff       ConfidenceInterval `json:"ci_diff"    yaml:"ci_diff"` // after - before（同場配對）
	Degenerate bool               `json:"degenerate" yaml:"degenerate"`

	AgentsBefore *AgentSummary `json:"agents_before,omitempty" yaml:"agents_before,omitempty"`
	AgentsAfter  *AgentSummary `json:"agents_after,omitempty"  yaml:"agents_after,omitempty"`

	RNG     RNGAudit      `json:"rng"        yaml:"rng"`
	Elapsed time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
}

// Columns 取出 before / after 兩欄
func Columns(series []EventSummary) (before, after []float64) {
	before = make([]float64, len(series))
	after = make([]float64, len(series))
	for i, e := range series {
		before[i] = e.MeanCostBefore
		after[i] = e.MeanCostAfter
	}
	return
}

// NewCampaignReport 由活動序列計算兩組 95% 信賴區間與配對差值區間。
//
// 活動數 < 2 時區間退化為寬度 0，Degenerate 標記為 true，不視為錯誤；
// 其餘錯誤原樣回傳。
func NewCampaignReport(name string, players int, series []EventSummary) (*CampaignReport, error) {
	before, after := Columns(series)
	r := &CampaignReport{
		Name:    name,
		Players: players,
		Events:  len(series),
		Series:  series,
	}

	var err error
	if r.Before, err = CI95(before); err != nil && !r.absorb(err) {
		return nil, errs.Wrap(err, "ci before failed")
	}
	if r.After, err = CI95(after); err != nil && !r.absorb(err) {
		return nil, errs.Wrap(err, "ci after failed")
	}
	if r.Diff, err = PairedDiffCI95(before, after); err != nil && !r.absorb(err) {
		return nil, errs.Wrap(err, "ci diff failed")
	}
	return r, nil
}

// absorb 吸收退化錯誤並標記
func (r *CampaignReport) absorb(err error) bool {
	if errs.IsKind(err, errs.KindDegenerateStatistics) {
		r.Degenerate = true
		return true
	}
	return false
}

// Done 結束所有玩家彙總的計算
func (r *CampaignReport) Done() {
	if r.AgentsBefore != nil {
		r.AgentsBefore.Done()
	}
	if r.AgentsAfter != nil {
		r.AgentsAfter.Done()
	}
}
