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

import "fmt"

// AgentSummary 單一組態在整個 campaign 中所有玩家的彙總。
//
// 紀錄時只累計整數與和，Done 之後才一次性算出比例、分位數與區間。
type AgentSummary struct {
	Config      string  `json:"config"        yaml:"config"`
	Limit       int     `json:"limit"         yaml:"limit"`
	Step        int     `json:"step"          yaml:"step"`
	CostPerPull float64 `json:"cost_per_pull" yaml:"cost_per_pull"`

	Agents         int     `json:"agents"          yaml:"agents"`
	Rare           int     `json:"rare"            yaml:"rare"`
	CapReached     int     `json:"cap_reached"     yaml:"cap_reached"`
	TotalPulls     int     `json:"total_pulls"     yaml:"total_pulls"`
	SecondaryPulls int     `json:"secondary_pulls" yaml:"secondary_pulls"`
	CommonPulls    int     `json:"common_pulls"    yaml:"common_pulls"`
	CostSum        float64 `json:"cost_sum"        yaml:"cost_sum"`
	CostSqSum      float64 `json:"cost_sq_sum"     yaml:"cost_sq_sum"` // 平方和
	PullsHist      []int   `json:"pulls_hist"      yaml:"pulls_hist"`  // PullsHist[k] = 第 k 抽取得的人數

	MeanPulls     float64      `json:"mean_pulls"     yaml:"mean_pulls"`
	StdPulls      float64      `json:"std_pulls"      yaml:"std_pulls"`
	P50Pulls      float64      `json:"p50_pulls"      yaml:"p50_pulls"`
	P90Pulls      float64      `json:"p90_pulls"      yaml:"p90_pulls"`
	P99Pulls      float64      `json:"p99_pulls"      yaml:"p99_pulls"`
	MeanCost      float64      `json:"mean_cost"      yaml:"mean_cost"`
	CapRate       PointStat    `json:"cap_rate"       yaml:"cap_rate"`
	SecondaryRate float64      `json:"secondary_rate" yaml:"secondary_rate"` // 次稀有抽數 / 總抽數
	Buckets       []PullBucket `json:"buckets"        yaml:"buckets"`
	isDone        bool
}

// PullBucket 以保底提升段落分桶：第 i 桶為 (i*step, (i+1)*step] 抽。
type PullBucket struct {
	Label string  `json:"label" yaml:"label"`
	Count int     `json:"count" yaml:"count"`
	Share float64 `json:"share" yaml:"share"`
}

// Done 計算衍生欄位，重複呼叫無作用。
func (a *AgentSummary) Done() {
	if a.isDone {
		return
	}
	a.MeanPulls, a.StdPulls = histMeanStd(a.PullsHist)
	a.P50Pulls = histQuantile(a.PullsHist, 0.50)
	a.P90Pulls = histQuantile(a.PullsHist, 0.90)
	a.P99Pulls = histQuantile(a.PullsHist, 0.99)
	if a.Agents > 0 {
		a.MeanCost = a.CostSum / float64(a.Agents)
	}
	a.CapRate = ProportionCI95(a.CapReached, a.Agents)
	if a.TotalPulls > 0 {
		a.SecondaryRate = float64(a.SecondaryPulls) / float64(a.TotalPulls)
	}
	a.Buckets = pullBuckets(a.PullsHist, a.Step, a.Agents)
	a.isDone = true
}

// pullBuckets 依 step 把直方圖合併成保底段落
func pullBuckets(hist []int, step int, agents int) []PullBucket {
	if step < 1 || len(hist) < 2 {
		return nil
	}
	limit := len(hist) - 1
	out := make([]PullBucket, 0, (limit+step-1)/step)
	for lo := 1; lo <= limit; lo += step {
		hi := min(lo+step-1, limit)
		b := PullBucket{Label: fmt.Sprintf("[%d,%d]", lo, hi)}
		for k := lo; k <= hi; k++ {
			b.Count += hist[k]
		}
		if agents > 0 {
			b.Share = float64(b.Count) / float64(agents)
		}
		out = append(out, b)
	}
	return out
}
