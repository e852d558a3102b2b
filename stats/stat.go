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
	"math"

	"github.com/zintix-labs/gachalab/errs"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// z95 95% 常態近似使用的固定臨界值（報表沿用 1.96，而非 1.959964...）
const z95 = 1.96

// 信賴區間（比例、分位數使用）
type CI struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"hat" yaml:"hat"`
	CI  CI      `json:"ci"  yaml:"ci"`
}

// ConfidenceInterval 平均數的信賴區間
type ConfidenceInterval struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Lo   float64 `json:"lo"   yaml:"lo"`
	Hi   float64 `json:"hi"   yaml:"hi"`
}

// Width 區間寬度
func (c ConfidenceInterval) Width() float64 {
	return c.Hi - c.Lo
}

// Contains 判斷 x 是否落在閉區間內
func (c ConfidenceInterval) Contains(x float64) bool {
	return x >= c.Lo && x <= c.Hi
}

// CI95 以常態近似計算平均數的 95% 信賴區間：μ ± 1.96·σ/√n（σ 為 n-1 樣本標準差）。
//
// 樣本數 < 2 時標準差無定義：回傳寬度為 0 的區間（空輸入的平均數為 0），
// 並同時回傳 KindDegenerateStatistics 錯誤，呼叫端可自行決定是否忽略。
func CI95(values []float64) (ConfidenceInterval, error) {
	return meanCI(values, z95)
}

// CIAt 以任意信心水準 level ∈ (0,1) 計算平均數信賴區間，臨界值取自標準常態分位數。
func CIAt(values []float64, level float64) (ConfidenceInterval, error) {
	if !(level > 0 && level < 1) {
		return ConfidenceInterval{}, errs.InvalidConfig("confidence level must in (0,1), got %v", level)
	}
	z := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	return meanCI(values, z)
}

// PairedDiffCI95 同一場活動 after - before 差值的 95% 信賴區間。
//
// 兩欄長度必須一致（同一組 events）。
func PairedDiffCI95(before, after []float64) (ConfidenceInterval, error) {
	if len(before) != len(after) {
		return ConfidenceInterval{}, errs.InvalidConfig("paired columns length mismatch: %d vs %d", len(before), len(after))
	}
	d := make([]float64, len(before))
	for i := range before {
		d[i] = after[i] - before[i]
	}
	return CI95(d)
}

func meanCI(values []float64, z float64) (ConfidenceInterval, error) {
	n := len(values)
	switch n {
	case 0:
		return ConfidenceInterval{}, errs.Degenerate("need at least 2 values, got 0")
	case 1:
		v := values[0]
		return ConfidenceInterval{Mean: v, Lo: v, Hi: v}, errs.Degenerate("need at least 2 values, got 1")
	}
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) || std < 0 {
		std = 0
	}
	half := z * std / math.Sqrt(float64(n))
	return ConfidenceInterval{Mean: mean, Lo: mean - half, Hi: mean + half}, nil
}
