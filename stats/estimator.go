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

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// ProportionCI95 k/n 的點估計與 Clopper–Pearson 95% 區間
func ProportionCI95(k, n int) PointStat {
	hat, ci := proportionCICP(k, n, 0.95)
	return PointStat{Hat: hat, CI: ci}
}

// histQuantile 由抽數直方圖（hist[pulls] = 人數）取經驗分位數。
//
// 直方圖本身已排序，直接當作 (x, weight) 交給 gonum；空直方圖回傳 0。
func histQuantile(hist []int, q float64) float64 {
	xs := make([]float64, 0, len(hist))
	ws := make([]float64, 0, len(hist))
	for pulls, c := range hist {
		if c == 0 {
			continue
		}
		xs = append(xs, float64(pulls))
		ws = append(ws, float64(c))
	}
	if len(xs) == 0 {
		return 0
	}
	return stat.Quantile(q, stat.Empirical, xs, ws)
}

// histMeanStd 直方圖的加權平均與 n-1 樣本標準差
func histMeanStd(hist []int) (mean, std float64) {
	xs := make([]float64, 0, len(hist))
	ws := make([]float64, 0, len(hist))
	var n int
	for pulls, c := range hist {
		if c == 0 {
			continue
		}
		xs = append(xs, float64(pulls))
		ws = append(ws, float64(c))
		n += c
	}
	switch {
	case n == 0:
		return 0, 0
	case n == 1:
		return xs[0], 0
	}
	mean, std = stat.MeanStdDev(xs, ws)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}
