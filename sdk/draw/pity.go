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

// Pity 保底機率提升狀態。
//
// 每次未中稀有呼叫 Miss：計數 +1，計數為 step 的倍數時 p = min(p + bonus, 1)。
// p 到達 1.0 後再提升不會有任何效果。
type Pity struct {
	step  int
	bonus float64
	count int
	p     float64
}

// NewPity 以初始稀有機率建立保底狀態。step 必須 > 0（由設定檢查保證）。
func NewPity(pRare float64, step int, bonus float64) Pity {
	return Pity{step: step, bonus: bonus, p: pRare}
}

// P 目前的稀有機率
func (ps *Pity) P() float64 { return ps.p }

// Count 連續未中的抽數
func (ps *Pity) Count() int { return ps.count }

// Miss 記錄一次未中，回傳本次是否觸發提升。
func (ps *Pity) Miss() bool {
	ps.count++
	if ps.count%ps.step != 0 {
		return false
	}
	ps.p = min(ps.p+ps.bonus, 1.0)
	return true
}
