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

package core

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 抽卡模擬的熱路徑只會用到 Float64（每一抽取一個 [0,1) 值），
// Uint64 / IntN 保留給種子派生與其他工具使用。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數（53-bit 精度）。
	Float64() float64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：同一個實作與版本下，New(seed) 必須是決定性的，
// 相同 seed 產生相同的初始狀態與輸出序列。整個模擬的可重現性都建立在這一點上。
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）。
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並記錄已消耗的 Float64 取樣數（用於審計報表）。
//
// Core 不是併發安全的：一條亂數流只能由一個 goroutine 依序消耗。
type Core struct {
	PRNG
	draws uint64
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{PRNG: rng}
}

// Float64 取樣並累計次數
func (c *Core) Float64() float64 {
	c.draws++
	return c.PRNG.Float64()
}

// Draws 回傳此 Core 出生以來消耗的 Float64 取樣數。
func (c *Core) Draws() uint64 {
	return c.draws
}
