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

package gachalab

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/setting"
)

// RunRequest 一次 campaign 執行請求
type RunRequest struct {
	Campaign setting.Campaign
	Workers  int // <= 1 走單線（與 CLI 預設相同的結果）
}

// RuntimeStats 執行期計數快照（觀測用）
type RuntimeStats struct {
	Slots    int    `json:"slots"`
	Inflight int32  `json:"inflight"`
	Runs     int64  `json:"runs"`
	Rejected int64  `json:"rejected"`
	Panics   int32  `json:"panics"`
	Closed   bool   `json:"closed"`
	Reason   string `json:"reason,omitempty"`
}

// Runtime 對外服務用的 campaign 執行入口。
//
// 它透過 slots 通道限制同時執行的 campaign 數量（每個 slot 相當於一台可借出的模擬器），
// 並以 maxDraws 限制單次請求最多可能的抽數（players * events * 2 * limit）。
// 執行中每場活動前檢查 ctx，逾時的請求會交還 slot。
// Close 之後所有 Run 直接回錯誤。
type Runtime struct {
	lab       *Lab
	slots     chan struct{}
	maxDraws  int64

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	inflight atomic.Int32
	runs     atomic.Int64
	rejected atomic.Int64
	panics   atomic.Int32
}

// BuildRuntime 進入執行階段：catalog 會被 Freeze。
//
// slots 至少為 1；maxDraws <= 0 表示不限制。
func (l *Lab) BuildRuntime(slots int, maxDraws int64) *Runtime {
	l.Freeze()
	slots = max(1, slots)
	rt := &Runtime{
		lab:       l,
		slots:     make(chan struct{}, slots),
		maxDraws:  maxDraws,
		done:      make(chan struct{}),
	}
	for range slots {
		rt.slots <- struct{}{}
	}
	rt.reason.Store("")
	return rt
}

// Lab 回傳建立此 runtime 的 Lab
func (rt *Runtime) Lab() *Lab {
	return rt.lab
}

// Run 借出一個 slot 執行 campaign 並回傳報告。
//
// 參數錯誤回傳 KindInvalidConfiguration（Warn）；ctx 取消或 runtime 關閉時不會開始模擬，
// 模擬途中 ctx 結束則回傳包裝過的 ctx 錯誤。
func (rt *Runtime) Run(ctx context.Context, req RunRequest) (*CampaignReport, error) {
	if err := req.Campaign.Validate(); err != nil {
		rt.rejected.Add(1)
		return nil, err
	}
	if rt.maxDraws > 0 {
		if n, ok := worstDraws(req.Campaign); !ok || n > rt.maxDraws {
			rt.rejected.Add(1)
			return nil, errs.InvalidConfig("too many draws: players * events * 2 * limit exceeds %d", rt.maxDraws)
		}
	}

	select {
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), "run canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return nil, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}
	// 等待空出的 slot
	select {
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), "run canceled/timeout")
	case <-rt.done:
		return nil, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	case <-rt.slots:
	}
	rt.inflight.Add(1)
	defer func() {
		rt.inflight.Add(-1)
		rt.slots <- struct{}{}
	}()
	return rt.run(ctx, req)
}

// worstDraws 回傳 players * events * 2 * limit；溢位時 ok = false。
func worstDraws(c setting.Campaign) (n int64, ok bool) {
	n = 1
	for _, f := range []int64{int64(c.Players), int64(c.Events), 2, int64(c.Limit)} {
		if f <= 0 {
			return 0, false
		}
		if n > math.MaxInt64/f {
			return math.MaxInt64, false
		}
		n *= f
	}
	return n, true
}

func (rt *Runtime) run(ctx context.Context, req RunRequest) (rep *CampaignReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			rt.panics.Add(1)
			rep, err = nil, errs.NewFatal(fmt.Sprintf("campaign panic: %v", r))
		}
	}()
	sim := rt.lab.Simulator()
	var series *CampaignSeries
	if req.Workers > 1 {
		series, err = sim.RunCampaignsMPContext(ctx, req.Campaign, req.Workers)
	} else {
		series, err = sim.RunCampaignsContext(ctx, req.Campaign)
	}
	if err != nil {
		return nil, err
	}
	rt.runs.Add(1)
	return series.Report()
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Stats 回傳計數快照
func (rt *Runtime) Stats() RuntimeStats {
	return RuntimeStats{
		Slots:    cap(rt.slots),
		Inflight: rt.inflight.Load(),
		Runs:     rt.runs.Load(),
		Rejected: rt.rejected.Load(),
		Panics:   rt.panics.Load(),
		Closed:   rt.Closed(),
		Reason:   rt.ClosedReason(),
	}
}
