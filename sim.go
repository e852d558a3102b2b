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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/gachalab/corefmt"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/recorder"
	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/sdk/draw"
	"github.com/zintix-labs/gachalab/setting"
	"github.com/zintix-labs/gachalab/stats"
)

const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// EventSummary 單場活動的兩組平均花費
type EventSummary = stats.EventSummary

// CampaignReport campaign 的統計報告
type CampaignReport = stats.CampaignReport

// CampaignSeries 一次 campaign 的逐場結果（依活動順序，長度 = Events）。
//
// 回傳後不再被修改。
type CampaignSeries struct {
	Campaign     setting.Campaign
	Events       []EventSummary
	AgentsBefore *stats.AgentSummary
	AgentsAfter  *stats.AgentSummary
	RNG          stats.RNGAudit
	Workers      int
	Elapsed      time.Duration
}

func (cs *CampaignSeries) Len() int { return len(cs.Events) }

// Before 活動前平均花費欄
func (cs *CampaignSeries) Before() []float64 {
	b, _ := stats.Columns(cs.Events)
	return b
}

// After 活動後平均花費欄
func (cs *CampaignSeries) After() []float64 {
	_, a := stats.Columns(cs.Events)
	return a
}

// Report 計算兩組 95% 信賴區間並附上玩家彙總與亂數稽核資訊。
func (cs *CampaignSeries) Report() (*CampaignReport, error) {
	r, err := stats.NewCampaignReport(cs.Campaign.Name, cs.Campaign.Players, cs.Events)
	if err != nil {
		return nil, err
	}
	r.AgentsBefore = cs.AgentsBefore
	r.AgentsAfter = cs.AgentsAfter
	r.RNG = cs.RNG
	r.Workers = cs.Workers
	r.Elapsed = cs.Elapsed
	r.Done()
	return r, nil
}

// Simulator campaign 模擬器
//
// Simulator 只持有亂數工廠與顯示選項，可重複使用；每次 Run 都從 campaign 的 seed 重新建立亂數流。
type Simulator struct {
	pf     core.PRNGFactory
	showpb bool
}

// NewSimulator pf 為 nil 時使用預設 PCG64
func NewSimulator(pf core.PRNGFactory) *Simulator {
	if pf == nil {
		pf = core.Default()
	}
	return &Simulator{pf: pf}
}

// ShowProgress 是否在 stderr 顯示進度條
func (s *Simulator) ShowProgress(show bool) *Simulator {
	s.showpb = show
	return s
}

// RunCampaigns 單線 campaign：一條以 seed 建立的亂數流，依序消耗
//
//	event 1: before 全體 → after 全體，event 2: before → after，...
//
// 固定 seed 時結果逐位元可重現。參數不合法時在任何模擬前回傳 KindInvalidConfiguration。
func (s *Simulator) RunCampaigns(c setting.Campaign) (*CampaignSeries, error) {
	return s.RunCampaignsContext(context.Background(), c)
}

// RunCampaignsContext 同 RunCampaigns，每場活動開始前檢查 ctx；取消或逾時即中止並回傳包裝過的 ctx 錯誤。
func (s *Simulator) RunCampaignsContext(ctx context.Context, c setting.Campaign) (*CampaignSeries, error) {
	rb, db, ra, da, err := prepare(c)
	if err != nil {
		return nil, err
	}
	rng := core.New(s.pf.New(c.Seed))

	events := make([]EventSummary, c.Events)
	bar := s.startBar(c.Events)
	defer bar.Finish()
	for e := range c.Events {
		if err := ctx.Err(); err != nil {
			return nil, errs.WrapWithExtra(err, "campaign aborted", fmt.Sprintf("event=%d", e+1))
		}
		popB := db.Population(rng, c.Players)
		if err := rb.RecordPopulation(popB); err != nil {
			return nil, err
		}
		popA := da.Population(rng, c.Players)
		if err := ra.RecordPopulation(popA); err != nil {
			return nil, err
		}
		events[e] = EventSummary{
			Event:          e + 1,
			MeanCostBefore: popB.MeanCost(),
			MeanCostAfter:  popA.MeanCost(),
		}
		bar.Increment()
	}
	used := time.Since(bar.StartTime())

	snap, err := corefmt.Snapshot(rng)
	if err != nil {
		return nil, err
	}
	return &CampaignSeries{
		Campaign:     c,
		Events:       events,
		AgentsBefore: rb.Done(),
		AgentsAfter:  ra.Done(),
		RNG: stats.RNGAudit{
			Seed:     c.Seed,
			Mode:     ModeSequential,
			Draws:    rng.Draws(),
			Snapshot: snap,
		},
		Workers: 1,
		Elapsed: used,
	}, nil
}

// RunCampaignsMP 平行 campaign：每個 (event, 組態) 各自一條亂數流。
//
// 子 seed 由 campaign seed 依 (event, before/after) 的順序預先派生，
// 因此結果與 workers 數量無關；但與 RunCampaigns 的單一亂數流不同，兩者數值不相等。
func (s *Simulator) RunCampaignsMP(c setting.Campaign, workers int) (*CampaignSeries, error) {
	return s.RunCampaignsMPContext(context.Background(), c, workers)
}

// RunCampaignsMPContext 同 RunCampaignsMP；每個 worker 取下一場活動前檢查 ctx，取消後不再領新工作。
func (s *Simulator) RunCampaignsMPContext(ctx context.Context, c setting.Campaign, workers int) (*CampaignSeries, error) {
	if workers < 1 {
		return nil, errs.InvalidConfig("workers must > 0, got %d", workers)
	}
	if _, _, _, _, err := prepare(c); err != nil {
		return nil, err
	}
	workers = min(workers, c.Events)

	// 依序派生，event-major：seeds[2e] = before, seeds[2e+1] = after
	sm := newSeedMaker(c.Seed)
	seeds := make([]int64, 2*c.Events)
	for i := range seeds {
		seeds[i] = sm.next()
	}

	rbs := make([]*recorder.PopulationRecorder, workers)
	ras := make([]*recorder.PopulationRecorder, workers)
	events := make([]EventSummary, c.Events)
	wErrs := make([]error, workers)
	var draws atomic.Uint64

	jobs := make(chan int, c.Events)
	for e := range c.Events {
		jobs <- e
	}
	close(jobs)

	bar := s.startBar(c.Events)
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for w := range workers {
		rb, db, ra, da, _ := prepare(c)
		rbs[w], ras[w] = rb, ra
		go func() {
			defer wg.Done()
			for e := range jobs {
				if err := ctx.Err(); err != nil {
					wErrs[w] = errs.WrapWithExtra(err, "campaign aborted", fmt.Sprintf("event=%d", e+1))
					return
				}
				rngB := core.New(s.pf.New(seeds[2*e]))
				popB := db.Population(rngB, c.Players)
				if err := rb.RecordPopulation(popB); err != nil {
					wErrs[w] = err
					return
				}

				rngA := core.New(s.pf.New(seeds[2*e+1]))
				popA := da.Population(rngA, c.Players)
				if err := ra.RecordPopulation(popA); err != nil {
					wErrs[w] = err
					return
				}

				// 每個 e 只有一個 goroutine 會寫入
				events[e] = EventSummary{
					Event:          e + 1,
					MeanCostBefore: popB.MeanCost(),
					MeanCostAfter:  popA.MeanCost(),
				}
				draws.Add(rngB.Draws() + rngA.Draws())
				bar.Increment()
			}
		}()
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	// ctx 錯誤優先，其餘依 worker 順序回報第一個
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "campaign aborted")
	}
	for _, err := range wErrs {
		if err != nil {
			return nil, err
		}
	}

	mb, err := recorder.Merge(rbs)
	if err != nil {
		return nil, err
	}
	ma, err := recorder.Merge(ras)
	if err != nil {
		return nil, err
	}
	return &CampaignSeries{
		Campaign:     c,
		Events:       events,
		AgentsBefore: mb.Done(),
		AgentsAfter:  ma.Done(),
		RNG: stats.RNGAudit{
			Seed:  c.Seed,
			Mode:  ModeParallel,
			Draws: draws.Load(),
		},
		Workers: workers,
		Elapsed: used,
	}, nil
}

// Trace 以指定 seed 模擬單一玩家並回傳逐抽紀錄（檢視 / 除錯用）。
func (s *Simulator) Trace(c setting.Campaign, cfg setting.Config, seed int64) (draw.Trace, error) {
	if err := c.Validate(); err != nil {
		return draw.Trace{}, err
	}
	d, err := draw.NewDrawer(c.Params(cfg))
	if err != nil {
		return draw.Trace{}, err
	}
	return d.DrawTrace(core.New(s.pf.New(seed))), nil
}

func (s *Simulator) startBar(events int) *pb.ProgressBar {
	bar := pb.New(events)
	if !s.showpb {
		bar.SetWriter(io.Discard)
	}
	return bar.Start()
}

// prepare 檢查設定，並建立兩組紀錄員與掛上觀測的 Drawer。
func prepare(c setting.Campaign) (rb *recorder.PopulationRecorder, db *draw.Drawer, ra *recorder.PopulationRecorder, da *draw.Drawer, err error) {
	if err = c.Validate(); err != nil {
		return
	}
	if rb, db, err = pair(setting.Before, c.Before()); err != nil {
		return
	}
	ra, da, err = pair(setting.After, c.After())
	return
}

func pair(cfg setting.Config, p setting.Params) (*recorder.PopulationRecorder, *draw.Drawer, error) {
	r, err := recorder.NewPopulationRecorder(cfg.String(), p)
	if err != nil {
		return nil, nil, err
	}
	d, err := draw.NewDrawer(p)
	if err != nil {
		return nil, nil, err
	}
	d.Observe(r.Observer())
	return r, d, nil
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// state 的推進是原子的（CAS 迴圈），併發呼叫時每次都取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
