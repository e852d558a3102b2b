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
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/zintix-labs/gachalab/configs"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/sdk/draw"
	"github.com/zintix-labs/gachalab/setting"
)

func smallCampaign() setting.Campaign {
	c := setting.Default()
	c.Name = "unit"
	c.Players = 300
	c.Events = 6
	return c
}

func sameEvents(t *testing.T, a, b []EventSummary) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("series length differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i+1, a[i], b[i])
		}
	}
}

func TestRunCampaignsDeterministic(t *testing.T) {
	c := smallCampaign()
	sim := NewSimulator(core.Default())
	s1, err := sim.RunCampaigns(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	s2, err := sim.RunCampaigns(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	sameEvents(t, s1.Events, s2.Events)
	if s1.RNG.Snapshot == "" || s1.RNG.Snapshot != s2.RNG.Snapshot {
		t.Fatalf("final prng snapshot must match and be non-empty")
	}
	if s1.Len() != c.Events {
		t.Fatalf("series length want %d got %d", c.Events, s1.Len())
	}
	for i, e := range s1.Events {
		if e.Event != i+1 {
			t.Fatalf("event index want %d got %d", i+1, e.Event)
		}
	}

	c.Seed++
	s3, _ := sim.RunCampaigns(c)
	if s3.Events[0] == s1.Events[0] {
		t.Fatalf("different seed should change the series")
	}
}

func TestRunCampaignsConsumesOneValuePerPull(t *testing.T) {
	c := smallCampaign()
	s, err := NewSimulator(nil).RunCampaigns(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	pulls := uint64(s.AgentsBefore.TotalPulls + s.AgentsAfter.TotalPulls)
	if s.RNG.Draws != pulls {
		t.Fatalf("draws %d != total pulls %d", s.RNG.Draws, pulls)
	}
	if s.AgentsBefore.Agents != c.Players*c.Events || s.AgentsAfter.Agents != c.Players*c.Events {
		t.Fatalf("agent count mismatch: %d / %d", s.AgentsBefore.Agents, s.AgentsAfter.Agents)
	}
}

func TestRunCampaignsMPIndependentOfWorkers(t *testing.T) {
	c := smallCampaign()
	sim := NewSimulator(core.Default())
	base, err := sim.RunCampaignsMP(c, 1)
	if err != nil {
		t.Fatalf("run mp: %v", err)
	}
	for _, w := range []int{2, 3, 16} {
		s, err := sim.RunCampaignsMP(c, w)
		if err != nil {
			t.Fatalf("run mp workers=%d: %v", w, err)
		}
		sameEvents(t, base.Events, s.Events)
		if s.RNG.Draws != base.RNG.Draws {
			t.Fatalf("workers=%d draws differ: %d vs %d", w, s.RNG.Draws, base.RNG.Draws)
		}
		if s.AgentsBefore.MeanPulls != base.AgentsBefore.MeanPulls || s.AgentsAfter.CostSum != base.AgentsAfter.CostSum {
			t.Fatalf("workers=%d agent summary differs", w)
		}
	}
	if base.RNG.Mode != ModeParallel || base.RNG.Snapshot != "" {
		t.Fatalf("parallel audit unexpected: %+v", base.RNG)
	}
}

func TestRunCampaignsInvalid(t *testing.T) {
	sim := NewSimulator(nil)
	c := smallCampaign()
	c.Players = 0
	if _, err := sim.RunCampaigns(c); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("players=0 should be invalid configuration, got %v", err)
	}
	c = smallCampaign()
	c.PRareAfter = 1.5
	if _, err := sim.RunCampaignsMP(c, 2); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("p_rare_after=1.5 should be invalid configuration, got %v", err)
	}
	if _, err := sim.RunCampaignsMP(smallCampaign(), 0); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("workers=0 should be invalid configuration, got %v", err)
	}
}

func TestCertainAndImpossibleRare(t *testing.T) {
	c := smallCampaign()
	c.PRareBefore, c.PSecondaryBefore = 1, 0
	c.PRareAfter, c.PSecondaryAfter, c.Bonus, c.Limit = 0, 0, 0, 5
	s, err := NewSimulator(nil).RunCampaigns(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, e := range s.Events {
		if e.MeanCostBefore != c.CostPerPull {
			t.Fatalf("certain rare should cost one pull, got %v", e.MeanCostBefore)
		}
		if e.MeanCostAfter != 5*c.CostPerPull {
			t.Fatalf("impossible rare should hit the cap, got %v", e.MeanCostAfter)
		}
	}
	if s.AgentsAfter.CapReached != s.AgentsAfter.Agents {
		t.Fatalf("all after agents should reach the cap")
	}
}

func TestRateUpLowersCost(t *testing.T) {
	c := smallCampaign()
	c.Players = 2000
	c.Events = 10
	s, err := NewSimulator(nil).RunCampaigns(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	r, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Degenerate {
		t.Fatalf("10 events must not be degenerate")
	}
	if !(r.After.Mean < r.Before.Mean) || !(r.Diff.Hi < 0) {
		t.Fatalf("rate up should lower mean cost: before=%+v after=%+v diff=%+v", r.Before, r.After, r.Diff)
	}
	if r.AgentsBefore == nil || r.AgentsBefore.Agents != c.Players*c.Events {
		t.Fatalf("agents before missing")
	}
}

func TestSingleEventIsDegenerate(t *testing.T) {
	c := smallCampaign()
	c.Events = 1
	s, err := NewSimulator(nil).RunCampaigns(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	r, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !r.Degenerate || r.Before.Lo != r.Before.Hi {
		t.Fatalf("single event should give degenerate zero-width interval: %+v", r.Before)
	}
}

func TestTrace(t *testing.T) {
	sim := NewSimulator(nil)
	tr, err := sim.Trace(setting.Default(), setting.After, 99)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(tr.Tiers) != tr.Outcome.Pulls {
		t.Fatalf("trace length %d != pulls %d", len(tr.Tiers), tr.Outcome.Pulls)
	}
	last := tr.Tiers[len(tr.Tiers)-1]
	if tr.Outcome.Rarity == draw.Rare && last != draw.Rare {
		t.Fatalf("last tier must be rare when outcome is rare")
	}
	again, _ := sim.Trace(setting.Default(), setting.After, 99)
	if again.Outcome != tr.Outcome {
		t.Fatalf("trace must be reproducible")
	}
}

func TestLabFromEmbeddedConfigs(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(configs.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	names := lab.Names()
	if len(names) != 3 || names[0] != "default" {
		t.Fatalf("unexpected names: %v", names)
	}
	c, err := lab.Campaign(" Default ")
	if err != nil {
		t.Fatalf("campaign: %v", err)
	}
	c.Notes = ""
	if c != setting.Default() {
		t.Fatalf("default.yaml should equal built-in defaults: %+v", c)
	}
	if _, err := lab.Campaign("nope"); err == nil {
		t.Fatalf("unknown scenario should fail")
	}
	sum, err := lab.Summary()
	if err != nil || len(sum) != 3 {
		t.Fatalf("summary: %v len=%d", err, len(sum))
	}
	if err := lab.Register(); err == nil {
		t.Fatalf("register after freeze should fail")
	}
}

func TestLabNotFrozen(t *testing.T) {
	lab, err := New(core.Default(), Configs(configs.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	if _, err := lab.Campaign("default"); err == nil {
		t.Fatalf("campaign before freeze should fail")
	}
	if _, err := New(nil, Configs(configs.FS)); err == nil {
		t.Fatalf("nil factory should fail")
	}
}

func TestRuntime(t *testing.T) {
	lab, _ := NewAuto(core.Default(), Configs(configs.FS))
	// smallCampaign 最多 300 * 6 * 2 * 50 = 180000 抽
	rt := lab.BuildRuntime(2, 200000)

	big := smallCampaign()
	big.Players, big.Events = 5000, 2
	if _, err := rt.Run(context.Background(), RunRequest{Campaign: big}); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("oversized run should be rejected, got %v", err)
	}

	rep, err := rt.Run(context.Background(), RunRequest{Campaign: smallCampaign(), Workers: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Events != 6 || rep.Workers != 2 {
		t.Fatalf("report unexpected: events=%d workers=%d", rep.Events, rep.Workers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	full := lab.BuildRuntime(1, 0)
	<-full.slots // 佔住唯一的 slot
	if _, err := full.Run(ctx, RunRequest{Campaign: smallCampaign()}); err == nil {
		t.Fatalf("canceled context should fail")
	}

	rt.Close()
	rt.Close()
	if _, err := rt.Run(context.Background(), RunRequest{Campaign: smallCampaign()}); err == nil {
		t.Fatalf("closed runtime should fail")
	}
	st := rt.Stats()
	if !st.Closed || st.Runs != 1 || st.Rejected != 1 || st.Reason != "closed" {
		t.Fatalf("stats unexpected: %+v", st)
	}
}

func TestSeedMaker(t *testing.T) {
	a, b := newSeedMaker(1234), newSeedMaker(1234)
	seen := map[int64]struct{}{}
	for range 1000 {
		x, y := a.next(), b.next()
		if x != y {
			t.Fatalf("seed maker must be deterministic")
		}
		if x < 0 {
			t.Fatalf("derived seed must be non-negative: %d", x)
		}
		if _, ok := seen[x]; ok {
			t.Fatalf("derived seed repeated: %d", x)
		}
		seen[x] = struct{}{}
	}
}

func TestRunCampaignsDrawOrder(t *testing.T) {
	c := smallCampaign()
	c.Seed = 77
	got, err := NewSimulator(core.Default()).RunCampaigns(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// 同一條亂數流：每場先抽完 before 全體，再抽 after 全體
	rng := core.New(core.Default().New(c.Seed))
	want := make([]EventSummary, c.Events)
	for e := range c.Events {
		popB, err := draw.SimulatePopulation(rng, c.Players, c.Before())
		if err != nil {
			t.Fatalf("before population: %v", err)
		}
		popA, err := draw.SimulatePopulation(rng, c.Players, c.After())
		if err != nil {
			t.Fatalf("after population: %v", err)
		}
		want[e] = EventSummary{Event: e + 1, MeanCostBefore: popB.MeanCost(), MeanCostAfter: popA.MeanCost()}
	}
	sameEvents(t, got.Events, want)
	if got.RNG.Draws != rng.Draws() {
		t.Fatalf("draw count differs: %d vs %d", got.RNG.Draws, rng.Draws())
	}
}

func TestRunCampaignsContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim := NewSimulator(nil)
	if _, err := sim.RunCampaignsContext(ctx, smallCampaign()); !errors.Is(err, context.Canceled) {
		t.Fatalf("sequential run should stop on canceled ctx, got %v", err)
	}
	if _, err := sim.RunCampaignsMPContext(ctx, smallCampaign(), 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("parallel run should stop on canceled ctx, got %v", err)
	}
}

func TestRuntimeTimeoutStopsRun(t *testing.T) {
	lab, _ := NewAuto(core.Default(), Configs(configs.FS))
	rt := lab.BuildRuntime(1, 0)

	long := setting.Default()
	long.Players, long.Events = 2000, 1000
	for _, workers := range []int{1, 4} {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := rt.Run(ctx, RunRequest{Campaign: long, Workers: workers})
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("workers=%d: run should hit the deadline, got %v", workers, err)
		}
	}
	// slot 已歸還
	if _, err := rt.Run(context.Background(), RunRequest{Campaign: smallCampaign()}); err != nil {
		t.Fatalf("slot should be released after timeout: %v", err)
	}
}

func TestRuntimeDrawBudget(t *testing.T) {
	lab, _ := NewAuto(core.Default(), Configs(configs.FS))
	rt := lab.BuildRuntime(1, 20_000_000)

	// 1 名玩家但 limit 很大：人數很少，抽數仍超過上限
	c := setting.Default()
	c.Players, c.Events, c.Limit = 1, 2, 50_000_000
	c.PRareBefore, c.PRareAfter = 0, 0
	c.PSecondaryBefore, c.PSecondaryAfter, c.Bonus = 0, 0, 0
	if err := c.Validate(); err != nil {
		t.Fatalf("campaign itself should be valid: %v", err)
	}
	if _, err := rt.Run(context.Background(), RunRequest{Campaign: c}); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("large limit should exceed the draw budget, got %v", err)
	}

	c = setting.Default()
	c.Players = math.MaxInt
	if n, ok := worstDraws(c); ok {
		t.Fatalf("overflow should be detected, got n=%d", n)
	}
	if _, err := rt.Run(context.Background(), RunRequest{Campaign: c}); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("overflowing campaign should be rejected, got %v", err)
	}

	if n, ok := worstDraws(setting.Default()); !ok || n != 1000*50*2*50 {
		t.Fatalf("default campaign draws = %d, %v", n, ok)
	}
}

func TestLabSummaryConcurrent(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(configs.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	const n = 8
	got := make([][]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sum, err := lab.Summary()
			if err != nil {
				t.Errorf("summary: %v", err)
				return
			}
			for _, s := range sum {
				got[i] = append(got[i], s.Name)
			}
		}()
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if len(got[i]) != len(got[0]) || len(got[0]) == 0 {
			t.Fatalf("summary differs between callers: %v vs %v", got[i], got[0])
		}
		for j := range got[0] {
			if got[i][j] != got[0][j] {
				t.Fatalf("summary differs between callers: %v vs %v", got[i], got[0])
			}
		}
	}
}
