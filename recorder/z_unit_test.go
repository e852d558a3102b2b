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
	"testing"

	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/sdk/draw"
	"github.com/zintix-labs/gachalab/setting"
)

func params() setting.Params {
	return setting.Params{PRare: 0.02, PSecondary: 0.18, Limit: 50, Step: 10, Bonus: 0.01, CostPerPull: 100}
}

func TestRecordCounts(t *testing.T) {
	r, err := NewPopulationRecorder("before", params())
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	r.Record(draw.Outcome{Pulls: 3, Rarity: draw.Rare, Cost: 300})
	r.Record(draw.Outcome{Pulls: 50, Rarity: draw.CapReached, Cost: 5000})
	r.Record(draw.Outcome{Pulls: 3, Rarity: draw.Rare, Cost: 300})

	b := r.Basic
	if b.Agents != 3 || b.Rare != 2 || b.CapReached != 1 || b.TotalPulls != 56 {
		t.Fatalf("basic counts unexpected: %+v", b)
	}
	if b.PullsSqSum != 3*3*2+50*50 {
		t.Fatalf("pulls square sum unexpected: %+v", b)
	}
	if r.Hist[3] != 2 || r.Hist[50] != 1 {
		t.Fatalf("hist unexpected: h3=%d h50=%d", r.Hist[3], r.Hist[50])
	}

	a := r.Done()
	if a.CostSum != 5600 || a.CostSqSum != 300*300*2+5000*5000 {
		t.Fatalf("cost sums unexpected: sum=%v sq=%v", a.CostSum, a.CostSqSum)
	}
	if a.Agents != 3 || a.CapRate.Hat != 1.0/3.0 {
		t.Fatalf("summary unexpected: %+v", a)
	}
}

func TestObserverCountsTiers(t *testing.T) {
	p := params()
	r, _ := NewPopulationRecorder("after", p)
	d, _ := draw.NewDrawer(p)
	d.Observe(r.Observer())
	src := core.New(core.Default().New(11))
	for range 2000 {
		r.Record(d.Draw(src))
	}
	b := r.Basic
	// 每一抽恰好是 rare / secondary / common 之一
	if b.Rare+b.SecondaryPulls+b.CommonPulls != b.TotalPulls {
		t.Fatalf("tier counts must add up: rare=%d sec=%d common=%d total=%d",
			b.Rare, b.SecondaryPulls, b.CommonPulls, b.TotalPulls)
	}
	if b.SecondaryPulls == 0 || b.CommonPulls == 0 {
		t.Fatalf("expected both secondary and common pulls: %+v", b)
	}
}

func TestMerge(t *testing.T) {
	p := params()
	a, _ := NewPopulationRecorder("before", p)
	b, _ := NewPopulationRecorder("before", p)
	a.Record(draw.Outcome{Pulls: 1, Rarity: draw.Rare, Cost: 100})
	b.Record(draw.Outcome{Pulls: 2, Rarity: draw.Rare, Cost: 200})
	b.Record(draw.Outcome{Pulls: 50, Rarity: draw.CapReached, Cost: 5000})

	m, err := Merge([]*PopulationRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Basic.Agents != 3 || m.Basic.TotalPulls != 53 || m.Hist[1] != 1 || m.Hist[2] != 1 || m.Hist[50] != 1 {
		t.Fatalf("merged unexpected: %+v hist=%v", m.Basic, m.Hist)
	}
	if a.Basic.Agents != 1 {
		t.Fatalf("merge must not mutate inputs")
	}

	c, _ := NewPopulationRecorder("after", p)
	if _, err := Merge([]*PopulationRecorder{a, c}); err == nil {
		t.Fatalf("merging different configs should fail")
	}
	if _, err := Merge(nil); err == nil {
		t.Fatalf("merging nothing should fail")
	}
}

func TestRecordRejectsOutOfRange(t *testing.T) {
	r, _ := NewPopulationRecorder("before", params())
	for _, o := range []draw.Outcome{
		{Pulls: 0, Rarity: draw.Rare},
		{Pulls: -1, Rarity: draw.Rare},
		{Pulls: 51, Rarity: draw.CapReached},
		{Pulls: 5, Rarity: draw.Common},
	} {
		if err := r.Record(o); err == nil {
			t.Fatalf("outcome %+v should be rejected", o)
		}
	}
	if b := r.Basic; b.Agents != 0 || b.TotalPulls != 0 || b.Rare != 0 || b.CapReached != 0 {
		t.Fatalf("rejected outcomes must not be counted: %+v", b)
	}
	pop := draw.Population{Outcomes: []draw.Outcome{{Pulls: 1, Rarity: draw.Rare}, {Pulls: 99, Rarity: draw.Rare}}}
	if err := r.RecordPopulation(pop); err == nil {
		t.Fatalf("population with invalid outcome should fail")
	}
}
