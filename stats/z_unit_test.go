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

package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/stats"
	"gopkg.in/yaml.v3"
)

func TestCI95ConstantSample(t *testing.T) {
	ci, err := stats.CI95([]float64{10, 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ci.Mean != 10 || ci.Lo != 10 || ci.Hi != 10 {
		t.Fatalf("want (10,10,10) got %+v", ci)
	}

	zeros, err := stats.CI95(make([]float64, 20))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if zeros != (stats.ConfidenceInterval{}) {
		t.Fatalf("want zero interval got %+v", zeros)
	}
}

func TestCI95Formula(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	ci, err := stats.CI95(vals)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// mean 3, sample var 2.5
	half := 1.96 * math.Sqrt(2.5) / math.Sqrt(5)
	if math.Abs(ci.Mean-3) > 1e-12 || math.Abs(ci.Lo-(3-half)) > 1e-12 || math.Abs(ci.Hi-(3+half)) > 1e-12 {
		t.Fatalf("ci mismatch: %+v want half=%v", ci, half)
	}
	if !ci.Contains(3) || math.Abs(ci.Width()-2*half) > 1e-12 {
		t.Fatalf("width/contains mismatch: %+v", ci)
	}
}

func TestCI95Degenerate(t *testing.T) {
	ci, err := stats.CI95(nil)
	if !errs.IsKind(err, errs.KindDegenerateStatistics) {
		t.Fatalf("empty input should be degenerate, got %v", err)
	}
	if ci != (stats.ConfidenceInterval{}) {
		t.Fatalf("empty fallback want zeros got %+v", ci)
	}

	ci, err = stats.CI95([]float64{42})
	if !errs.IsKind(err, errs.KindDegenerateStatistics) {
		t.Fatalf("single value should be degenerate, got %v", err)
	}
	if ci.Mean != 42 || ci.Lo != 42 || ci.Hi != 42 {
		t.Fatalf("single fallback want (42,42,42) got %+v", ci)
	}
}

func TestCIAt(t *testing.T) {
	vals := []float64{3, 5, 7, 9, 11, 13}
	c95, _ := stats.CI95(vals)
	c99, err := stats.CIAt(vals, 0.99)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c99.Width() <= c95.Width() {
		t.Fatalf("99%% interval should be wider: %v vs %v", c99.Width(), c95.Width())
	}
	cAt95, _ := stats.CIAt(vals, 0.95)
	if math.Abs(cAt95.Width()-c95.Width()) > 1e-3 {
		t.Fatalf("CIAt(0.95) should be close to CI95: %v vs %v", cAt95.Width(), c95.Width())
	}
	if _, err := stats.CIAt(vals, 1); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("level 1 should be invalid, got %v", err)
	}
}

func TestPairedDiff(t *testing.T) {
	ci, err := stats.PairedDiffCI95([]float64{10, 20, 30}, []float64{8, 18, 28})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ci.Mean != -2 || ci.Lo != -2 || ci.Hi != -2 {
		t.Fatalf("constant diff want -2 got %+v", ci)
	}
	if _, err := stats.PairedDiffCI95([]float64{1}, []float64{1, 2}); !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("length mismatch should be invalid, got %v", err)
	}
}

func TestProportionCI95(t *testing.T) {
	ps := stats.ProportionCI95(0, 100)
	if ps.Hat != 0 || ps.CI.Lo != 0 || ps.CI.Hi <= 0 || ps.CI.Hi > 0.05 {
		t.Fatalf("0/100 unexpected: %+v", ps)
	}
	ps = stats.ProportionCI95(50, 100)
	if ps.Hat != 0.5 || !(ps.CI.Lo < 0.5 && ps.CI.Hi > 0.5) {
		t.Fatalf("50/100 unexpected: %+v", ps)
	}
	ps = stats.ProportionCI95(100, 100)
	if ps.CI.Hi != 1 {
		t.Fatalf("100/100 upper must be 1: %+v", ps)
	}
}

func buildAgents() *stats.AgentSummary {
	// 10 人：第 1 抽 5 人、第 3 抽 3 人、第 5 抽（上限）2 人
	hist := make([]int, 6)
	hist[1], hist[3], hist[5] = 5, 3, 2
	return &stats.AgentSummary{
		Config:         "before",
		Limit:          5,
		Step:           2,
		CostPerPull:    10,
		Agents:         10,
		Rare:           8,
		CapReached:     2,
		TotalPulls:     5 + 9 + 10,
		SecondaryPulls: 6,
		CommonPulls:    10,
		CostSum:        240,
		PullsHist:      hist,
	}
}

func TestAgentSummaryDone(t *testing.T) {
	a := buildAgents()
	a.Done()
	if math.Abs(a.MeanPulls-2.4) > 1e-12 {
		t.Fatalf("mean pulls want 2.4 got %v", a.MeanPulls)
	}
	if a.MeanCost != 24 {
		t.Fatalf("mean cost want 24 got %v", a.MeanCost)
	}
	if a.P50Pulls != 1 || a.P90Pulls != 5 || a.P99Pulls != 5 {
		t.Fatalf("quantiles unexpected: p50=%v p90=%v p99=%v", a.P50Pulls, a.P90Pulls, a.P99Pulls)
	}
	if a.CapRate.Hat != 0.2 {
		t.Fatalf("cap rate want 0.2 got %v", a.CapRate.Hat)
	}
	if math.Abs(a.SecondaryRate-0.25) > 1e-12 {
		t.Fatalf("secondary rate want 0.25 got %v", a.SecondaryRate)
	}
	if len(a.Buckets) != 3 {
		t.Fatalf("buckets want 3 got %d", len(a.Buckets))
	}
	want := []int{5, 3, 2}
	for i, b := range a.Buckets {
		if b.Count != want[i] {
			t.Fatalf("bucket %s want %d got %d", b.Label, want[i], b.Count)
		}
	}
	if a.Buckets[2].Label != "[5,5]" {
		t.Fatalf("last bucket label got %s", a.Buckets[2].Label)
	}

	mean := a.MeanPulls
	a.Done() // idempotent
	if a.MeanPulls != mean {
		t.Fatalf("mean changed after second Done")
	}
}

func series(n int) []stats.EventSummary {
	out := make([]stats.EventSummary, n)
	for i := range out {
		out[i] = stats.EventSummary{Event: i + 1, MeanCostBefore: 2000 + float64(i%3), MeanCostAfter: 1700 + float64(i%4)}
	}
	return out
}

func TestNewCampaignReport(t *testing.T) {
	r, err := stats.NewCampaignReport("unit", 100, series(10))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.Degenerate {
		t.Fatalf("10 events must not be degenerate")
	}
	if r.Events != 10 || len(r.Series) != 10 {
		t.Fatalf("events mismatch: %d", r.Events)
	}
	if !(r.Diff.Mean < 0) || !r.Before.Contains(r.Before.Mean) {
		t.Fatalf("unexpected intervals: before=%+v diff=%+v", r.Before, r.Diff)
	}
}

func TestNewCampaignReportDegenerate(t *testing.T) {
	r, err := stats.NewCampaignReport("one", 100, series(1))
	if err != nil {
		t.Fatalf("degenerate should not be an error: %v", err)
	}
	if !r.Degenerate {
		t.Fatalf("single event must set degenerate flag")
	}
	if r.Before.Lo != r.Before.Hi || r.Before.Mean != 2000 {
		t.Fatalf("fallback interval unexpected: %+v", r.Before)
	}
}

func TestRenders(t *testing.T) {
	r, _ := stats.NewCampaignReport("render", 100, series(3))
	r.AgentsBefore = buildAgents()

	var jb bytes.Buffer
	if err := r.WriteWith(&jb, stats.RenderFor("json")); err != nil {
		t.Fatalf("json render: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(jb.Bytes(), &decoded); err != nil {
		t.Fatalf("json output invalid: %v", err)
	}
	if decoded["name"] != "render" {
		t.Fatalf("json name got %v", decoded["name"])
	}

	var yb bytes.Buffer
	if err := r.WriteWith(&yb, stats.RenderFor("yaml")); err != nil {
		t.Fatalf("yaml render: %v", err)
	}
	var ym map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &ym); err != nil {
		t.Fatalf("yaml output invalid: %v", err)
	}
	if !strings.Contains(yb.String(), "pulls_hist: [") {
		t.Fatalf("innermost list should be flow style:\n%s", yb.String())
	}

	var tb bytes.Buffer
	if err := r.WriteWith(&tb, &stats.TableReportRender{Series: true}); err != nil {
		t.Fatalf("table render: %v", err)
	}
	out := tb.String()
	for _, want := range []string{"Campaign: render", "95% CI (A - B)", "Agents (before)", "event"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}
