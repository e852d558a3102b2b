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
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// Table 以文字表格輸出報告；withSeries 為 true 時附上逐場明細。
func (r *CampaignReport) Table(withSeries bool) string {
	r.Done()
	var sb strings.Builder

	sk, sm := r.fmtSummary()
	sb.WriteString(fmtTable(r.title(), sk, sm))

	for _, a := range []*AgentSummary{r.AgentsBefore, r.AgentsAfter} {
		if a == nil {
			continue
		}
		ak, am := a.fmtAgents()
		sb.WriteString(fmtTable("Agents ("+a.Config+")", ak, am))
	}

	if withSeries {
		sb.WriteString(r.fmtSeries())
	}
	return sb.String()
}

// FormatDuration 回傳耗時與每秒模擬人數
func FormatDuration(d time.Duration, agents int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	aps := int(float64(agents) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\naps : %d agents/sec\n", sec, aps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\naps : %d agents/sec\n", m, s, aps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\naps : %d agents/sec\n", h, m, s, aps)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func (r *CampaignReport) title() string {
	if r.Name == "" {
		return "Campaign"
	}
	return "Campaign: " + r.Name
}

func (r *CampaignReport) fmtSummary() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	m := map[string]string{
		"Players":        p.Sprintf("%d", r.Players),
		"Events":         p.Sprintf("%d", r.Events),
		"Seed":           fmt.Sprintf("%d", r.RNG.Seed),
		"Mode":           r.RNG.Mode,
		"Mean Cost (B)":  p.Sprintf("%.2f", r.Before.Mean),
		"95% CI (B)":     p.Sprintf("[%.2f, %.2f]", r.Before.Lo, r.Before.Hi),
		"Mean Cost (A)":  p.Sprintf("%.2f", r.After.Mean),
		"95% CI (A)":     p.Sprintf("[%.2f, %.2f]", r.After.Lo, r.After.Hi),
		"A - B":          p.Sprintf("%.2f", r.Diff.Mean),
		"95% CI (A - B)": p.Sprintf("[%.2f, %.2f]", r.Diff.Lo, r.Diff.Hi),
		"Degenerate":     fmt.Sprintf("%t", r.Degenerate),
	}
	keys := []string{"Players", "Events", "Seed", "Mode", "Mean Cost (B)", "95% CI (B)", "Mean Cost (A)", "95% CI (A)", "A - B", "95% CI (A - B)", "Degenerate"}
	return keys, m
}

func (a *AgentSummary) fmtAgents() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	m := map[string]string{
		"Agents":         p.Sprintf("%d", a.Agents),
		"Rare":           p.Sprintf("%d", a.Rare),
		"Cap Reached":    p.Sprintf("%d", a.CapReached),
		"Cap Rate":       fmtHatCIpct01(a.CapRate.Hat, a.CapRate.CI),
		"Mean Pulls":     p.Sprintf("%.3f", a.MeanPulls),
		"Std Pulls":      p.Sprintf("%.3f", a.StdPulls),
		"P50/P90/P99":    p.Sprintf("%.0f / %.0f / %.0f", a.P50Pulls, a.P90Pulls, a.P99Pulls),
		"Mean Cost":      p.Sprintf("%.2f", a.MeanCost),
		"Secondary Rate": fmtPct01(a.SecondaryRate),
	}
	keys := []string{"Agents", "Rare", "Cap Reached", "Cap Rate", "Mean Pulls", "Std Pulls", "P50/P90/P99", "Mean Cost", "Secondary Rate"}
	for _, b := range a.Buckets {
		k := "Pulls " + b.Label
		m[k] = p.Sprintf("%d (%s)", b.Count, fmtPct01(b.Share))
		keys = append(keys, k)
	}
	return keys, m
}

func (r *CampaignReport) fmtSeries() string {
	p := message.NewPrinter(lang)
	var sb strings.Builder
	sb.WriteString(p.Sprintf("%6s  %14s  %14s\n", "event", "before", "after"))
	for _, e := range r.Series {
		sb.WriteString(p.Sprintf("%6d  %14.2f  %14.2f\n", e.Event, e.MeanCostBefore, e.MeanCostAfter))
	}
	return sb.String()
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	if titleW > totalInner {
		// 標題過長時把值欄撐開
		maxValLen += titleW - totalInner
		totalInner = titleW
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", totalInner) + "+\n"

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		v := msg[k]
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), v, blank(maxValLen-2-runewidth.StringWidth(v))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
