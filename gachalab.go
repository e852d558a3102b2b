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

// Package gachalab 提供抽卡蒙地卡羅引擎的「組裝入口（assembler）」與「模擬入口」。
//
// Lab 把兩個必需的地基組裝在一起：
//  1. Catalog：情境目錄，定義有哪些活動情境、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數工廠，保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Lab 不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - 真正的計算在 Simulator：draw（單一玩家）→ population（整批）→ campaign（多場活動）→ stats（信賴區間）。
//   - 引擎不做任何檔案 I/O；輸出格式交給 stats 的 renderer 與外層的 CLI / server。
package gachalab

import (
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/zintix-labs/gachalab/catalog"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/setting"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把 configs 直接編進 binary，也可以用 os.DirFS 在本機讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是「組裝器」：持有情境目錄與亂數工廠，並負責產生 Simulator。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段：建立 catalog、檢查重複與缺漏。
//   - 執行階段：Freeze 之後依情境名稱取得設定並模擬。
//
//	lab, _ := gachalab.NewAuto(core.Default(), gachalab.Configs(configs.FS))
//	c, _ := lab.Campaign("default")
//	series, _ := lab.Simulator().RunCampaigns(c)
//	report, _ := series.Report()
type Lab struct {
	cat *catalog.Catalog
	pf  core.PRNGFactory

	// Freeze 之後 catalog 不再變動，摘要只建一次
	sumOnce sync.Once
	sum     []catalog.Summary
	sumErr  error
}

// New 建立一個 Lab instance（組裝階段）。
//
// pf 不能為 nil；cfgs 至少一個。
func New(pf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	if pf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cata, pf: pf}, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab instance。
func NewAuto(pf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(pf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll
//
// 掃描所有設定檔（.yaml/.yml/.json），解析成 setting.Campaign 並以其 name 註冊。
// 未寫 name 的檔案會透過 setting.Default() 得到 "default"，
// 因此兩個未命名的檔案（或未命名檔案與 default.yaml）會被判為重複名稱而失敗。
//
//  1. Fail-fast：任何一個檔案讀取/解析/檢查失敗，立刻回傳 error。
//  2. 原子性：全部成功才一次性寫入 catalog。
//  3. 穩定性：依檔名排序後處理。
func (l *Lab) RegisterAll() error {
	cfgs := l.cat.Cfg()
	files := cfgs.Files()
	if len(files) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	entries := make([]catalog.Entry, 0, len(files))
	seenName := map[string]string{}
	for _, base := range files {
		src, _ := cfgs.GetFS(base)
		raw, err := fs.ReadFile(src, base)
		if err != nil {
			return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
		}
		c, err := catalog.ParseByExt(base, raw)
		if err != nil {
			return errs.WrapWithExtra(err, "parse campaign failed", "config="+base)
		}
		name := strings.ToLower(c.Name)
		if name == "" {
			return errs.NewFatal(fmt.Sprintf("scenario name required: %s", base))
		}
		if prev, ok := seenName[name]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate scenario name: %s (config=%s and %s)", name, prev, base))
		}
		if _, ok := l.cat.GetByName(name); ok {
			return errs.NewFatal(fmt.Sprintf("scenario name already registered: %s (config=%s)", name, base))
		}
		seenName[name] = base
		entries = append(entries, catalog.Entry{Name: name, ConfigName: base})
	}
	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) Names() []string {
	return l.cat.Names()
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

// Campaign 依情境名稱取得已檢查的設定（每次回傳新的副本）。
func (l *Lab) Campaign(name string) (setting.Campaign, error) {
	if !l.cat.IsFrozen() {
		return setting.Campaign{}, catalog.ErrNotFrozen
	}
	c, err := l.cat.CampaignByName(name)
	if err != nil {
		return setting.Campaign{}, err
	}
	return c, nil
}

// Summary 所有情境的摘要（依名稱排序）。
//
// 只有 Freeze 之後可用；第一次呼叫時建立並快取，之後併發讀取安全。回傳的 slice 不可修改。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, catalog.ErrNotFrozen
	}
	l.sumOnce.Do(func() {
		names := l.cat.Names()
		cs := make([]catalog.Summary, 0, len(names))
		for _, n := range names {
			c, err := l.Campaign(n)
			if err != nil {
				l.sumErr = errs.Wrap(err, "parse campaign failed")
				return
			}
			cs = append(cs, catalog.SummaryOf(c))
		}
		l.sum = cs
	})
	return l.sum, l.sumErr
}

// Simulator 以 Lab 的亂數工廠建立 Simulator
func (l *Lab) Simulator() *Simulator {
	return NewSimulator(l.pf)
}

// CampaignByYAML 解析呼叫端提供的 YAML 設定（未提及的欄位取預設值）
func (l *Lab) CampaignByYAML(raw []byte) (setting.Campaign, error) {
	return setting.FromYAML(raw)
}

// CampaignByJSON 解析呼叫端提供的 JSON 設定（未提及的欄位取預設值）
func (l *Lab) CampaignByJSON(raw []byte) (setting.Campaign, error) {
	return setting.FromJSON(raw)
}
