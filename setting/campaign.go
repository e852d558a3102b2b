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

package setting

import (
	"strings"

	"github.com/zintix-labs/gachalab/errs"
)

// Config 活動前/活動後的標籤
type Config uint8

const (
	Before Config = iota
	After
)

func (c Config) String() string {
	if c == After {
		return "after"
	}
	return "before"
}

// Campaign 一次完整蒙地卡羅分析的輸入。
//
// 活動前後只有稀有/次稀有機率不同，其餘參數共用。
type Campaign struct {
	Name             string  `yaml:"name"               json:"name"`
	Notes            string  `yaml:"notes,omitempty"    json:"notes,omitempty"`
	Players          int     `yaml:"players"            json:"players"`
	Limit            int     `yaml:"limit"              json:"limit"`
	PRareBefore      float64 `yaml:"p_rare_before"      json:"p_rare_before"`
	PRareAfter       float64 `yaml:"p_rare_after"       json:"p_rare_after"`
	PSecondaryBefore float64 `yaml:"p_secondary_before" json:"p_secondary_before"`
	PSecondaryAfter  float64 `yaml:"p_secondary_after"  json:"p_secondary_after"`
	Step             int     `yaml:"step"               json:"step"`
	Bonus            float64 `yaml:"bonus"              json:"bonus"`
	CostPerPull      float64 `yaml:"cost_per_pull"      json:"cost_per_pull"`
	Events           int     `yaml:"events"             json:"events"`
	Seed             int64   `yaml:"seed"               json:"seed"`
}

// Default 回傳預設活動設定：1000 名玩家、上限 50 抽、SSR 2% → 3%、SR 18% → 17%、
// 每 10 抽提升 1%、每抽 100、模擬 50 場活動、seed 1234。
func Default() Campaign {
	return Campaign{
		Name:             "default",
		Players:          1000,
		Limit:            50,
		PRareBefore:      0.02,
		PRareAfter:       0.03,
		PSecondaryBefore: 0.18,
		PSecondaryAfter:  0.17,
		Step:             10,
		Bonus:            0.01,
		CostPerPull:      100,
		Events:           50,
		Seed:             1234,
	}
}

// Params 取出指定組態的 Params。
func (c Campaign) Params(cfg Config) Params {
	p := Params{
		PRare:       c.PRareBefore,
		PSecondary:  c.PSecondaryBefore,
		Limit:       c.Limit,
		Step:        c.Step,
		Bonus:       c.Bonus,
		CostPerPull: c.CostPerPull,
	}
	if cfg == After {
		p.PRare = c.PRareAfter
		p.PSecondary = c.PSecondaryAfter
	}
	return p
}

// Before 活動前組態
func (c Campaign) Before() Params { return c.Params(Before) }

// After 活動後組態
func (c Campaign) After() Params { return c.Params(After) }

// Validate 在模擬開始前檢查全部參數；任何錯誤都是 KindInvalidConfiguration。
func (c Campaign) Validate() error {
	if c.Players < 1 {
		return errs.InvalidConfig("players must > 0, got %d", c.Players)
	}
	if c.Events < 1 {
		return errs.InvalidConfig("events must > 0, got %d", c.Events)
	}
	for _, cfg := range []Config{Before, After} {
		if err := c.Params(cfg).Validate(); err != nil {
			return errs.WrapWithExtra(err, "invalid campaign params", "config="+cfg.String())
		}
	}
	return nil
}

func (c *Campaign) normalize() {
	c.Name = strings.TrimSpace(c.Name)
}
