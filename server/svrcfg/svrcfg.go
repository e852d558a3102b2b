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

// Package svrcfg lab server 的組裝設定：環境變數部分由 caarlos0/env 解析，
// 依賴（logger / Lab）由呼叫端注入。
package svrcfg

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/logger"
)

// EnvPrefix 所有環境變數的前綴
const EnvPrefix = "GACHALAB_"

// Env 可由環境變數覆寫的設定（皆帶 GACHALAB_ 前綴）
type Env struct {
	Addr          string         `env:"ADDR"            envDefault:":5808"`
	LogMode       logger.LogMode `env:"LOG_MODE"        envDefault:"dev"`
	Slots         int            `env:"SLOTS"           envDefault:"2"`
	MaxWorkers    int            `env:"MAX_WORKERS"     envDefault:"8"`
	MaxAgentDraws int64          `env:"MAX_AGENT_DRAWS" envDefault:"20000000"`
	RunTimeout    time.Duration  `env:"RUN_TIMEOUT"     envDefault:"45s"`
	WriteTimeout  time.Duration  `env:"WRITE_TIMEOUT"   envDefault:"60s"`
}

// FromEnv 讀取行程環境
func FromEnv() (Env, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// FromMap 以給定的 map 取代行程環境（測試或內嵌使用）
func FromMap(m map[string]string) (Env, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: m})
}

func parse(opts env.Options) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return e, errs.InvalidConfig("parse server env: %v", err)
	}
	return e, nil
}

// SvrCfg server 組裝設定
type SvrCfg struct {
	Env
	Log *slog.Logger
	Lab *gachalab.Lab
}

// Valid 補上預設 logger、夾住資源上限，並檢查必要依賴。
//
//	1 <= Slots <= 16, 1 <= MaxWorkers <= 64, RunTimeout < WriteTimeout
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(sc.LogMode)
	}
	if sc.Addr == "" {
		sc.Addr = ":5808"
	}
	sc.Slots = min(16, max(1, sc.Slots))
	sc.MaxWorkers = min(64, max(1, sc.MaxWorkers))
	if sc.WriteTimeout <= 0 {
		sc.WriteTimeout = 60 * time.Second
	}
	if sc.RunTimeout <= 0 || sc.RunTimeout >= sc.WriteTimeout {
		sc.RunTimeout = sc.WriteTimeout * 3 / 4
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}
