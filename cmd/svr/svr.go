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

package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/configs"
	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/server"
	"github.com/zintix-labs/gachalab/server/logger"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

// lab server 入口：先讀 GACHALAB_* 環境變數，再以 flag 覆寫。
//
//	GACHALAB_LOG_MODE=prod go run ./cmd/svr -addr :8080 -dir ./my_scenarios
func main() {
	sCfg, closeLog, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig(args []string) (*svrcfg.SvrCfg, func(), error) {
	env, err := svrcfg.FromEnv()
	if err != nil {
		return nil, nil, err
	}

	fset := flag.NewFlagSet("svr", flag.ContinueOnError)
	fset.StringVar(&env.Addr, "addr", env.Addr, "listen address")
	fset.TextVar(&env.LogMode, "log-mode", env.LogMode, "log mode: dev|prod|silence")
	fset.IntVar(&env.Slots, "slots", env.Slots, "max concurrent campaign runs")
	fset.IntVar(&env.MaxWorkers, "max-workers", env.MaxWorkers, "max workers per campaign run")
	fset.Int64Var(&env.MaxAgentDraws, "max-agent-draws", env.MaxAgentDraws, "max players*events*2*limit draws per request (<= 0 unlimited)")
	dir := fset.String("dir", "", "extra scenario directory (flat, *.yaml|*.json)")
	if err := fset.Parse(args); err != nil {
		return nil, nil, err
	}

	srcs := []fs.FS{configs.FS}
	if *dir != "" {
		srcs = append(srcs, os.DirFS(*dir))
	}
	lab, err := gachalab.NewAuto(core.Default(), gachalab.Configs(srcs...))
	if err != nil {
		return nil, nil, err
	}

	log, ah := logger.NewAsync(4096, env.LogMode)
	return &svrcfg.SvrCfg{Env: env, Log: log, Lab: lab}, ah.Close, nil
}
