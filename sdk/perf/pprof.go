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

// Package perf 以 runtime/pprof 包住一次模擬執行，輸出 cpu / heap / allocs profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/gachalab/errs"
)

// DefaultDir pprof 檔案預設寫入路徑
const DefaultDir = "build/profiling"

// Modes 支援的模式（空字串表示不做 profiling）
var Modes = []string{"", "cpu", "heap", "allocs"}

// Run 依 mode 執行 exe 並寫出 profile，回傳 profile 路徑（未 profiling 時為空）。
//
// exe 的錯誤原樣回傳；profile 寫檔失敗為 Fatal。dir 為空時用 DefaultDir。
//
//	go run ./cmd/run -p cpu
//	go tool pprof build/profiling/cpu.pprof
func Run(mode, dir string, exe func() error) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "":
		return "", exe()
	case "cpu":
		return cpu(dir, exe)
	case "heap", "allocs":
		return snapshot(mode, dir, exe)
	default:
		return "", errs.InvalidConfig("unknown pprof mode %q (cpu|heap|allocs)", mode)
	}
}

func create(dir, name string) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, name+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return nil, "", errs.Wrap(err, "create "+name+".pprof")
	}
	return f, path, nil
}

// cpu 整段 exe 期間的 CPU profile；也可作為 PGO 的 default.pgo。
func cpu(dir string, exe func() error) (string, error) {
	f, path, err := create(dir, "cpu")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return "", errs.Wrap(err, "start cpu profile")
	}
	runErr := exe()
	pprof.StopCPUProfile()
	return path, runErr
}

// snapshot exe 結束後寫一次 heap（in-use）或 allocs（累積配置）快照。
func snapshot(mode, dir string, exe func() error) (string, error) {
	if err := exe(); err != nil {
		return "", err
	}
	f, path, err := create(dir, mode)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if mode == "heap" {
		// 讓快照貼近 live objects
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return "", errs.Wrap(err, "write heap profile")
		}
		return path, nil
	}
	if prof := pprof.Lookup("allocs"); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return "", errs.Wrap(err, "write allocs profile")
		}
	}
	return path, nil
}
