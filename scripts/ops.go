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
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// 開發用 task runner（取代 Makefile，Windows 也能跑）
//
//	go run ./scripts test
//	go run ./scripts profile
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		printColor(colorYellow, "unknown task: "+os.Args[1])
		usage()
		os.Exit(1)
	}
	printColor(colorGreen, t.desc)
	if err := t.run(); err != nil {
		printColor(colorRed, "\n"+err.Error())
		os.Exit(1)
	}
}

type task struct {
	desc string
	run  func() error
}

var tasks = map[string]task{
	"test": {"running tests", func() error {
		// 只留 ok / FAIL 與建置失敗
		return goCmd(filterSummary, "test", "./...", "-cover", "-count=1")
	}},
	"test-all": {"running tests (all with coverage)", func() error {
		return goCmd(nil, "test", "./...", "-cover")
	}},
	"test-detail": {"running tests (detail)", func() error {
		return goCmd(filterNoTestFiles, "test", "./...", "-v", "-count=1")
	}},
	"quick": {"campaign: quick scenario", func() error {
		return goCmd(nil, "run", "./cmd/run", "-s", "quick", "-series")
	}},
	"profile": {"campaign: soft_pity with cpu profile (build/profiling/cpu.pprof)", func() error {
		return goCmd(nil, "run", "./cmd/run", "-s", "soft_pity", "-workers", "4", "-p", "cpu", "-progress=false")
	}},
	"svr": {"lab server on :5808", func() error {
		return goCmd(nil, "run", "./cmd/svr")
	}},
}

func usage() {
	names := make([]string, 0, len(tasks))
	for n := range tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Println("Usage: go run ./scripts [task]")
	for _, n := range names {
		fmt.Printf("  %-12s %s\n", n, tasks[n].desc)
	}
}

// goCmd 執行 go 子命令；filter 為 nil 時直接接上 stdout/stderr。
func goCmd(filter func(line string) (ansi, bool), args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdin = os.Stdin
	if filter == nil {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	// 2>&1，編譯錯誤才看得到
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(pipe)
	for sc.Scan() {
		if c, show := filter(sc.Text()); show {
			printColor(c, sc.Text())
		}
	}
	if err := sc.Err(); err != nil {
		printColor(colorRed, "scanner error: "+err.Error())
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("go %s finished with errors: %w", args[0], err)
	}
	return nil
}

func filterSummary(line string) (ansi, bool) {
	switch {
	case strings.HasPrefix(line, "ok"):
		return colorGreen, true
	case strings.HasPrefix(line, "FAIL"),
		strings.Contains(line, "build failed"),
		strings.Contains(line, "setup failed"):
		return colorRed, true
	}
	return colorDefault, false
}

func filterNoTestFiles(line string) (ansi, bool) {
	if strings.Contains(line, "[no test files]") {
		return colorDefault, false
	}
	if c, ok := filterSummary(line); ok {
		return c, true
	}
	return colorDefault, true
}

// ANSI 顏色代碼（Windows 10+ 的 cmd/powershell 皆支援）
type ansi string

const (
	colorYellow  ansi = "\033[33m"
	colorGreen   ansi = "\033[32m"
	colorRed     ansi = "\033[31m"
	colorDefault ansi = ""
	colorReset        = "\033[0m"
)

func printColor(c ansi, msg string) {
	fmt.Printf("%s%s%s\n", c, msg, colorReset)
}
