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
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/catalog"
	"github.com/zintix-labs/gachalab/configs"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/sdk/perf"
	"github.com/zintix-labs/gachalab/setting"
	"github.com/zintix-labs/gachalab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	scenario  string
	file      string
	dir       string
	workers   int
	players   int
	events    int
	seed      seedFlag
	out       string
	series    bool
	progress  bool
	list      bool
	dump      bool
	pprofmode string
}

// seedFlag 未設定時沿用情境 seed；"random" 取密碼學亂數
type seedFlag struct {
	set bool
	v   int64
}

func (f *seedFlag) String() string {
	if !f.set {
		return ""
	}
	return strconv.FormatInt(f.v, 10)
}

func (f *seedFlag) Set(s string) error {
	if s == "random" {
		n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return err
		}
		f.v, f.set = n.Int64(), true
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("seed must be int64 or \"random\"")
	}
	f.v, f.set = v, true
	return nil
}

func parseFlags(args []string) (*config, error) {
	cfg := new(config)
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	fset.StringVar(&cfg.scenario, "s", "default", "scenario name")
	fset.StringVar(&cfg.file, "c", "", "settings file (*.yaml|*.json), overrides -s")
	fset.StringVar(&cfg.dir, "dir", "", "extra scenario directory")
	fset.IntVar(&cfg.workers, "workers", 1, "number of workers (> 1 runs events in parallel)")
	fset.IntVar(&cfg.players, "players", 0, "override players per event")
	fset.IntVar(&cfg.events, "events", 0, "override number of events")
	fset.Var(&cfg.seed, "seed", "override seed (int64 or random)")
	fset.StringVar(&cfg.out, "o", "", "also write the report to a *.json|*.yaml file")
	fset.BoolVar(&cfg.series, "series", false, "print per-event series")
	fset.BoolVar(&cfg.progress, "progress", true, "show progress bar")
	fset.BoolVar(&cfg.list, "list", false, "list scenarios and exit")
	fset.BoolVar(&cfg.dump, "dump", false, "print the effective settings as YAML and exit")
	fset.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	return cfg, cfg.valid()
}

func (cfg *config) valid() error {
	if cfg.workers < 1 {
		return errs.InvalidConfig("workers must > 0")
	}
	if cfg.players < 0 || cfg.events < 0 {
		return errs.InvalidConfig("players/events overrides must >= 0")
	}
	if !slices.Contains(perf.Modes, cfg.pprofmode) {
		return errs.InvalidConfig("unknown pprof mode %q", cfg.pprofmode)
	}
	if cfg.out != "" {
		if _, err := outFormat(cfg.out); err != nil {
			return err
		}
	}
	return nil
}

func outFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", errs.InvalidConfig("output file must be *.json or *.yaml, got %q", path)
	}
}

// load 建立 Lab 並取出套用覆寫後的設定
func (cfg *config) load() (*gachalab.Lab, setting.Campaign, error) {
	srcs := []fs.FS{configs.FS}
	if cfg.dir != "" {
		srcs = append(srcs, os.DirFS(cfg.dir))
	}
	lab, err := gachalab.NewAuto(core.Default(), gachalab.Configs(srcs...))
	if err != nil {
		return nil, setting.Campaign{}, err
	}

	var c setting.Campaign
	if cfg.file != "" {
		raw, rerr := os.ReadFile(cfg.file)
		if rerr != nil {
			return nil, c, errs.Wrap(rerr, "read settings file")
		}
		c, err = catalog.ParseByExt(cfg.file, raw)
	} else {
		c, err = lab.Campaign(cfg.scenario)
	}
	if err != nil {
		return nil, c, err
	}
	if cfg.players > 0 {
		c.Players = cfg.players
	}
	if cfg.events > 0 {
		c.Events = cfg.events
	}
	if cfg.seed.set {
		c.Seed = cfg.seed.v
	}
	return lab, c, c.Validate()
}

// 這裡解析並分支要執行的模擬器
func execute(cfg *config, out io.Writer) error {
	lab, c, err := cfg.load()
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)

	switch {
	case cfg.list:
		sum, err := lab.Summary()
		if err != nil {
			return err
		}
		for _, s := range sum {
			p.Fprintf(out, "%-12s players=%d events=%d limit=%d rare=%.4f->%.4f  %s\n",
				s.Name, s.Players, s.Events, s.Limit, s.PRareBefore, s.PRareAfter, s.Notes)
		}
		return nil
	case cfg.dump:
		b, err := setting.ToYAML(c)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p.Fprintf(out, "%s[CAMPAIGN:%s] [WORKERS:%d] [PLAYERS:%d] [EVENTS:%d] [SEED:%d]%s\n",
		green, c.Name, cfg.workers, c.Players, c.Events, c.Seed, reset)

	sim := lab.Simulator().ShowProgress(cfg.progress)
	var series *gachalab.CampaignSeries
	if cfg.workers > 1 {
		series, err = sim.RunCampaignsMP(c, cfg.workers)
	} else {
		series, err = sim.RunCampaigns(c)
	}
	if err != nil {
		return err
	}
	rep, err := series.Report()
	if err != nil {
		return err
	}
	fmt.Fprint(out, rep.Table(cfg.series))
	fmt.Fprint(out, stats.FormatDuration(series.Elapsed, c.Players*c.Events*2))

	if cfg.out == "" {
		return nil
	}
	return writeFile(cfg.out, rep)
}

func writeFile(path string, rep *gachalab.CampaignReport) (err error) {
	format, err := outFormat(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, "create output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create output file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errs.Wrap(cerr, "close output file")
		}
	}()
	return rep.WriteWith(f, stats.RenderFor(format))
}
