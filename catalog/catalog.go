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

// Package catalog 管理一組情境（scenario）設定檔的目錄。
//
// 設定檔來源一律是扁平的 fs.FS（go:embed 或 os.DirFS），目錄以情境名稱為唯一鍵。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/setting"
)

var (
	ErrDupName   = errs.NewFatal("duplicate scenario name")
	ErrNotFound  = errs.NewWarn("scenario not found")
	ErrFrozen    = errs.NewWarn("can not register when catalog already frozen")
	ErrNotFrozen = errs.NewFatal("catalog is not frozen yet")
)

type Entry struct {
	Name       string
	ConfigName string
}

// Summary 情境摘要（對外列表用）
type Summary struct {
	Name             string  `json:"name"`
	Notes            string  `json:"notes,omitempty"`
	Players          int     `json:"players"`
	Events           int     `json:"events"`
	Limit            int     `json:"limit"`
	PRareBefore      float64 `json:"p_rare_before"`
	PRareAfter       float64 `json:"p_rare_after"`
	PSecondaryBefore float64 `json:"p_secondary_before"`
	PSecondaryAfter  float64 `json:"p_secondary_after"`
	Seed             int64   `json:"seed"`
}

// SummaryOf 由設定取摘要
func SummaryOf(c setting.Campaign) Summary {
	return Summary{
		Name:             c.Name,
		Notes:            c.Notes,
		Players:          c.Players,
		Events:           c.Events,
		Limit:            c.Limit,
		PRareBefore:      c.PRareBefore,
		PRareAfter:       c.PRareAfter,
		PSecondaryBefore: c.PSecondaryBefore,
		PSecondaryAfter:  c.PSecondaryAfter,
		Seed:             c.Seed,
	}
}

// Catalog 註冊階段只能單一 goroutine 使用；Freeze 之後唯讀，可併發查詢。
type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一組情境，檔名需唯一
	config *multiFS
	frozen atomic.Bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

// Register 一次性註冊多筆；任一筆不合法則全部不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen.Load() {
		return ErrFrozen
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		metas[i].Name = normName(metas[i].Name)
		meta := metas[i]
		if meta.Name == "" {
			return errs.NewFatal("scenario name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen.Store(true)
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen.Load()
}

// CampaignByName
//
// 讀取 fs.FS 中的 YAML/JSON 設定，套用預設值並執行基本檢查後回傳
func (c *Catalog) CampaignByName(name string) (setting.Campaign, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return setting.Campaign{}, errs.WrapWithExtra(ErrNotFound, "get campaign failed", "name="+normName(name))
	}
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return setting.Campaign{}, errs.NewWarn("file name dose not exist in catalog")
	}
	raw, err := fs.ReadFile(src, e.ConfigName)
	if err != nil {
		return setting.Campaign{}, errs.Wrap(err, "catalog read file error")
	}
	return ParseByExt(e.ConfigName, raw)
}

// ParseByExt 依副檔名選擇 YAML / JSON 解析
func ParseByExt(filename string, raw []byte) (setting.Campaign, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return setting.FromYAML(raw)
	case ".json":
		return setting.FromJSON(raw)
	default:
		return setting.Campaign{}, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isConfigFile(file string) bool {
	lower := strings.ToLower(file)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}

	// 建立索引，同時檢查重複檔名與子目錄
	for i := range src {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.Contains(path, "/") {
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			// 只收 yaml/json，其餘檔案（例如 embed.go）略過
			if strings.HasPrefix(path, ".") || !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Files 依檔名排序回傳所有已索引的設定檔
func (m *multiFS) Files() []string {
	out := make([]string, 0, len(m.index))
	for name := range m.index {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
