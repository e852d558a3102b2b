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

// Package v1 lab server 的 /v1 路由：情境列表、campaign 模擬、單一玩家追蹤與執行期計數。
package v1

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/httperr"
	"github.com/zintix-labs/gachalab/server/netsvr"
	"github.com/zintix-labs/gachalab/server/svrcfg"
	"github.com/zintix-labs/gachalab/stats"
)

const maxBodyBytes = 1 << 20 // 1MB

// Handler 持有 campaign runtime 與請求限制
type Handler struct {
	rt         *gachalab.Runtime
	log        *slog.Logger
	maxWorkers int
	timeout    time.Duration
}

// NewHandler sCfg 需已通過 Valid
func NewHandler(sCfg *svrcfg.SvrCfg, rt *gachalab.Runtime) (*Handler, error) {
	if rt == nil {
		return nil, errs.NewFatal("campaign runtime is required")
	}
	return &Handler{
		rt:         rt,
		log:        sCfg.Log,
		maxWorkers: sCfg.MaxWorkers,
		timeout:    sCfg.RunTimeout,
	}, nil
}

// Register 掛上 /v1 底下的所有路由
func (h *Handler) Register(r netsvr.NetRouter) {
	r.Get("/scenarios", h.Scenarios)
	r.Get("/campaign", h.Campaign)
	r.Post("/campaign", h.Campaign)
	r.Post("/campaignbycfg", h.CampaignByCfg)
	r.Get("/draw", h.Draw)
	r.Get("/stats", h.Stats)
}

// writeJSON 先完整編碼再寫出，避免寫到一半才出錯
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(v); err != nil {
		httperr.Errs(w, r, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}

// writeReport 依 format 輸出報告：json（預設）/ yaml / table
func writeReport(w http.ResponseWriter, r *http.Request, rep *gachalab.CampaignReport, format string) {
	format = strings.ToLower(strings.TrimSpace(format))
	var ctype string
	switch format {
	case "", "json":
		rep.Done()
		writeJSON(w, r, rep)
		return
	case "yaml", "yml":
		ctype = "application/yaml; charset=utf-8"
	case "table", "text":
		ctype = "text/plain; charset=utf-8"
	default:
		httperr.Errs(w, r, validFormat(format))
		return
	}
	var b bytes.Buffer
	if err := rep.WriteWith(&b, stats.RenderFor(format)); err != nil {
		httperr.Errs(w, r, errs.Wrap(err, "render report"))
		return
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Bytes())
}

func validFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json", "yaml", "yml", "table", "text":
		return nil
	}
	return errs.InvalidConfig("unknown format %q (json|yaml|table)", format)
}

// parseSeed 空字串回 nil；"random" 取密碼學亂數
func parseSeed(s string) (*int64, error) {
	switch s = strings.TrimSpace(s); s {
	case "":
		return nil, nil
	case "random":
		return randomSeed()
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errs.NewWarn("seed must be int64 or \"random\"")
	}
	return &v, nil
}

func randomSeed() (*int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "seed generate failed")
	}
	v := n.Int64()
	return &v, nil
}

// queryInt 空字串回 def
func queryInt(q map[string][]string, key string, def int) (int, error) {
	vs := q[key]
	if len(vs) == 0 || vs[0] == "" {
		return def, nil
	}
	v, err := strconv.Atoi(vs[0])
	if err != nil {
		return 0, errs.NewWarn(key + " must be integer")
	}
	return v, nil
}
