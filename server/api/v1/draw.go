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

package v1

import (
	"net/http"
	"strings"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/sdk/draw"
	"github.com/zintix-labs/gachalab/server/httperr"
	"github.com/zintix-labs/gachalab/setting"
)

// Draw GET /v1/draw?scenario=default&config=after&seed=99
//
// 回傳單一玩家的逐抽紀錄（每抽的層級與當下稀有機率），不佔 runtime slot。
// seed 未指定時用情境的 seed。
func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("scenario")
	if name == "" {
		name = "default"
	}
	c, err := h.rt.Lab().Campaign(name)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}

	var cfg setting.Config
	switch strings.ToLower(q.Get("config")) {
	case "", "before":
		cfg = setting.Before
	case "after":
		cfg = setting.After
	default:
		httperr.Errs(w, r, errs.InvalidConfig("config must be before|after"))
		return
	}

	seed, err := parseSeed(q.Get("seed"))
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	if seed != nil {
		c.Seed = *seed
	}

	tr, err := h.rt.Lab().Simulator().Trace(c, cfg, c.Seed)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	type drawResponse struct {
		Scenario string     `json:"scenario"`
		Config   string     `json:"config"`
		Seed     int64      `json:"seed"`
		Trace    draw.Trace `json:"trace"`
	}
	writeJSON(w, r, drawResponse{Scenario: c.Name, Config: cfg.String(), Seed: c.Seed, Trace: tr})
}
