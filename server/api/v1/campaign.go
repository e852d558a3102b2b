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
	"context"
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/httperr"
	"github.com/zintix-labs/gachalab/setting"
)

// campaignRequest GET 走 query、POST 走 JSON body；campaign 存在時優先於 scenario。
type campaignRequest struct {
	Scenario string          `json:"scenario"`
	Campaign json.RawMessage `json:"campaign,omitempty"`
	Seed     *int64          `json:"seed,omitempty"`
	Workers  int             `json:"workers"`
	Players  int             `json:"players,omitempty"`
	Events   int             `json:"events,omitempty"`
	Format   string          `json:"format,omitempty"`
}

// Campaign GET|POST /v1/campaign
//
//	GET /v1/campaign?scenario=quick&seed=42&workers=4&players=500&events=20&format=table
//	POST /v1/campaign {"scenario":"soft_pity","seed":7}
//	POST /v1/campaign {"campaign":{"players":300,"p_rare_after":0.05},"workers":2}
func (h *Handler) Campaign(w http.ResponseWriter, r *http.Request) {
	req := new(campaignRequest)
	switch r.Method {
	case http.MethodGet:
		if err := req.fromQuery(r); err != nil {
			httperr.Errs(w, r, err)
			return
		}
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.BadRequest(w, r, err)
			return
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c, err := h.resolve(req)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	h.run(w, r, c, req.Workers, req.Format)
}

func (req *campaignRequest) fromQuery(r *http.Request) error {
	q := r.URL.Query()
	req.Scenario = q.Get("scenario")
	req.Format = q.Get("format")
	seed, err := parseSeed(q.Get("seed"))
	if err != nil {
		return err
	}
	req.Seed = seed
	if req.Workers, err = queryInt(q, "workers", 0); err != nil {
		return err
	}
	if req.Players, err = queryInt(q, "players", 0); err != nil {
		return err
	}
	if req.Events, err = queryInt(q, "events", 0); err != nil {
		return err
	}
	return nil
}

// resolve 取得情境（或 inline 設定）並套用覆寫
func (h *Handler) resolve(req *campaignRequest) (setting.Campaign, error) {
	var (
		c   setting.Campaign
		err error
	)
	if len(req.Campaign) > 0 && string(req.Campaign) != "null" {
		c, err = h.rt.Lab().CampaignByJSON(req.Campaign)
	} else {
		name := req.Scenario
		if name == "" {
			name = "default"
		}
		c, err = h.rt.Lab().Campaign(name)
	}
	if err != nil {
		return c, err
	}
	if req.Players < 0 || req.Events < 0 {
		return c, errs.InvalidConfig("players/events overrides must be >= 1")
	}
	if req.Players > 0 {
		c.Players = req.Players
	}
	if req.Events > 0 {
		c.Events = req.Events
	}
	if req.Seed != nil {
		c.Seed = *req.Seed
	}
	return c, nil
}

// run 借 runtime slot 執行；workers 會被夾在 [0, maxWorkers]
func (h *Handler) run(w http.ResponseWriter, r *http.Request, c setting.Campaign, workers int, format string) {
	if workers < 0 {
		httperr.Errs(w, r, errs.InvalidConfig("workers must be >= 0"))
		return
	}
	workers = min(workers, h.maxWorkers)
	if err := validFormat(format); err != nil {
		httperr.Errs(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rep, err := h.rt.Run(ctx, gachalab.RunRequest{Campaign: c, Workers: workers})
	if err != nil {
		httperr.Log(h.log, "campaign run", err)
		httperr.Errs(w, r, err)
		return
	}
	writeReport(w, r, rep, format)
}
