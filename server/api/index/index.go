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

// Package index lab server 主頁：列出可用路由、情境與執行期狀態。
package index

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/gachalab"
)

// Route 路由說明
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Desc   string `json:"desc"`
}

// Routes 主頁展示的路由表
var Routes = []Route{
	{Method: "GET", Path: "/", Desc: "this page"},
	{Method: "GET", Path: "/v1/scenarios", Desc: "list registered scenarios"},
	{Method: "GET", Path: "/v1/campaign", Desc: "run a scenario: ?scenario=&seed=&workers=&players=&events=&format=json|yaml|table"},
	{Method: "POST", Path: "/v1/campaign", Desc: "run a scenario or inline campaign (JSON body)"},
	{Method: "POST", Path: "/v1/campaignbycfg", Desc: "run a full YAML/JSON settings body"},
	{Method: "GET", Path: "/v1/draw", Desc: "trace one agent: ?scenario=&config=before|after&seed="},
	{Method: "GET", Path: "/v1/stats", Desc: "runtime counters"},
}

type page struct {
	Service   string                `json:"service"`
	Scenarios []string              `json:"scenarios"`
	Runtime   gachalab.RuntimeStats `json:"runtime"`
	Routes    []Route               `json:"routes"`
}

// Handler GET /
func Handler(rt *gachalab.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := page{
			Service:   "gachalab",
			Scenarios: rt.Lab().Names(),
			Runtime:   rt.Stats(),
			Routes:    Routes,
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(p)
	}
}
