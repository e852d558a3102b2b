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
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/httperr"
	"github.com/zintix-labs/gachalab/setting"
)

// CampaignByCfg POST /v1/campaignbycfg
//
// body 是完整的設定檔（YAML 或 JSON，未提及的欄位取預設值）；workers / format 走 query。
// 格式依 Content-Type 判斷，未指定時以第一個非空白字元是否為 '{' 判斷。
func (h *Handler) CampaignByCfg(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httperr.BadRequest(w, r, err)
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		httperr.Errs(w, r, errs.NewWarn("empty config body"))
		return
	}

	var c setting.Campaign
	if isJSON(r.Header.Get("Content-Type"), raw) {
		c, err = h.rt.Lab().CampaignByJSON(raw)
	} else {
		c, err = h.rt.Lab().CampaignByYAML(raw)
	}
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}

	q := r.URL.Query()
	workers, err := queryInt(q, "workers", 0)
	if err != nil {
		httperr.Errs(w, r, err)
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
	h.run(w, r, c, workers, q.Get("format"))
}

func isJSON(contentType string, raw []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/json":
			return true
		case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
			return false
		}
	}
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
