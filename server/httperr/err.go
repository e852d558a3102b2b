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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/gachalab/catalog"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/netsvr/middleware"
)

// Body 錯誤回應的 JSON 結構
type Body struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射、可預期）：
//   - ctx timeout/cancel             → 504/408
//   - 找不到情境                     → 404
//   - KindInvalidConfiguration / Warn → 400
//   - errs.Fatal 或非 *errs.E         → 500
//
// 本函數屬於 HTTP 邊界層，核心 errs 包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errs.IsKind(err, errs.KindInvalidConfiguration):
		return http.StatusBadRequest
	}

	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Errs 以 JSON 寫回錯誤；err 為 nil 時不做任何事。
func Errs(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Error: err.Error(), Status: status}
	if e, ok := errs.AsErr(err); ok {
		body.Kind = kindOf(err, e)
	}
	if r != nil {
		body.RequestID = middleware.GetReqId(r)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// BadRequest 以 400 回覆請求本身的格式問題（body 讀取 / decode 失敗等），不論 err 的原始等級。
func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	e := errs.NewWithExtra(errs.Warn, "bad request", r.URL.Path)
	e.Cause = err
	Errs(w, r, e)
}

// Log 只記錄伺服器側值得關注的錯誤：408/409/429 為 Warn，5xx 為 Error，其餘不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status == 408 || status == 409 || status == 429:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500 && status < 600:
		log.Error(msg, slog.Any("err", err))
	}
}

func kindOf(err error, e *errs.E) string {
	for _, k := range []errs.Kind{errs.KindInvalidConfiguration, errs.KindDegenerateStatistics} {
		if errs.IsKind(err, k) {
			return k.String()
		}
	}
	return e.Kind.String()
}
