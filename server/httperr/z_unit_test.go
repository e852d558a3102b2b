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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/gachalab/catalog"
	"github.com/zintix-labs/gachalab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.Wrap(context.DeadlineExceeded, "run"), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusRequestTimeout},
		{errs.WrapWithExtra(catalog.ErrNotFound, "get", "name=x"), http.StatusNotFound},
		{errs.Wrap(errs.InvalidConfig("players must be >= 1"), "campaign"), http.StatusBadRequest},
		{errs.NewWarn("seed must be int64"), http.StatusBadRequest},
		{errs.NewFatal("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("StatusCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestErrsWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/campaign", nil)
	Errs(rec, req, errs.InvalidConfig("limit must be >= 1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
	var b Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Kind != "invalid_configuration" || b.Status != 400 || b.Error == "" {
		t.Fatalf("unexpected body: %+v", b)
	}
}

func TestBadRequestPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/campaignbycfg", nil)
	BadRequest(rec, req, errors.New("unexpected EOF"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestErrsNil(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, nil, nil)
	if rec.Body.Len() != 0 {
		t.Fatalf("nil error must write nothing")
	}
}
