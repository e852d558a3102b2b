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

package netsvr

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const DefaultAddr string = ":5808"

// Timeouts http.Server 的逾時設定。
//
// campaign 計算可能持續數十秒，WriteTimeout 需大於 handler 內的計算期限。
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// DefaultTimeouts 預設逾時
var DefaultTimeouts = Timeouts{
	Read:  10 * time.Second,
	Write: 60 * time.Second,
	Idle:  120 * time.Second,
}

// -----------------------------------------------------------------------------
//  Chi 服務
// -----------------------------------------------------------------------------

// ChiAdapter 以 chi (基於標準庫 net/http) 實作 NetSvr。
type ChiAdapter struct {
	router chi.Router
	server *http.Server
	addr   string
}

// NewChiServer 建立自訂監聽位址與逾時的 ChiAdapter；addr 為空時用 DefaultAddr。
func NewChiServer(addr string, to Timeouts) *ChiAdapter {
	if addr == "" {
		addr = DefaultAddr
	}
	if to.Read <= 0 {
		to.Read = DefaultTimeouts.Read
	}
	if to.Write <= 0 {
		to.Write = DefaultTimeouts.Write
	}
	if to.Idle <= 0 {
		to.Idle = DefaultTimeouts.Idle
	}
	cr := chi.NewRouter()
	return &ChiAdapter{
		router: cr,
		server: &http.Server{
			Addr:              addr,
			Handler:           cr,
			ReadTimeout:       to.Read,
			ReadHeaderTimeout: to.Read,
			WriteTimeout:      to.Write,
			IdleTimeout:       to.Idle,
		},
		addr: addr,
	}
}

// NewChiServerDefault 監聽 :5808，使用 DefaultTimeouts
func NewChiServerDefault() *ChiAdapter {
	return NewChiServer(DefaultAddr, DefaultTimeouts)
}

// -----------------------------------------------------------------------------
//  介面實作 NetSvr / (會同時實作 Component)
// -----------------------------------------------------------------------------

func (c *ChiAdapter) Ready() bool {
	return (c != nil) && (c.router != nil) && (c.server != nil) &&
		strings.Contains(c.addr, ":") &&
		(c.server.Handler != nil) && (c.server.Handler == c.router)
}

func (c *ChiAdapter) Run() error {
	err := c.server.ListenAndServe()
	if err == http.ErrServerClosed {
		// Shutdown 觸發的正常結束
		return nil
	}
	return err
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

func (c *ChiAdapter) Handler() http.Handler {
	return c.router
}

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) {
	c.router.Use(mw)
}

func (c *ChiAdapter) Get(path string, h http.HandlerFunc) {
	c.router.Get(path, h)
}

func (c *ChiAdapter) Post(path string, h http.HandlerFunc) {
	c.router.Post(path, h)
}

func (c *ChiAdapter) Put(path string, h http.HandlerFunc) {
	c.router.Put(path, h)
}

func (c *ChiAdapter) Delete(path string, h http.HandlerFunc) {
	c.router.Delete(path, h)
}

func (c *ChiAdapter) Group(path string, fn func(subRouter NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		fn(&ChiAdapter{router: r})
	})
}

func (c *ChiAdapter) Address() string {
	return c.addr
}
