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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component，收到 OS 信號、ctx 結束或任一 Component 返回時協調優雅關閉。
//
// 關閉順序：先依註冊順序 Shutdown 各 Component，再依註冊的反序執行 OnStop hook
// （例如關閉 campaign runtime、flush async logger）。
type App struct {
	comps   []Component
	hooks   []func()
	timeout time.Duration
	log     *slog.Logger
}

// New 建立一個新的 App 實例。
func New() *App { return &App{timeout: defaultShutdownTimeout} }

// NewWith 是 New 的語法糖，允許在建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

// Register 將一個 Component 註冊到 App 中，該 Component 將在 Run 時被管理。
func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// OnStop 註冊關閉後要執行的 hook
func (a *App) OnStop(fn func()) {
	if fn != nil {
		a.hooks = append(a.hooks, fn)
	}
}

// WithShutdownTimeout 設定優雅關閉的期限（<= 0 維持預設 5s）
func (a *App) WithShutdownTimeout(d time.Duration) *App {
	if d > 0 {
		a.timeout = d
	}
	return a
}

// WithLogger 設定關閉錯誤的輸出；nil 則不輸出。
func (a *App) WithLogger(log *slog.Logger) *App {
	a.log = log
	return a
}

// Run 阻塞直到收到 SIGINT/SIGTERM 或任一 Component 的 Run 返回。
//   - 收到信號：優雅關閉並返回 nil。
//   - Component 返回：優雅關閉並返回該錯誤。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 同 Run，但以 ctx 取代 OS 信號作為停止條件。
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	a.gracefulShutdown()
	return err
}

func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil && a.log != nil {
			a.log.Error("shutdown", slog.Any("err", err))
		}
	}
	for i := len(a.hooks) - 1; i >= 0; i-- {
		a.hooks[i]()
	}
}
