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

package api

import (
	"log/slog"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/server/api/index"
	v1 "github.com/zintix-labs/gachalab/server/api/v1"
	"github.com/zintix-labs/gachalab/server/netsvr"
	"github.com/zintix-labs/gachalab/server/netsvr/middleware"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware、主頁與 v1 api。sCfg 需已通過 Valid。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *gachalab.Runtime) error {
	registerMiddleware(svr, sCfg.Log)   // 1. middleware
	svr.Get("/", index.Handler(rt))     // 2. 主頁
	return registerV1API(svr, sCfg, rt) // 3. v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *gachalab.Runtime) error {
	h, err := v1.NewHandler(sCfg, rt)
	if err != nil {
		return err
	}
	svr.Group("/v1", h.Register)
	return nil
}
