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

// Package server 組裝 gachalab lab server：chi 路由、middleware、campaign runtime 與生命週期。
package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/api"
	"github.com/zintix-labs/gachalab/server/app"
	"github.com/zintix-labs/gachalab/server/netsvr"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

// Build 驗證設定並組裝預設的 chi server 與 campaign runtime，但不啟動。
//
// 呼叫端負責在結束時 rt.Close()。
func Build(sCfg *svrcfg.SvrCfg) (*netsvr.ChiAdapter, *gachalab.Runtime, error) {
	if err := sCfg.Valid(); err != nil {
		return nil, nil, err
	}
	svr := netsvr.NewChiServer(sCfg.Addr, netsvr.Timeouts{Write: sCfg.WriteTimeout})
	rt, err := mount(sCfg, svr)
	if err != nil {
		return nil, nil, err
	}
	return svr, rt, nil
}

// Run 是 server 套件的組裝器與啟動入口：Build 之後交給 app.Run 直到收到終止信號。
//
// Run 不綁定任何檔案路徑或環境變數策略；依賴一律透過 SvrCfg 注入（環境變數由 svrcfg.FromEnv 另外讀）。
func Run(sCfg *svrcfg.SvrCfg) error {
	svr, rt, err := Build(sCfg)
	if err != nil {
		// logger 可能尚不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return serve(sCfg, svr, rt)
}

// RunWithSvr 與 Run 相同，但掛在呼叫端注入的 NetSvr 上（自訂 listener、TLS、其他框架 adapter）。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}
	rt, err := mount(sCfg, svr)
	if err != nil {
		return err
	}
	return serve(sCfg, svr, rt)
}

func mount(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) (*gachalab.Runtime, error) {
	rt := sCfg.Lab.BuildRuntime(sCfg.Slots, sCfg.MaxAgentDraws)
	if err := api.RegisterRoutes(svr, sCfg, rt); err != nil {
		rt.Close()
		return nil, errs.Wrap(err, "register routes")
	}
	return rt, nil
}

func serve(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, rt *gachalab.Runtime) error {
	a := app.NewWith(svr).WithLogger(sCfg.Log)
	a.OnStop(func() { rt.Close() })

	sCfg.Log.Info("[gachalab] listening",
		slog.String("addr", svr.Address()),
		slog.String("log_mode", sCfg.LogMode.String()),
		slog.Int("slots", sCfg.Slots),
		slog.Int64("max_agent_draws", sCfg.MaxAgentDraws),
		slog.Any("scenarios", rt.Lab().Names()),
	)
	err := a.Run()
	if err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	sCfg.Log.Info("[gachalab] stopped", slog.Any("runtime", rt.Stats()))
	return err
}
