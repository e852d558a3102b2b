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

// Package logger 組裝 lab server 與 CLI 共用的 slog logger。
//
// 支援兩種注入方式：
//   - 直接拿 *slog.Logger：NewDefaultLogger / NewAsync。
//   - 自行組裝 slog.Handler 後交給 NewLogger，或以 NewAsyncHandler 包成非阻塞版本。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zintix-labs/gachalab/errs"
)

// LogMode 預設 handler 組合
type LogMode uint8

const (
	ModeDev     LogMode = iota // text / stderr / debug
	ModeProd                   // json / stdout / info
	ModeSilence                // 全部丟掉
)

var modeNames = map[LogMode]string{
	ModeDev:     "dev",
	ModeProd:    "prod",
	ModeSilence: "silence",
}

func (m LogMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode 解析環境變數或 flag 給的模式字串。
//
// 接受 dev/prod/silence（大小寫不拘），也接受舊式的 ModeDev/ModeProd/ModeSilence。
func ParseMode(s string) (LogMode, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.TrimPrefix(k, "mode")
	switch k {
	case "", "dev":
		return ModeDev, nil
	case "prod":
		return ModeProd, nil
	case "silence", "silent":
		return ModeSilence, nil
	}
	return ModeDev, errs.InvalidConfig("unknown log mode %q (dev|prod|silence)", s)
}

// UnmarshalText 讓 LogMode 可以直接作為 env / flag 目標
func (m *LogMode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m LogMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// NewDefaultLogger 以模式預設值建立同步 logger
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(buildHandler(mode, nil))
}

// NewLogger wraps a Handler into a *slog.Logger.
func NewLogger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = buildHandler(ModeDev, nil)
	}
	return slog.New(h)
}

// NewAsync 以模式預設值建立非阻塞 logger；回傳的 *AsyncHandler 供呼叫端在關閉時 Close。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	return NewAsyncTo(nil, buf, mode)
}

// NewAsyncTo 同 NewAsync，但輸出寫到 w（nil 則依模式選 stderr/stdout）。
func NewAsyncTo(w io.Writer, buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(buildHandler(mode, w), buf)
	return slog.New(ah), ah
}

func buildHandler(mode LogMode, w io.Writer) slog.Handler {
	switch mode {
	case ModeProd:
		// JSON + stdout，給 Loki / Promtail
		if w == nil {
			w = os.Stdout
		}
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, nil)
	default:
		if w == nil {
			w = os.Stderr
		}
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
