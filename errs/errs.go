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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 描述錯誤的業務類別，與 ErrLevel（嚴重度）互相獨立。
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindInvalidConfiguration 參數超出定義域，模擬開始前即回報，不會有部分結果。
	KindInvalidConfiguration
	// KindDegenerateStatistics 樣本數不足以估計變異（n < 2），呼叫端需明確處理。
	KindDegenerateStatistics
)

var kindMap = map[Kind]string{
	KindUnknown:              "",
	KindInvalidConfiguration: "invalid_configuration",
	KindDegenerateStatistics: "degenerate_statistics",
}

func (k Kind) String() string {
	return kindMap[k]
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文；Cause 串接下層錯誤（wrap）；
// ErrLv 為嚴重度；Kind 為業務類別。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Kind != KindUnknown {
		base = fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), e.Kind, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// InvalidConfig 建立參數錯誤（Warn 級：請求/設定問題，而非系統問題）。
func InvalidConfig(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Kind: KindInvalidConfiguration}
}

// Degenerate 建立統計退化錯誤（Log 級：結果仍可用，只是區間無意義）。
func Degenerate(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Log, Kind: KindDegenerateStatistics}
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤。
//
// 規則：
//   - cause 已經是 *E：沿用其 ErrLv 與 Kind。
//   - 其他錯誤（標準庫或三方依賴）：一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindUnknown
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapWithExtra 同 Wrap，另附上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// IsKind 檢查錯誤鏈上是否有指定 Kind 的 *E。
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
