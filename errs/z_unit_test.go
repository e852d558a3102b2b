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
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevelAndKind(t *testing.T) {
	base := InvalidConfig("limit must > 0, got %d", 0)
	w := Wrap(base, "build campaign failed")
	if w.ErrLv != Warn {
		t.Fatalf("level got %s want warn", ErrLv(w.ErrLv))
	}
	if !IsKind(w, KindInvalidConfiguration) {
		t.Fatalf("expected invalid configuration kind through wrap")
	}
	if IsKind(w, KindDegenerateStatistics) {
		t.Fatalf("unexpected degenerate kind")
	}
	if !errors.Is(w, base) {
		t.Fatalf("errors.Is should reach the cause")
	}
	if !strings.Contains(w.Error(), "kind=invalid_configuration") {
		t.Fatalf("kind missing from message: %s", w.Error())
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	w := Wrap(io.ErrUnexpectedEOF, "read settings failed")
	if w.ErrLv != Fatal || w.Kind != KindUnknown {
		t.Fatalf("got lv=%s kind=%s", ErrLv(w.ErrLv), w.Kind)
	}
	if IsKind(w, KindInvalidConfiguration) {
		t.Fatalf("foreign error must not report a kind")
	}
}

func TestAsErr(t *testing.T) {
	if _, ok := AsErr(io.EOF); ok {
		t.Fatalf("io.EOF is not *E")
	}
	e, ok := AsErr(Degenerate("n=%d", 1))
	if !ok || e.ErrLv != Log || e.Kind != KindDegenerateStatistics {
		t.Fatalf("unexpected AsErr result: %+v", e)
	}
}
