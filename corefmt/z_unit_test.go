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

package corefmt

import (
	"testing"

	"github.com/zintix-labs/gachalab/sdk/core"
)

func TestSnapshotRestoreString(t *testing.T) {
	a := core.Default().New(2025)
	for range 17 {
		a.Uint64()
	}
	s, err := Snapshot(a)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := a.Uint64()

	b := core.Default().New(1)
	if err := Restore(b, s); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := b.Uint64(); got != want {
		t.Fatalf("restored stream differs: got %d want %d", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeBase64("%%%"); err == nil {
		t.Fatalf("invalid base64 should fail")
	}
	if _, err := DecodeHex("zz"); err == nil {
		t.Fatalf("invalid hex should fail")
	}
	if err := Restore(core.Default().New(1), "%%%"); err == nil {
		t.Fatalf("restore from garbage should fail")
	}
}

func TestHexRoundTrip(t *testing.T) {
	b, err := DecodeHex(EncodeHex([]byte{0, 1, 254, 255}))
	if err != nil || len(b) != 4 || b[2] != 254 {
		t.Fatalf("hex round trip failed: %v %v", b, err)
	}
}
