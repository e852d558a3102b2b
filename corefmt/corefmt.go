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

// Package corefmt 負責 PRNG 狀態快照的文字編碼，用於報表稽核與重現。
package corefmt

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/sdk/core"
)

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64 failed")
	}
	return b, nil
}

// EncodeHex 給 log / 除錯用，比 base64 長但容易人工比對
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode hex failed")
	}
	return b, nil
}

// Snapshot 取 PRNG 狀態並編成 base64
func Snapshot(r core.Restorable) (string, error) {
	b, err := r.Snapshot()
	if err != nil {
		return "", errs.Wrap(err, "snapshot prng failed")
	}
	return EncodeBase64(b), nil
}

// Restore 以 Snapshot 產生的字串還原 PRNG 狀態
func Restore(r core.Restorable, s string) error {
	b, err := DecodeBase64(s)
	if err != nil {
		return err
	}
	if err := r.Restore(b); err != nil {
		return errs.Wrap(err, "restore prng failed")
	}
	return nil
}
