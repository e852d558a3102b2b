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

package setting

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/zintix-labs/gachalab/errs"
	"gopkg.in/yaml.v3"
)

// FromYAML 讀取 YAML 設定：未出現的欄位沿用 Default()，完成後執行檢查。
func FromYAML(data []byte) (Campaign, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// 空文件視為全部使用預設值
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Campaign{}, errs.Wrap(errs.InvalidConfig("%v", err), "failed to unmarshall yaml")
	}
	return finish(c)
}

// FromJSON 讀取 JSON 設定：未出現的欄位沿用 Default()，完成後執行檢查。
func FromJSON(data []byte) (Campaign, error) {
	c := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Campaign{}, errs.Wrap(errs.InvalidConfig("%v", err), "can not unmarshall json byte")
	}
	return finish(c)
}

// ToYAML 將設定輸出成 YAML（用於 CLI 回寫目前生效的設定）。
func ToYAML(c Campaign) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, errs.Wrap(err, "failed to marshall yaml")
	}
	return b, nil
}

func finish(c Campaign) (Campaign, error) {
	c.normalize()
	if err := c.Validate(); err != nil {
		return Campaign{}, errs.Wrap(err, "campaign setting initialized err")
	}
	return c, nil
}
