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

package stats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// ReportRender 定義輸出行為
type ReportRender interface {
	Write(w io.Writer, r *CampaignReport) error
}

// Json渲染
type JsonReportRender struct {
	Indent bool
}

func (jr *JsonReportRender) Write(w io.Writer, r *CampaignReport) error {
	enc := json.NewEncoder(w)
	if jr.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

// YAML渲染
type YAMLReportRender struct{}

func (yr *YAMLReportRender) Write(w io.Writer, r *CampaignReport) error {
	// 只有「最內層的一維陣列」輸出成 flow style：[..., ...]，其餘維持展開
	return forceReadableList(w, r)
}

// 表格渲染（終端機閱讀用）
type TableReportRender struct {
	// Series 為 true 時輸出逐場明細
	Series bool
}

func (tr *TableReportRender) Write(w io.Writer, r *CampaignReport) error {
	_, err := io.WriteString(w, r.Table(tr.Series))
	return err
}

// RenderFor 依格式名稱取渲染器：json / yaml / table（預設）
func RenderFor(format string) ReportRender {
	switch format {
	case "json":
		return &JsonReportRender{Indent: true}
	case "yaml", "yml":
		return &YAMLReportRender{}
	default:
		return &TableReportRender{}
	}
}

// WriteWith 完成計算後交給 rep 輸出
func (r *CampaignReport) WriteWith(w io.Writer, rep ReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}

	// 自頂向下調整所有 sequence node 的 style：
	// - 沒有子 sequence / mapping => 最內層一維，用 flow style: [...]
	// - 其餘保持預設 block（展開）
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
		return

	case yaml.SequenceNode:
		// 序列內含 mapping（例如 series）或子序列時視為外層
		nested := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				nested = true
				break
			}
		}

		for _, c := range n.Content {
			styleReadableSequences(c)
		}

		if !nested {
			n.Style = yaml.FlowStyle
		}
		return

	default:
		// Scalar / Alias 等不處理
		return
	}
}
