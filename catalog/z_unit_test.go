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

package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/gachalab/errs"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"event_a.yaml": {Data: []byte("name: Event_A\nplayers: 10\nevents: 3\n")},
		"event_b.json": {Data: []byte(`{"name":"event_b","players":20,"p_rare_after":0.05}`)},
		"README.md":    {Data: []byte("ignored")},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Cfg().Files(); len(got) != 2 || got[0] != "event_a.yaml" || got[1] != "event_b.json" {
		t.Fatalf("files = %v", got)
	}
	if err := c.Register(Entry{Name: " Event_A ", ConfigName: "event_a.yaml"}, Entry{Name: "event_b", ConfigName: "event_b.json"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if names := c.Names(); len(names) != 2 || names[0] != "event_a" {
		t.Fatalf("names = %v", names)
	}
	camp, err := c.CampaignByName("EVENT_A")
	if err != nil {
		t.Fatalf("CampaignByName: %v", err)
	}
	if camp.Players != 10 || camp.Events != 3 || camp.Limit != 50 {
		t.Fatalf("defaults not applied: %+v", camp)
	}
	camp, err = c.CampaignByName("event_b")
	if err != nil || camp.PRareAfter != 0.05 || camp.Players != 20 {
		t.Fatalf("json campaign: %+v, %v", camp, err)
	}
	if s := SummaryOf(camp); s.Name != "event_b" || s.PRareAfter != 0.05 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestRegisterAtomic(t *testing.T) {
	c, _ := New(testFS())
	err := c.Register(Entry{Name: "a", ConfigName: "event_a.yaml"}, Entry{Name: "a", ConfigName: "event_b.json"})
	if !errors.Is(err, ErrDupName) {
		t.Fatalf("err = %v", err)
	}
	if len(c.Names()) != 0 {
		t.Fatalf("partial registration leaked: %v", c.Names())
	}
	if err := c.Register(Entry{Name: "x", ConfigName: "missing.yaml"}); err == nil {
		t.Fatalf("missing file should fail")
	}
	if err := c.Register(Entry{Name: "x", ConfigName: "../event_a.yaml"}); err == nil {
		t.Fatalf("path-like file name should fail")
	}
}

func TestFreezeAndNotFound(t *testing.T) {
	c, _ := New(testFS())
	c.Freeze()
	if err := c.Register(Entry{Name: "a", ConfigName: "event_a.yaml"}); !errors.Is(err, ErrFrozen) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.CampaignByName("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestNestedFSRejected(t *testing.T) {
	fsys := fstest.MapFS{"sub/a.yaml": {Data: []byte("name: a\n")}}
	if _, err := New(fsys); err == nil {
		t.Fatalf("nested directory should be rejected")
	}
}

func TestParseByExt(t *testing.T) {
	if _, err := ParseByExt("a.toml", nil); err == nil {
		t.Fatalf("toml should be unsupported")
	}
	_, err := ParseByExt("a.yml", []byte("players: 0\n"))
	if !errs.IsKind(err, errs.KindInvalidConfiguration) {
		t.Fatalf("err = %v", err)
	}
}
