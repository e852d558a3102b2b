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

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeComp struct {
	stop     chan struct{}
	once     sync.Once
	runErr   error
	shutdown int
}

func newFake(runErr error) *fakeComp {
	return &fakeComp{stop: make(chan struct{}), runErr: runErr}
}

func (f *fakeComp) Run() error {
	if f.runErr != nil {
		return f.runErr
	}
	<-f.stop
	return nil
}

func (f *fakeComp) Shutdown(ctx context.Context) error {
	f.shutdown++
	f.once.Do(func() { close(f.stop) })
	return nil
}

func TestRunContextCancel(t *testing.T) {
	c := newFake(nil)
	var order []string
	a := NewWith(c).WithShutdownTimeout(time.Second)
	a.OnStop(func() { order = append(order, "runtime") })
	a.OnStop(func() { order = append(order, "logger") })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.RunContext(ctx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.shutdown != 1 {
		t.Fatalf("shutdown called %d times", c.shutdown)
	}
	if len(order) != 2 || order[0] != "logger" || order[1] != "runtime" {
		t.Fatalf("hooks order = %v", order)
	}
}

func TestRunContextComponentError(t *testing.T) {
	boom := errors.New("listen failed")
	bad := newFake(boom)
	good := newFake(nil)
	a := NewWith(bad, good)
	if err := a.RunContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if good.shutdown != 1 {
		t.Fatalf("peer component not shut down")
	}
}
