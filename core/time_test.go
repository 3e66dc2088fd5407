// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"
	"time"

	"github.com/devblok/glw/core"
	qt "github.com/frankban/quicktest"
)

func TestTime(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 200})
	defer tm.Stop()
	c.Assert(tm.Fps(), qt.Equals, 200)

	<-tm.FpsTicker().C
	tm.Frame()
	<-tm.FpsTicker().C
	elapsed := tm.Frame()
	c.Assert(elapsed > 0, qt.Equals, true)
	c.Assert(elapsed < time.Minute, qt.Equals, true)
	c.Assert(tm.Frames(), qt.Equals, int64(2))

	select {
	case <-tm.EventTicker().C:
	case <-time.After(time.Second):
		t.Fatal("event ticker did not fire")
	}
}
