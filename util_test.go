package main

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"dscheirer.com/shifttimer/bridge"
	"dscheirer.com/shifttimer/lcd"
	"dscheirer.com/shifttimer/sevenseg"
	"dscheirer.com/shifttimer/simclock"
	"gotest.tools/assert"
)

func logCaller(pc uintptr, file string, line int, ok bool) {
	if !ok {
		file = "?"
		line = 0
	}

	fn := runtime.FuncForPC(pc)
	var fnName string
	if fn == nil {
		fnName = "?()"
	} else {
		dotName := filepath.Ext(fn.Name())
		fnName = strings.TrimLeft(dotName, ".") + "()"
	}

	log.Printf("Starting %s (%s:%d)", fnName, filepath.Base(file), line)
}

type testRig struct {
	rt    runtimeConfig
	sim   *bridge.Sim
	clock *simclock.Clock
	// every distinct pair of LCD lines, in order
	screens [][2]string
}

func testRuntime(t *testing.T) *testRig {
	// log the start of the test
	logCaller(runtime.Caller(1))

	settings := defaultSettings()
	r := &testRig{sim: bridge.NewSim(), clock: simclock.New()}
	hw, err := openHardware(r.sim, settings, r.clock)
	assert.NilError(t, err)
	t.Cleanup(func() { hw.Close() })

	hw.start()
	r.sim.OnChange = r.record
	r.rt = initRuntime(settings, r.clock, hw)
	return r
}

func (r *testRig) lines() [2]string {
	return [2]string{
		r.sim.Line(lcd.DefaultAddress, 0, lcd.Width),
		r.sim.Line(lcd.DefaultAddress, 1, lcd.Width),
	}
}

func (r *testRig) record() {
	l := r.lines()
	if n := len(r.screens); n == 0 || r.screens[n-1] != l {
		r.screens = append(r.screens, l)
	}
}

func (r *testRig) saw(line1, line2 string) bool {
	want := [2]string{lcd.Pad(line1, lcd.Width), lcd.Pad(line2, lcd.Width)}
	for _, s := range r.screens {
		if s == want {
			return true
		}
	}
	return false
}

func (r *testRig) showing(t *testing.T, line1, line2 string) {
	t.Helper()
	l := r.lines()
	assert.Equal(t, l[0], lcd.Pad(line1, lcd.Width))
	assert.Equal(t, l[1], lcd.Pad(line2, lcd.Width))
}

func (r *testRig) segmentsOff(t *testing.T) {
	t.Helper()
	for _, pin := range sevenseg.DefaultPins() {
		assert.Assert(t, !r.sim.Level(pin), "gpio %d is still on", pin)
	}
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
