package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/bus"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/notify"
	"github.com/leonardotrapani/thirdeye/internal/pipeline"
	"github.com/leonardotrapani/thirdeye/internal/testutil"
)

const testConfig = `
[general]
  status_addr = ""

[loop]
  cadence = "interval"
  interval = "1h"
  backoff = "50ms"

[notifications]
  enabled = false
`

type fixture struct {
	daemon   *Daemon
	sources  *testutil.FakeSources
	analyzer *testutil.FakeAnalyzer
	renderer *testutil.FakeRenderer
	notifier *testutil.RecordingNotifier
	path     string
}

func startDaemon(t *testing.T, setup ...func(f *fixture)) *fixture {
	t.Helper()
	testutil.IsolateDirs(t)

	path := testutil.CreateTempConfigFile(t, testConfig)
	mgr, err := config.NewManagerForPath(path)
	if err != nil {
		t.Fatalf("NewManagerForPath() error = %v", err)
	}

	f := &fixture{
		sources:  &testutil.FakeSources{},
		analyzer: &testutil.FakeAnalyzer{},
		renderer: &testutil.FakeRenderer{},
		notifier: &testutil.RecordingNotifier{},
		path:     path,
	}
	for _, fn := range setup {
		fn(f)
	}
	f.daemon = NewWithComponents(mgr, Components{
		Sources:  f.sources,
		Analyzer: f.analyzer,
		Renderer: f.renderer,
		Notifier: f.notifier,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.daemon.Run()
	}()

	// Wait for daemon to be ready by trying to connect
	maxAttempts := 100
	for i := range maxAttempts {
		if _, err := bus.SendCommand(bus.CmdVersion, ""); err == nil {
			break
		}
		if i == maxAttempts-1 {
			t.Fatal("daemon failed to start within timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		bus.SendCommand(bus.CmdQuit, "")
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("daemon did not exit within timeout")
		}
	})
	return f
}

func send(t *testing.T, cmd byte, arg string) string {
	t.Helper()
	out, err := bus.SendCommand(cmd, arg)
	if err != nil {
		t.Fatalf("SendCommand(%c) error = %v", cmd, err)
	}
	return out
}

func status(t *testing.T) pipeline.Snapshot {
	t.Helper()
	out := send(t, bus.CmdStatus, "")
	payload, ok := strings.CutPrefix(strings.TrimSpace(out), "STATUS ")
	if !ok {
		t.Fatalf("unexpected status reply: %q", out)
	}
	var snap pipeline.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return snap
}

func TestDaemon_Version(t *testing.T) {
	startDaemon(t)
	if out := send(t, bus.CmdVersion, ""); out != "STATUS proto="+bus.ProtoVer+"\n" {
		t.Errorf("unexpected version reply: %q", out)
	}
}

func TestDaemon_Toggle(t *testing.T) {
	f := startDaemon(t)

	if out := send(t, bus.CmdToggle, ""); out != "OK started\n" {
		t.Fatalf("unexpected first toggle response: %q", out)
	}
	if snap := status(t); !snap.Running || snap.State != notify.Active {
		t.Fatalf("after start: %+v", snap)
	}

	if out := send(t, bus.CmdToggle, ""); out != "OK stopped\n" {
		t.Fatalf("unexpected second toggle response: %q", out)
	}
	if snap := status(t); snap.Running || snap.State != notify.Idle {
		t.Fatalf("after stop: %+v", snap)
	}

	built := f.sources.Built()
	if len(built) != 1 || built[0].Closes.Load() == 0 {
		t.Error("source should be opened once and released on stop")
	}

	states := f.notifier.States()
	want := []notify.State{notify.RequestingPermission, notify.Active, notify.Idle}
	if len(states) < len(want) {
		t.Fatalf("states = %v, want at least %v", states, want)
	}
	for i, s := range want {
		if states[i] != s {
			t.Errorf("state[%d] = %s, want %s", i, states[i], s)
		}
	}
}

func TestDaemon_Capture(t *testing.T) {
	f := startDaemon(t)

	if out := send(t, bus.CmdCapture, ""); out != "ERR not_running\n" {
		t.Errorf("capture while stopped = %q", out)
	}

	send(t, bus.CmdStart, "")
	if out := send(t, bus.CmdCapture, ""); out != "OK captured\n" {
		t.Fatalf("capture = %q", out)
	}

	testutil.WaitForCondition(t, func() bool { return len(f.renderer.Spoken()) == 1 }, 2*time.Second)
	if got := f.renderer.Spoken()[0]; got != "A book on a table" {
		t.Errorf("spoken = %q", got)
	}
	testutil.WaitForCondition(t, func() bool { return f.daemon.Controller().Status().Iterations == 1 }, 2*time.Second)
}

func TestDaemon_Settings(t *testing.T) {
	f := startDaemon(t)

	tests := []struct {
		cmd  byte
		arg  string
		want string
	}{
		{bus.CmdSource, "remote", "OK source=remote\n"},
		{bus.CmdSource, "webcam", "ERR "},
		{bus.CmdMode, "navigation", "OK mode=navigation\n"},
		{bus.CmdMode, "walk", "ERR "},
		{bus.CmdLanguage, "es_es", "OK language=es-ES\n"},
		{bus.CmdLanguage, "", "ERR "},
		{bus.CmdSpeed, "1.5", "OK rate=1.5\n"},
		{bus.CmdSpeed, "fast", "ERR invalid rate"},
		{bus.CmdSpeed, "-1", "ERR "},
		{'Z', "", "ERR unknown="},
	}

	for _, tt := range tests {
		t.Run(string(tt.cmd)+" "+tt.arg, func(t *testing.T) {
			out := send(t, tt.cmd, tt.arg)
			if !strings.HasPrefix(out, tt.want) {
				t.Errorf("reply = %q, want prefix %q", out, tt.want)
			}
		})
	}

	snap := status(t)
	if snap.Source != camera.Remote || snap.Mode != analyze.ModeGuided || snap.Language != "es-ES" || snap.Rate != 1.5 {
		t.Errorf("settings not applied: %+v", snap)
	}
	if rates := f.renderer.Rates(); len(rates) == 0 || rates[len(rates)-1] != 1.5 {
		t.Errorf("renderer rates = %v, want last 1.5", rates)
	}

	send(t, bus.CmdStart, "")
	if out := send(t, bus.CmdSource, "local"); !strings.HasPrefix(out, "ERR running") {
		t.Errorf("source switch while running = %q", out)
	}
	send(t, bus.CmdCapture, "")

	testutil.WaitForCondition(t, func() bool { return f.analyzer.Calls() == 1 }, 2*time.Second)
	req := f.analyzer.Requests()[0]
	if req.Mode != analyze.ModeGuided || req.Language != "es-ES" {
		t.Errorf("analyze request = %+v", req)
	}
	if built := f.sources.Built(); built[0].SourceKind != camera.Remote {
		t.Errorf("source kind = %s, want remote", built[0].SourceKind)
	}
}

func TestDaemon_StartFailure(t *testing.T) {
	startDaemon(t, func(f *fixture) {
		f.sources.Configure = func(s *testutil.FakeSource) {
			s.OpenErr = errors.New("no device")
		}
	})

	out := send(t, bus.CmdStart, "")
	if !strings.HasPrefix(out, "ERR ") || !strings.Contains(out, "no device") {
		t.Errorf("start reply = %q", out)
	}
	snap := status(t)
	if snap.Running || snap.State != notify.Error {
		t.Errorf("after failed start: %+v", snap)
	}
}

func TestDaemon_ConfigReload(t *testing.T) {
	f := startDaemon(t)

	updated := strings.Replace(testConfig, "[loop]", "[loop]\n  mode = \"navigation\"\n  language = \"fr-FR\"", 1)
	if err := os.WriteFile(f.path, []byte(updated), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	testutil.WaitForCondition(t, func() bool {
		snap := f.daemon.Controller().Status()
		return snap.Mode == analyze.ModeGuided && snap.Language == "fr-FR"
	}, 3*time.Second)
}

func TestReloadingAnalyzer(t *testing.T) {
	a := newReloadingAnalyzer(analyze.Config{URL: "http://127.0.0.1:1/analyze", Timeout: time.Second})
	if _, err := a.Analyze(context.Background(), analyze.Request{Image: testutil.TestImage}); err == nil {
		t.Error("expected error against closed port")
	}

	first := a.client
	a.update(analyze.Config{URL: "http://127.0.0.1:2/analyze"})
	if a.client == first {
		t.Error("update should replace the client")
	}
}
