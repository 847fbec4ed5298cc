package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/bus"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/notify"
	"github.com/leonardotrapani/thirdeye/internal/pipeline"
	"github.com/leonardotrapani/thirdeye/internal/playback"
	"github.com/leonardotrapani/thirdeye/internal/statusfeed"
)

// Components are the collaborators the capture loop runs against. Nil
// fields are built from the configuration.
type Components struct {
	Sources  pipeline.SourceProvider
	Analyzer analyze.Analyzer
	Renderer pipeline.Renderer
	Notifier notify.Notifier
}

type Daemon struct {
	mu        sync.RWMutex
	configMgr *config.Manager
	notifier  notify.Notifier

	// set when the notifier was injected; reloads keep it
	fixedNotifier bool

	ctx    context.Context
	cancel context.CancelFunc

	controller *pipeline.Controller
	selector   *camera.Selector
	mediator   *playback.Mediator
	analyzer   *reloadingAnalyzer
	hub        *statusfeed.Hub
	feed       *statusfeed.Server
}

func New() (*Daemon, error) {
	configMgr, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	return NewWithComponents(configMgr, Components{}), nil
}

// NewWithComponents builds a daemon around an existing config manager.
func NewWithComponents(configMgr *config.Manager, c Components) *Daemon {
	cfg := configMgr.GetConfig()
	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		configMgr: configMgr,
		ctx:       ctx,
		cancel:    cancel,
		hub:       statusfeed.NewHub(),
	}

	if c.Notifier != nil {
		d.notifier = c.Notifier
		d.fixedNotifier = true
	} else {
		d.notifier = notify.FromType(cfg.NotificationsEnabled(), cfg.Notifications.Type)
	}

	sources := c.Sources
	if sources == nil {
		d.selector = camera.NewSelector(cfg.ToLocalCameraConfig(), cfg.ToRemoteCameraConfig())
		sources = d.selector
	}

	analyzer := c.Analyzer
	if analyzer == nil {
		d.analyzer = newReloadingAnalyzer(cfg.ToAnalyzeConfig())
		analyzer = d.analyzer
	}

	renderer := c.Renderer
	if renderer == nil {
		d.mediator = newMediator(cfg)
		renderer = d.mediator
	}

	d.controller = pipeline.New(cfg.ToPipelineConfig(), sources, analyzer, renderer, d)
	configMgr.OnChange(d.onConfigChange)
	return d
}

func newMediator(cfg *config.Config) *playback.Mediator {
	player, err := playback.NewAudioPlayer(cfg.Playback.AudioPlayer)
	if err != nil {
		log.Printf("Daemon: %v, pre-rendered audio disabled", err)
		player = nil
	} else if err := player.Available(); err != nil {
		log.Printf("Daemon: audio player unavailable: %v", err)
	}

	synth, err := playback.NewSynthesizer(cfg.Playback.SpeechEngine)
	if err != nil {
		log.Printf("Daemon: %v, local speech disabled", err)
		synth = nil
	}
	return playback.NewMediator(cfg.ToPlaybackConfig(), player, synth)
}

// StatusChanged fans controller transitions out to the status feed and the
// configured notifier.
func (d *Daemon) StatusChanged(state notify.State, msg string) {
	d.hub.StatusChanged(state, msg)

	d.mu.RLock()
	n := d.notifier
	d.mu.RUnlock()
	n.StatusChanged(state, msg)
}

func (d *Daemon) Controller() *pipeline.Controller {
	return d.controller
}

func (d *Daemon) onConfigChange(cfg *config.Config) {
	log.Printf("Daemon: applying reloaded configuration")

	d.controller.Reconfigure(cfg.ToPipelineConfig())
	if d.selector != nil {
		d.selector.Update(cfg.ToLocalCameraConfig(), cfg.ToRemoteCameraConfig())
	}
	if d.analyzer != nil {
		d.analyzer.update(cfg.ToAnalyzeConfig())
	}
	if d.mediator != nil {
		d.mediator.UpdateConfig(cfg.ToPlaybackConfig())
	}

	d.mu.Lock()
	if !d.fixedNotifier {
		d.notifier = notify.FromType(cfg.NotificationsEnabled(), cfg.Notifications.Type)
	}
	d.mu.Unlock()
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	if err := d.configMgr.StartWatching(d.ctx); err != nil {
		log.Printf("Daemon: config hot reload disabled: %v", err)
	}
	defer d.configMgr.Stop()

	if addr := d.configMgr.GetConfig().General.StatusAddr; addr != "" {
		feed, err := statusfeed.Listen(addr, d.hub)
		if err != nil {
			log.Printf("Daemon: status feed disabled: %v", err)
		} else {
			d.feed = feed
		}
	}
	defer d.shutdown()

	if d.mediator != nil {
		go d.mediator.Prime(d.ctx)
	}

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("Daemon started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("Shutdown requested")
				return nil
			}
			log.Printf("Accept error: %v", err)
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) shutdown() {
	d.controller.Stop()

	if d.feed != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := d.feed.Shutdown(ctx); err != nil {
			log.Printf("Daemon: status feed shutdown: %v", err)
		}
	} else {
		d.hub.Close()
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("Client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}

	cmd, arg, err := bus.ParseRequest(line)
	if err != nil {
		fmt.Fprintf(c, "ERR %v\n", err)
		return
	}

	fmt.Fprint(c, d.dispatch(cmd, arg))
}

// dispatch runs one bus command and returns the reply line.
func (d *Daemon) dispatch(cmd byte, arg string) string {
	switch cmd {
	case bus.CmdStart:
		if err := d.controller.Start(d.ctx); err != nil {
			return errReply(err)
		}
		return "OK started\n"

	case bus.CmdStop:
		d.controller.Stop()
		return "OK stopped\n"

	case bus.CmdToggle:
		if d.controller.Running() {
			d.controller.Stop()
			return "OK stopped\n"
		}
		if err := d.controller.Start(d.ctx); err != nil {
			return errReply(err)
		}
		return "OK started\n"

	case bus.CmdStatus:
		data, err := json.Marshal(d.controller.Status())
		if err != nil {
			return errReply(err)
		}
		return "STATUS " + string(data) + "\n"

	case bus.CmdCapture:
		if !d.controller.Running() {
			return "ERR not_running\n"
		}
		// a cycle outlives the client's socket deadline
		go func() {
			if err := d.controller.Step(d.ctx); err != nil {
				log.Printf("Daemon: capture failed: %v", err)
			}
		}()
		return "OK captured\n"

	case bus.CmdSource:
		kind, err := camera.ParseKind(arg)
		if err != nil {
			return errReply(err)
		}
		if err := d.controller.SetSource(kind); err != nil {
			if errors.Is(err, pipeline.ErrRunning) {
				return "ERR running: stop before switching source\n"
			}
			return errReply(err)
		}
		return fmt.Sprintf("OK source=%s\n", kind)

	case bus.CmdMode:
		mode, err := analyze.ParseMode(arg)
		if err != nil {
			return errReply(err)
		}
		d.controller.SetMode(mode)
		return fmt.Sprintf("OK mode=%s\n", mode)

	case bus.CmdLanguage:
		if err := d.controller.SetLanguage(arg); err != nil {
			return errReply(err)
		}
		return fmt.Sprintf("OK language=%s\n", d.controller.Status().Language)

	case bus.CmdSpeed:
		rate, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Sprintf("ERR invalid rate: %q\n", arg)
		}
		if err := d.controller.SetRate(rate); err != nil {
			return errReply(err)
		}
		return fmt.Sprintf("OK rate=%s\n", strconv.FormatFloat(rate, 'f', -1, 64))

	case bus.CmdVersion:
		return fmt.Sprintf("STATUS proto=%s\n", bus.ProtoVer)

	case bus.CmdQuit:
		log.Printf("Shutdown requested")
		go func() {
			time.Sleep(100 * time.Millisecond) // give time for client to read
			d.cancel()
		}()
		return "OK quitting\n"

	default:
		log.Printf("Unknown command: %c", cmd)
		return fmt.Sprintf("ERR unknown=%q\n", cmd)
	}
}

func errReply(err error) string {
	return "ERR " + err.Error() + "\n"
}

// reloadingAnalyzer lets a config reload swap the analyze endpoint
// without rebuilding the controller.
type reloadingAnalyzer struct {
	mu     sync.RWMutex
	client *analyze.Client
}

func newReloadingAnalyzer(cfg analyze.Config) *reloadingAnalyzer {
	return &reloadingAnalyzer{client: analyze.NewClient(cfg)}
}

func (a *reloadingAnalyzer) update(cfg analyze.Config) {
	a.mu.Lock()
	a.client = analyze.NewClient(cfg)
	a.mu.Unlock()
}

func (a *reloadingAnalyzer) Analyze(ctx context.Context, req analyze.Request) (analyze.Result, error) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	return client.Analyze(ctx, req)
}
