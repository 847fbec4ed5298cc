package bus

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const SockName = "control.sock"
const PidName = "thirdeye.pid"
const ProtoVer = "0.2"

// Command bytes. A request is one line: the command byte, optionally a
// space and an argument.
const (
	CmdStart    byte = 'r'
	CmdStop     byte = 'x'
	CmdToggle   byte = 't'
	CmdStatus   byte = 's'
	CmdCapture  byte = 'n'
	CmdSource   byte = 'S'
	CmdMode     byte = 'm'
	CmdLanguage byte = 'l'
	CmdSpeed    byte = 'p'
	CmdVersion  byte = 'v'
	CmdQuit     byte = 'q'
)

// dialTimeout bounds how long a client waits for the daemon's reply.
const dialTimeout = 60 * time.Second

func cacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "thirdeye"), nil
}

// ~/.cache/thirdeye/control.sock
func SockPath() (string, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SockName), nil
}

// ~/.cache/thirdeye/thirdeye.pid
func PidPath() (string, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PidName), nil
}

type socketManager struct {
	path string
}

func (s *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(s.path) // stale socket from last run
	return net.Listen("unix", s.path)
}

func (s *socketManager) dial() (net.Conn, error) {
	return net.Dial("unix", s.path)
}

func (s *socketManager) send(cmd byte, arg string) (string, error) {
	c, err := s.dial()
	if err != nil {
		return "", err
	}
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(dialTimeout))

	if _, err := c.Write(EncodeRequest(cmd, arg)); err != nil {
		return "", err
	}

	return bufio.NewReader(c).ReadString('\n')
}

func defaultSocketManager() (*socketManager, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	return &socketManager{path: sp}, nil
}

func Listen() (net.Listener, error) {
	sm, err := defaultSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.listen()
}

func Dial() (net.Conn, error) {
	sm, err := defaultSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.dial()
}

// SendCommand sends one request to the daemon and returns its reply line.
func SendCommand(cmd byte, arg string) (string, error) {
	sm, err := defaultSocketManager()
	if err != nil {
		return "", err
	}
	return sm.send(cmd, arg)
}

// EncodeRequest formats a request line.
func EncodeRequest(cmd byte, arg string) []byte {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return []byte{cmd, '\n'}
	}
	return []byte(string(cmd) + " " + arg + "\n")
}

// ParseRequest splits a request line into command byte and argument.
func ParseRequest(line string) (byte, string, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return 0, "", fmt.Errorf("empty request")
	}
	cmd := line[0]
	if len(line) == 1 {
		return cmd, "", nil
	}
	if line[1] != ' ' {
		return 0, "", fmt.Errorf("malformed request %q", line)
	}
	return cmd, strings.TrimSpace(line[2:]), nil
}

type pidManager struct {
	path string
}

func (p *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil // no existing daemon
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		_ = os.Remove(p.path) // invalid pid file
		return nil
	}

	if !p.isProcessAlive(pid) {
		_ = os.Remove(p.path) // stale pid file
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (p *pidManager) isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

func defaultPidManager() (*pidManager, error) {
	pp, err := PidPath()
	if err != nil {
		return nil, err
	}
	return &pidManager{path: pp}, nil
}

func CheckExistingDaemon() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.create()
}

func RemovePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.remove()
}
