// Package monitoring serves the state of a running bus over HTTP.
//
// The Monitor is registered as a hook on a System. At the end of every cycle
// it copies what it needs into a snapshot under a lock, so the HTTP handlers
// never touch the System itself. Snapshots are also pushed to websocket
// subscribers of /api/stream.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/invopop/jsonschema"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/ecatsim/ecat"
	"github.com/sarchlab/ecatsim/pdo"
	"github.com/sarchlab/ecatsim/sim/hooking"
	"github.com/sarchlab/ecatsim/sim/timing"
	"github.com/sarchlab/ecatsim/system"
)

// Snapshot is the state of the bus at the end of a cycle.
type Snapshot struct {
	Cycle     uint64                 `json:"cycle"`
	Time      float64                `json:"time"`
	Status    ecat.Status            `json:"status"`
	LastFault string                 `json:"last_fault,omitempty"`
	Sensors   pdo.Sensors            `json:"sensors"`
	Commands  pdo.Commands           `json:"commands"`
	Efforts   [pdo.NumMotors]float64 `json:"efforts"`
}

func newSnapshot(info system.CycleInfo) Snapshot {
	return Snapshot{
		Cycle:     info.Cycle,
		Time:      info.Time,
		Status:    info.Status,
		LastFault: info.Status.LastFaultMessage(),
		Sensors:   info.Image.Sensors,
		Commands:  info.Image.Commands,
		Efforts:   info.Efforts,
	}
}

// Monitor can turn a bus run into a server and allows external monitoring
// and controlling of the run.
type Monitor struct {
	engine     timing.Engine
	portNumber int
	streamRate uint64

	profileDuration time.Duration

	snapshotLock sync.RWMutex
	snapshot     Snapshot

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	subscribersLock sync.Mutex
	subscribers     map[*subscriber]struct{}

	upgrader websocket.Upgrader
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		streamRate:      100,
		profileDuration: time.Second,
		subscribers:     make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithStreamRate makes the monitor push one snapshot every n cycles to
// stream subscribers.
func (m *Monitor) WithStreamRate(n uint64) *Monitor {
	if n == 0 {
		n = 1
	}

	m.streamRate = n

	return m
}

// WithProfileDuration sets how long /api/profile samples the CPU.
func (m *Monitor) WithProfileDuration(d time.Duration) *Monitor {
	m.profileDuration = d
	return m
}

// RegisterEngine registers the engine that runs the bus.
func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
}

// Func keeps the snapshot of a completed cycle.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	if ctx.Pos != system.HookPosCycleEnd {
		return
	}

	info, ok := ctx.Item.(system.CycleInfo)
	if !ok {
		return
	}

	snapshot := newSnapshot(info)

	m.snapshotLock.Lock()
	m.snapshot = snapshot
	m.snapshotLock.Unlock()

	if info.Cycle%m.streamRate == 0 || info.Transition.Changed() {
		m.publish(snapshot)
	}
}

// Snapshot returns the last snapshot taken.
func (m *Monitor) Snapshot() Snapshot {
	m.snapshotLock.RLock()
	defer m.snapshotLock.RUnlock()

	return m.snapshot
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/continue", m.continueEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/layout", m.layout)
	r.HandleFunc("/api/layout/{name}", m.channel)
	r.HandleFunc("/api/schema", m.schema)
	r.HandleFunc("/api/system", m.serializeSnapshot)
	r.HandleFunc("/api/field/{path}", m.serializeField)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/stream", m.stream)

	return r
}

// Listen binds the server port and returns the URL of the monitor.
func (m *Monitor) Listen() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("monitoring: %w", err)
	}

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring bus with %s\n", url)

	return url, nil
}

// Serve serves the monitor on the port bound by Listen until ctx is done.
func (m *Monitor) Serve(ctx context.Context) error {
	if m.listener == nil {
		return errors.New("monitoring: Serve called before Listen")
	}

	server := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		m.closeSubscribers()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("monitoring: shutdown: %v", err)
		}
	}()

	err := server.Serve(m.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	if m.engine == nil {
		http.Error(w, "no engine registered", http.StatusServiceUnavailable)
		return
	}

	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	if m.engine == nil {
		http.Error(w, "no engine registered", http.StatusServiceUnavailable)
		return
	}

	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	if m.engine == nil {
		http.Error(w, "no engine registered", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]float64{"now": m.engine.Now()})
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.Snapshot())
}

func (m *Monitor) layout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, pdo.Layout())
}

func (m *Monitor) channel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ch, ok := pdo.LookupChannel(name)
	if !ok {
		http.Error(w, "channel not found", http.StatusNotFound)
		return
	}

	writeJSON(w, ch)
}

// SnapshotSchema returns the JSON schema of the snapshots served by the
// monitor.
func SnapshotSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{}
	schema := reflector.Reflect(new(Snapshot))
	schema.Title = "ecatsim bus snapshot"
	schema.Description = "State of the emulated bus at the end of a cycle"

	return schema
}

func (m *Monitor) schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, SnapshotSchema())
}

func (m *Monitor) serializeSnapshot(w http.ResponseWriter, _ *http.Request) {
	snapshot := m.Snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(2)

	w.Header().Set("Content-Type", "application/json")
	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *Monitor) serializeField(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	snapshot := m.Snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(strings.Split(path, ".")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	buf := new(bytes.Buffer)
	if err := serializer.Serialize(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
