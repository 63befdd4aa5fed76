package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecatsim/controlstack"
	"github.com/sarchlab/ecatsim/convert"
	"github.com/sarchlab/ecatsim/ecat"
	"github.com/sarchlab/ecatsim/internal/toysim"
	"github.com/sarchlab/ecatsim/pdo"
	"github.com/sarchlab/ecatsim/sim/timing"
	"github.com/sarchlab/ecatsim/system"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		engine *timing.SerialEngine
		robot  *toysim.Robot
		sys    *system.System
		server *httptest.Server
	)

	get := func(path string) (int, []byte) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, body
	}

	post := func(path string) int {
		rsp, err := http.Post(server.URL+path, "application/json", nil)
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()

		return rsp.StatusCode
	}

	BeforeEach(func() {
		m = NewMonitor().
			WithStreamRate(1).
			WithProfileDuration(10 * time.Millisecond)
		engine = timing.NewSerialEngine()
		m.RegisterEngine(engine)

		robot = toysim.New(toysim.DefaultConfig())

		var err error
		sys, err = system.MakeBuilder().
			WithSession(controlstack.NewHandle(
				controlstack.NewHoldPosture(controlstack.StandingPosture))).
			WithHook(m).
			Build(robot)
		Expect(err).NotTo(HaveOccurred())

		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		m.closeSubscribers()
		server.Close()
	})

	It("should serve the last snapshot", func() {
		for i := 0; i < 5; i++ {
			sys.Step(robot)
		}

		code, body := get("/api/status")
		Expect(code).To(Equal(http.StatusOK))

		var snapshot Snapshot
		Expect(json.Unmarshal(body, &snapshot)).To(Succeed())
		Expect(snapshot.Cycle).To(Equal(uint64(4)))
		Expect(snapshot.Status.State).To(Equal(ecat.Operational))
		Expect(snapshot.Status.Cycle).To(Equal(uint64(5)))
		Expect(snapshot.Commands.Mode[0]).To(Equal(pdo.ModePosition))
		Expect(body).To(ContainSubstring(`"state":"Operational"`))
	})

	It("should report the last fault", func() {
		robot.OverrideSensor(convert.KindMotorPosition, 0, 100)
		sys.Step(robot)

		snapshot := m.Snapshot()
		Expect(snapshot.Status.State).To(Equal(ecat.Fault))
		Expect(snapshot.LastFault).NotTo(BeEmpty())
	})

	It("should serve the channel layout", func() {
		code, body := get("/api/layout")
		Expect(code).To(Equal(http.StatusOK))

		var layout []pdo.Channel
		Expect(json.Unmarshal(body, &layout)).To(Succeed())
		Expect(layout).To(Equal(pdo.Layout()))

		code, _ = get("/api/layout/battery_charge")
		Expect(code).To(Equal(http.StatusOK))

		code, _ = get("/api/layout/no_such_channel")
		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should serve the snapshot schema", func() {
		code, body := get("/api/schema")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("Snapshot"))
		Expect(string(body)).To(ContainSubstring("last_fault"))
	})

	It("should serialize the snapshot", func() {
		sys.Step(robot)

		code, body := get("/api/system")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())

		code, _ = get("/api/field/Status")
		Expect(code).To(Equal(http.StatusOK))
	})

	It("should refuse engine requests without an engine", func() {
		m.RegisterEngine(nil)

		Expect(post("/api/pause")).To(Equal(http.StatusServiceUnavailable))
	})

	It("should only pause on POST", func() {
		code, _ := get("/api/pause")

		Expect(code).To(Equal(http.StatusMethodNotAllowed))
	})

	It("should pause and continue the engine", func() {
		Expect(post("/api/pause")).To(Equal(http.StatusOK))
		Expect(post("/api/continue")).To(Equal(http.StatusOK))
		Expect(engine.Run()).To(Succeed())

		code, body := get("/api/now")
		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal(`{"now":0}`))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Cycles", 100)
		bar.IncrementFinished(40)

		code, body := get("/api/progress")
		Expect(code).To(Equal(http.StatusOK))

		var bars []ProgressBarStatus
		Expect(json.Unmarshal(body, &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Cycles"))
		Expect(bars[0].Finished).To(Equal(uint64(40)))

		m.CompleteProgressBar(bar)
		_, body = get("/api/progress")
		Expect(string(body)).To(Equal("[]"))
	})

	It("should report resources", func() {
		code, body := get("/api/resource")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("memory_size"))
	})

	It("should collect a profile", func() {
		code, _ := get("/api/profile")

		Expect(code).To(Equal(http.StatusOK))
	})

	It("should stream snapshots", func() {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/stream"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		var snapshot Snapshot
		Expect(conn.ReadJSON(&snapshot)).To(Succeed())
		Expect(snapshot.Status.State).To(Equal(ecat.Init))

		sys.Step(robot)
		sys.Step(robot)

		Expect(conn.ReadJSON(&snapshot)).To(Succeed())
		Expect(snapshot.Cycle).To(Equal(uint64(0)))
		Expect(snapshot.Status.State).To(Equal(ecat.PreOperational))

		Expect(conn.ReadJSON(&snapshot)).To(Succeed())
		Expect(snapshot.Cycle).To(Equal(uint64(1)))
		Expect(m.NumSubscribers()).To(Equal(1))
	})
})
