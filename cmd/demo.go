// cmd/demo.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gopherdes/smplkernel/config"
	"github.com/gopherdes/smplkernel/kernel"
)

var (
	horizon         float64
	arrivalRate     float64
	serviceRate     float64
	facilityServers int
)

// Event codes for the single-queue demo model. generate spawns the next
// new customer (and its own successor); arrival is where Request is
// actually called, so that a dequeued blocked request — which resumes
// under the event code active when it first called Request — retries
// the request without spawning an extra customer.
const (
	eventGenerate kernel.EventCode = 1
	eventArrival  kernel.EventCode = 2
	eventDepart   kernel.EventCode = 3
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the single-queue (M/M/N) demo model",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		model := &demoModel{
			horizon:           horizon,
			arrivalRate:       arrivalRate,
			serviceRate:       serviceRate,
			servers:           facilityServers,
			trace:             traceOn,
			initialEventCode:  eventGenerate,
			initialEventDelay: 0,
		}
		if configPath != "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				logrus.Fatalf("loading model config: %v", err)
			}
			model.applyConfig(cfg)
		}

		logrus.Infof("starting simulation: horizon=%.0f arrival-rate=%.4f service-rate=%.4f servers=%d",
			model.horizon, model.arrivalRate, model.serviceRate, model.servers)

		if err := model.run(os.Stdout); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		logrus.Info("simulation complete")
	},
}

func init() {
	runCmd.Flags().Float64Var(&horizon, "horizon", 10000, "Simulation horizon (logical time units)")
	runCmd.Flags().Float64Var(&arrivalRate, "arrival-rate", 0.8, "Mean customer arrival rate (customers per time unit)")
	runCmd.Flags().Float64Var(&serviceRate, "service-rate", 1.0, "Mean service rate per server (customers per time unit)")
	runCmd.Flags().IntVar(&facilityServers, "servers", 1, "Number of servers in the demo facility")
	runCmd.Flags().BoolVar(&traceOn, "trace", false, "Emit a formatted trace line for every state transition")
	runCmd.Flags().StringVar(&configPath, "config", "", "Optional YAML model config (overrides flags)")
}

// demoModel drives a single-facility queueing system end to end on the
// kernel, exercising Schedule/Cause/Request/Release/Report together.
type demoModel struct {
	horizon     float64
	arrivalRate float64
	serviceRate float64
	servers     int
	trace       bool
	seed        int

	initialEventCode  kernel.EventCode
	initialEventDelay float64
}

func (m *demoModel) applyConfig(cfg *config.ModelConfig) {
	m.horizon = cfg.Horizon
	if len(cfg.Facilities) > 0 {
		m.servers = cfg.Facilities[0].Servers
	}
	m.trace = cfg.Trace
	m.seed = cfg.Seed
	if cfg.InitialEvent.EventCode != 0 {
		m.initialEventCode = kernel.EventCode(cfg.InitialEvent.EventCode)
		m.initialEventDelay = cfg.InitialEvent.Delay
	}
}

func (m *demoModel) run(out *os.File) error {
	k, err := kernel.New("single-queue-demo")
	if err != nil {
		return err
	}
	if m.seed != 0 {
		if err := k.Rand().Stream(m.seed); err != nil {
			return err
		}
	}
	k.SetTrace(m.trace)
	k.SetSendTo(out)

	fac, err := k.Facility("server", m.servers)
	if err != nil {
		return err
	}

	meanInterarrival := 1.0 / m.arrivalRate
	meanService := 1.0 / m.serviceRate

	nextID := 0
	newCustomer := func() kernel.IntToken {
		nextID++
		return kernel.IntToken(nextID)
	}

	if err := k.Schedule(m.initialEventCode, m.initialEventDelay, newCustomer()); err != nil {
		return err
	}

	for {
		code, token, ok := k.Cause()
		if !ok || k.Time() > m.horizon {
			break
		}

		switch code {
		case eventGenerate:
			delay, err := k.Rand().Expntl(meanInterarrival)
			if err != nil {
				return err
			}
			if err := k.Schedule(eventGenerate, delay, newCustomer()); err != nil {
				return err
			}
			if err := k.Schedule(eventArrival, 0, token); err != nil {
				return err
			}
		case eventArrival:
			result, err := k.Request(fac, token, 0)
			if err != nil {
				return err
			}
			if result == kernel.Reserved {
				svc, err := k.Rand().Expntl(meanService)
				if err != nil {
					return err
				}
				if err := k.Schedule(eventDepart, svc, token); err != nil {
					return err
				}
			}
		case eventDepart:
			if err := k.Release(fac, token); err != nil {
				return err
			}
		}
	}

	return k.Report(out)
}
