// The built-in machine-shop scenario. It is deliberately application code:
// everything below runs against the kernel's public API only, the way any
// model would. A few machines turn out parts, drawing fuel from a shared
// tank and dropping finished parts into a bin; machines break down and
// compete with low-priority side jobs for a preemptive repair crew; a
// tanker refills the tank and a shipper collects parts in batches.

package cmd

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/simkern/simkern/sim"
	"github.com/simkern/simkern/sim/realtime"
	"github.com/simkern/simkern/sim/stats"
	"github.com/simkern/simkern/sim/trace"
)

const (
	prioRepair = -1 // broken machines jump the repair queue and may preempt
	prioJob    = 0  // side jobs yield to repairs
)

type scenario struct {
	cfg *ScenarioConfig
	env *sim.Environment
	rng *sim.PartitionedRNG

	repair *sim.PreemptiveResource
	tank   *sim.Container
	bin    *sim.Store

	partsMade      int
	partsShipped   int
	shipments      int
	breakdowns     int
	jobsDone       int
	jobPreemptions int
	tankerRuns     int
}

// ScenarioResult is the YAML-rendered outcome of a scenario run.
type ScenarioResult struct {
	Seed           int64   `yaml:"seed"`
	Horizon        float64 `yaml:"horizon"`
	PartsMade      int     `yaml:"parts_made"`
	PartsShipped   int     `yaml:"parts_shipped"`
	Shipments      int     `yaml:"shipments"`
	Breakdowns     int     `yaml:"breakdowns"`
	JobsDone       int     `yaml:"jobs_done"`
	JobPreemptions int     `yaml:"job_preemptions"`
	TankerRuns     int     `yaml:"tanker_runs"`

	Gauges []*stats.Summary `yaml:"gauges"`
	Trace  *trace.Summary   `yaml:"trace"`
}

func expo(rng *rand.Rand, mean float64) float64 {
	return rng.ExpFloat64() * mean
}

// RunScenario builds the machine shop on a fresh environment and drives it
// to the horizon. A positive rtFactor paces the run against the wall clock.
func RunScenario(cfg *ScenarioConfig, seed int64, horizon, rtFactor float64, rtStrict bool) (*ScenarioResult, error) {
	env := sim.NewEnvironment()
	sc := &scenario{
		cfg:    cfg,
		env:    env,
		rng:    sim.NewPartitionedRNG(sim.NewSimulationKey(seed)),
		repair: sim.NewPreemptiveResource(env, cfg.Repairers),
		tank:   sim.NewContainer(env, cfg.FuelCapacity, cfg.InitialFuel),
		bin:    sim.NewStore(env, cfg.BinCapacity),
	}

	recorder := trace.NewRecorder()
	env.SetObserver(func(d sim.Delivery) {
		recorder.Observe(d.Time, d.EventID, d.Label)
	})

	for i := 0; i < cfg.Machines; i++ {
		machine := env.Process(sc.machine(i))
		env.Process(sc.breaker(i, machine))
	}
	env.Process(sc.sideJobs())
	env.Process(sc.tanker())
	env.Process(sc.shipper())

	crewBusy := stats.NewSampler("repair-crew-busy", cfg.SamplePeriod)
	fuelLevel := stats.NewSampler("fuel-level", cfg.SamplePeriod)
	binParts := stats.NewSampler("bin-parts", cfg.SamplePeriod)
	crewBusy.Start(env, func() float64 { return float64(sc.repair.Count()) }, horizon)
	fuelLevel.Start(env, func() float64 { return sc.tank.Level() }, horizon)
	binParts.Start(env, func() float64 { return float64(sc.bin.Len()) }, horizon)

	var err error
	if rtFactor > 0 {
		rt := realtime.NewEnvironment(env, rtFactor, rtStrict)
		err = rt.RunUntil(horizon)
	} else {
		err = env.RunUntil(horizon)
	}
	if err != nil {
		return nil, err
	}
	logrus.Infof("[t %012.6f] scenario finished: %d parts, %d breakdowns, %d deliveries traced",
		env.Now(), sc.partsMade, sc.breakdowns, recorder.Len())

	return &ScenarioResult{
		Seed:           seed,
		Horizon:        horizon,
		PartsMade:      sc.partsMade,
		PartsShipped:   sc.partsShipped,
		Shipments:      sc.shipments,
		Breakdowns:     sc.breakdowns,
		JobsDone:       sc.jobsDone,
		JobPreemptions: sc.jobPreemptions,
		TankerRuns:     sc.tankerRuns,
		Gauges: []*stats.Summary{
			crewBusy.Summarize(),
			fuelLevel.Summarize(),
			binParts.Summarize(),
		},
		Trace: trace.Summarize(recorder),
	}, nil
}

// machine turns out parts until the run ends: draw fuel, machine the part,
// drop it in the bin. A breakdown interrupt can land at any suspension
// point; the machine then claims the repair crew at repair priority before
// carrying on where it left off.
func (sc *scenario) machine(id int) sim.ProcessFunc {
	rng := sc.rng.ForSubsystem(sim.SubsystemActor("machine", id))
	return func(p *sim.Process) (any, error) {
		env := p.Env()
		for part := 0; ; part++ {
			get := sc.tank.Get(sc.cfg.FuelPerPart)
			if _, err := p.Wait(get.Event); err != nil {
				if _, ok := sim.AsInterrupt(err); !ok {
					return nil, err
				}
				get.Cancel()
				if err := sc.repairMachine(p); err != nil {
					return nil, err
				}
				part--
				continue
			}

			remaining := expo(rng, sc.cfg.PartTime)
			for remaining > 0 {
				started := env.Now()
				if _, err := p.Wait(env.Timeout(remaining)); err != nil {
					if _, ok := sim.AsInterrupt(err); !ok {
						return nil, err
					}
					remaining -= env.Now() - started
					if err := sc.repairMachine(p); err != nil {
						return nil, err
					}
					continue
				}
				remaining = 0
			}

			sc.partsMade++
			put := sc.bin.Put(fmt.Sprintf("machine-%d/part-%d", id, part))
			if _, err := p.Wait(put.Event); err != nil {
				if _, ok := sim.AsInterrupt(err); !ok {
					return nil, err
				}
				// The finished part is already on its way to the bin;
				// repair and start the next one.
				if err := sc.repairMachine(p); err != nil {
					return nil, err
				}
			}
		}
	}
}

// repairMachine claims the crew at repair priority, holds it for the repair
// duration, and releases it. Further breakdown interrupts while already
// waiting for (or undergoing) repair change nothing and are swallowed.
func (sc *scenario) repairMachine(p *sim.Process) error {
	env := p.Env()
	req := sc.repair.Request(prioRepair, true)
	for {
		if _, err := p.Wait(req.Event); err == nil {
			break
		} else if _, ok := sim.AsInterrupt(err); !ok {
			return err
		}
	}
	done := env.Timeout(sc.cfg.RepairTime)
	for {
		if _, err := p.Wait(done); err == nil {
			break
		} else if _, ok := sim.AsInterrupt(err); !ok {
			return err
		}
	}
	sc.repair.Release(req)
	return nil
}

// breaker periodically interrupts its machine with a breakdown.
func (sc *scenario) breaker(id int, machine *sim.Process) sim.ProcessFunc {
	rng := sc.rng.ForSubsystem(sim.SubsystemActor("breaker", id))
	return func(p *sim.Process) (any, error) {
		env := p.Env()
		for {
			if _, err := p.Wait(env.Timeout(expo(rng, sc.cfg.BreakInterval))); err != nil {
				return nil, err
			}
			sc.breakdowns++
			if err := machine.Interrupt("breakdown"); err != nil {
				// The machine only finishes if the run is being torn down.
				return nil, nil
			}
		}
	}
}

// sideJobs keeps the repair crew busy with low-priority work that broken
// machines preempt. A preempted job rejoins the queue and finishes its
// remaining time later.
func (sc *scenario) sideJobs() sim.ProcessFunc {
	rng := sc.rng.ForSubsystem(sim.SubsystemFailures)
	return func(p *sim.Process) (any, error) {
		env := p.Env()
		for {
			if _, err := p.Wait(env.Timeout(expo(rng, sc.cfg.JobInterval))); err != nil {
				return nil, err
			}
			remaining := sc.cfg.JobTime
			req := sc.repair.Request(prioJob, true)
			for {
				if _, err := p.Wait(req.Event); err != nil {
					if _, ok := sim.AsInterrupt(err); !ok {
						return nil, err
					}
					continue
				}
				started := env.Now()
				_, err := p.Wait(env.Timeout(remaining))
				if err == nil {
					break
				}
				ivt, ok := sim.AsInterrupt(err)
				if !ok {
					return nil, err
				}
				if _, preempted := ivt.Cause.(*sim.Preempted); preempted {
					sc.jobPreemptions++
				}
				remaining -= env.Now() - started
				sc.repair.Release(req)
				req = sc.repair.Request(prioJob, true)
			}
			sc.repair.Release(req)
			sc.jobsDone++
		}
	}
}

// tanker checks the fuel level periodically and hauls in a refill whenever
// it drops to the trigger. The put blocks until the delivery fits under
// the tank's capacity.
func (sc *scenario) tanker() sim.ProcessFunc {
	return func(p *sim.Process) (any, error) {
		env := p.Env()
		for {
			if _, err := p.Wait(env.Timeout(sc.cfg.TankerPeriod)); err != nil {
				return nil, err
			}
			if sc.tank.Level() > sc.cfg.TankerTrigger {
				continue
			}
			if _, err := p.Wait(env.Timeout(sc.cfg.TankerDelay)); err != nil {
				return nil, err
			}
			if _, err := p.Wait(sc.tank.Put(sc.cfg.TankerAmount).Event); err != nil {
				return nil, err
			}
			sc.tankerRuns++
		}
	}
}

// shipper collects parts into batches of ShipBatch, but ships whatever has
// accumulated when a full shipping period passes first. Unfilled gets stay
// outstanding and roll into the next batch.
func (sc *scenario) shipper() sim.ProcessFunc {
	return func(p *sim.Process) (any, error) {
		env := p.Env()
		var outstanding []*sim.StoreGet
		for {
			for len(outstanding) < sc.cfg.ShipBatch {
				outstanding = append(outstanding, sc.bin.Get())
			}
			members := make([]*sim.Event, len(outstanding))
			for i, get := range outstanding {
				members[i] = get.Event
			}
			batchFull := sim.AllOf(env, members)
			deadline := env.Timeout(sc.cfg.SamplePeriod * 4)
			if _, err := p.Wait(sim.AnyOf(env, []*sim.Event{batchFull.Event, deadline}).Event); err != nil {
				return nil, err
			}

			var kept []*sim.StoreGet
			collected := 0
			for _, get := range outstanding {
				if get.Triggered() {
					collected++
				} else {
					kept = append(kept, get)
				}
			}
			outstanding = kept
			if collected > 0 {
				sc.partsShipped += collected
				sc.shipments++
			}
		}
	}
}
