// Package loadtest orchestrates a whole test plan: it builds clients, runs
// every scenario concurrently and aggregates their outcomes into a report.
package loadtest

import (
	"context"
	"crypto/rand"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/loadtest/benchmark"
	"github.com/blobbench/blobbench/internal/loadtest/plan"
	"github.com/blobbench/blobbench/internal/loadtest/scenario"
	"github.com/blobbench/blobbench/pkg/client"
)

const (
	DefaultWorkers      = 10
	DefaultPollAttempts = 10
	DefaultPollInterval = 2 * time.Second
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
	// Source of randomness used for blob payloads. Tests can use a mocked
	// random source in order to provide deterministic testing behavior.
	Random io.Reader
	// ClientFactory builds the client for a target. Defaults to dialing the
	// network in Params.Connection. Tests inject fakes here.
	ClientFactory func(target client.Target) (client.Client, error)
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	Connection *client.ConnectionDetails
	Scenario   scenario.Params
	// MaxErrorRate is the fraction of per-key operations allowed to fail
	// before a finished scenario counts as failed. Zero means every
	// operation must succeed.
	MaxErrorRate float64
	// MetricsPort exposes Prometheus metrics while a run is in progress.
	// Zero disables the listener.
	MetricsPort uint16
}

// New instantiates an App with default parameters, including standard output
// and a cryptographically secure random source.
func New() *App {
	return &App{
		Params: &Params{Connection: &client.ConnectionDetails{}},
		Out:    os.Stdout,
		Random: rand.Reader,
	}
}

func (p *Params) applyDefaults() {
	if p.Scenario.UploadWorkers <= 0 {
		p.Scenario.UploadWorkers = DefaultWorkers
	}
	if p.Scenario.DownloadWorkers <= 0 {
		p.Scenario.DownloadWorkers = DefaultWorkers
	}
	if p.Scenario.DeleteWorkers <= 0 {
		p.Scenario.DeleteWorkers = DefaultWorkers
	}
	if p.Scenario.PollAttempts == 0 {
		p.Scenario.PollAttempts = DefaultPollAttempts
	}
	if p.Scenario.PollInterval <= 0 {
		p.Scenario.PollInterval = DefaultPollInterval
	}
}

// RunPlan validates the plan and runs all of its scenarios concurrently.
// It returns one terminal result per scenario, however the run ends, unless
// the plan itself is unusable.
func (a *App) RunPlan(ctx context.Context, testPlan *plan.TestPlan) (*Report, error) {
	a.Params.applyDefaults()
	testPlan.ApplyDefaults()
	if err := testPlan.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	bctx := benchcontext.New(ctx, log.NewEntry(log.StandardLogger()).WithField("runId", runID))
	bctx.Log.Infof("running %d scenario(s)", len(testPlan.Tests))

	clients, err := a.clients(testPlan)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	collector := benchmark.NewCollector()
	collectorCtx, stopCollector := benchcontext.WithCancel(bctx)
	g, collectorCtx := benchcontext.ErrGroup(collectorCtx)
	g.Go(func() error { return collector.Run(collectorCtx) })

	resolver := scenario.NewResolver()
	results := make([]*scenario.Result, len(testPlan.Tests))
	wg := &sync.WaitGroup{}
	for i, spec := range testPlan.Tests {
		wg.Add(1)
		go func(i int, spec *plan.ScenarioSpec) {
			defer wg.Done()
			target, err := client.ParseTarget(spec.Target)
			if err != nil {
				results[i] = &scenario.Result{Name: spec.Name, State: scenario.StateAborted, Err: err}
				return
			}
			runner := &scenario.Runner{
				Spec:      spec,
				Client:    clients[target],
				Resolver:  resolver,
				Params:    a.Params.Scenario,
				Random:    a.Random,
				Collector: collector,
			}
			results[i] = runner.Run(bctx)
		}(i, spec)
	}
	wg.Wait()
	stopCollector()
	if err := g.Wait(); err != nil {
		bctx.Log.WithError(err).Warn("sample collector stopped early")
	}

	return &Report{
		RunID:      runID,
		Duration:   time.Since(start),
		Results:    results,
		Statistics: collector.Report(),
	}, nil
}

// clients builds one client per target used by the plan. A network named in
// the plan overrides the one from the command line.
func (a *App) clients(testPlan *plan.TestPlan) (map[client.Target]client.Client, error) {
	factory := a.ClientFactory
	if factory == nil {
		if a.Params.Connection == nil {
			return nil, errors.New("no connection details provided")
		}
		details := *a.Params.Connection
		if testPlan.Network != "" {
			details.Network = testPlan.Network
		}
		factory = func(target client.Target) (client.Client, error) {
			return client.New(&details, target)
		}
	}

	clients := make(map[client.Target]client.Client)
	for _, spec := range testPlan.Tests {
		target, err := client.ParseTarget(spec.Target)
		if err != nil {
			return nil, err
		}
		if _, ok := clients[target]; ok {
			continue
		}
		c, err := factory(target)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to build %s client", target)
		}
		clients[target] = c
	}
	return clients, nil
}
