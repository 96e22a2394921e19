// Package orchestrator sequences the fabric lifecycle: provision topology,
// start the controller, wait for readiness, start presentation, verify,
// tear down. It owns the aggregate FabricRunState; topology and process
// lifecycles are delegated to the provisioner and supervisor.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projectloom/loom/checks"
	"github.com/projectloom/loom/config"
	"github.com/projectloom/loom/readiness"
	"github.com/projectloom/loom/topology"
	"github.com/projectloom/loom/types"
)

// Topology is the provisioner surface the coordinator drives.
type Topology interface {
	Provision(ctx context.Context, spec *types.FabricSpec) error
	Teardown(ctx context.Context, spec *types.FabricSpec) error
	VerifyDataPlane(ctx context.Context, spec *types.FabricSpec, count int, timeout time.Duration) (topology.ProbeResult, error)
	ControllerConnected(ctx context.Context, bridge string) (bool, error)
	FlowCount(ctx context.Context, spec *types.FabricSpec) (int, error)
	BridgeExists(ctx context.Context, name string) (bool, error)
	NamespaceExists(name string) bool
}

// Supervisor is the process-management surface the coordinator drives.
type Supervisor interface {
	Start(ctx context.Context, spec *types.ProcessSpec) (*types.ProcessStatus, error)
	Stop(ctx context.Context, token string) (int, error)
	IsRunning(token string) bool
	Status(role types.Role, token string) types.ProcessStatus
}

// awaiter matches readiness.AwaitReady; injectable for tests.
type awaiter func(ctx context.Context, signals []readiness.Signal, timeout, interval time.Duration) readiness.Report

// checksRunner matches checks.Run; injectable for tests.
type checksRunner func(ctx context.Context, battery []checks.Check) checks.Scorecard

// Orchestrator drives FabricRunState transitions for one fabric.
type Orchestrator struct {
	conf      *config.Config
	topo      Topology
	sup       Supervisor
	await     awaiter
	runChecks checksRunner
}

// New creates an Orchestrator.
func New(conf *config.Config, topo Topology, sup Supervisor) *Orchestrator {
	return &Orchestrator{conf: conf, topo: topo, sup: sup, await: readiness.AwaitReady, runChecks: checks.Run}
}

// Lifecycle stages, named after the transition that can fail there.
const (
	StageProvision         = "provision"
	StageDataPlane         = "data-plane verification"
	StageController        = "start controller"
	StageControllerReady   = "controller readiness"
	StageSwitchConnect     = "switch connection"
	StagePresentation      = "start presentation"
	StagePresentationReady = "presentation readiness"
)

// StartupError aggregates a failed startup: the stage that failed, the run
// state reached, and the underlying cause. By the time the caller sees it,
// rollback has already run — no orphaned processes, no half-built topology.
type StartupError struct {
	Stage string
	State types.FabricRunState
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s (state %s): %v", e.Stage, e.State, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// Up brings the fabric to Running for the given variant. Any failure before
// Running triggers rollback in reverse start order and returns a
// StartupError. Re-running Up from any state is permitted: provisioning
// forces a teardown first.
func (o *Orchestrator) Up(ctx context.Context, variantID string) error {
	logger := log.WithFunc("orchestrator.Up")

	variant, err := config.LookupVariant(variantID)
	if err != nil {
		return err
	}
	if err := variant.CheckEnv(); err != nil {
		return &StartupError{Stage: StageController, State: types.FabricUninitialized, Err: err}
	}
	spec := variant.FabricSpec()

	unlock, err := o.acquireRunLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	state := types.FabricUninitialized
	fail := func(stage string, cause error, startedController, startedPresentation bool) error {
		logger.Errorf(ctx, cause, "stage %s failed, rolling back", stage)
		o.rollback(ctx, variant, spec, startedController, startedPresentation)
		return &StartupError{Stage: stage, State: state, Err: cause}
	}

	// Topology must be fully provisioned before the controller starts:
	// the bridge dials the control endpoint the controller will bind.
	if err := o.topo.Provision(ctx, spec); err != nil {
		return fail(StageProvision, err, false, false)
	}
	state = types.FabricNetworkReady

	probe, err := o.topo.VerifyDataPlane(ctx, spec, o.conf.ProbeCount, o.conf.ReadyTimeout())
	if err != nil {
		return fail(StageDataPlane, err, false, false)
	}
	if !probe.Reachable {
		return fail(StageDataPlane, fmt.Errorf("data plane unreachable: %s", probe), false, false)
	}
	logger.Infof(ctx, "data plane verified: %s", probe)

	ctrlSpec := variant.ControllerProcess(o.conf)
	if _, err := o.sup.Start(ctx, ctrlSpec); err != nil {
		return fail(StageController, err, false, false)
	}
	state = types.FabricControllerStarting

	// The control endpoint must accept connections before the switch's
	// dial-out can succeed, so it is awaited alongside the API signals.
	report := o.await(ctx, []readiness.Signal{
		readiness.LogMarker{Path: ctrlSpec.LogPath, Marker: variant.InitMarker},
		readiness.HTTPEndpoint{URL: variant.APIURL(variant.HealthPath)},
		readiness.TCPPort{Addr: spec.Controller.Addr()},
	}, o.conf.ReadyTimeout(), o.conf.ReadyInterval())
	if !report.AllSatisfied() {
		cause := &readiness.TimeoutError{Report: report, Timeout: o.conf.ReadyTimeout()}
		return fail(StageControllerReady, cause, true, false)
	}
	state = types.FabricControllerReady
	logger.Infof(ctx, "controller %s ready after %s", variant.ID, report.Elapsed)

	// The switch dials out on its own; only the control channel is
	// required here. The log marker is collected for diagnosis.
	connSignal := readiness.Func{
		SignalName: "control channel connected",
		Probe: func(ctx context.Context) (bool, error) {
			return o.topo.ControllerConnected(ctx, spec.BridgeName)
		},
	}
	report = o.await(ctx, []readiness.Signal{
		connSignal,
		readiness.LogMarker{Path: ctrlSpec.LogPath, Marker: variant.SwitchMarker},
	}, o.conf.ReadyTimeout(), o.conf.ReadyInterval())
	if !signalSatisfied(report, connSignal.Name()) {
		cause := &readiness.TimeoutError{Report: report, Timeout: o.conf.ReadyTimeout()}
		return fail(StageSwitchConnect, cause, true, false)
	}
	state = types.FabricSwitchConnected

	presSpec := variant.PresentationProcess(o.conf)
	if _, err := o.sup.Start(ctx, presSpec); err != nil {
		return fail(StagePresentation, err, true, false)
	}

	report = o.await(ctx, []readiness.Signal{
		readiness.HTTPEndpoint{URL: variant.WebURL()},
	}, o.conf.ReadyTimeout(), o.conf.ReadyInterval())
	if !report.AllSatisfied() {
		cause := &readiness.TimeoutError{Report: report, Timeout: o.conf.ReadyTimeout()}
		return fail(StagePresentationReady, cause, true, true)
	}
	state = types.FabricPresentationReady
	logger.Infof(ctx, "fabric running: variant=%s bridge=%s api=%s web=%s",
		variant.ID, spec.BridgeName, variant.APIURL(""), variant.WebURL())

	// Startup ends with the full verification battery. A failed check is
	// diagnostic: the fabric stays up exactly as built, no rollback, and the
	// scorecard rides back on the error.
	card := o.runChecks(ctx, checks.Battery(o.topo, spec, variantEndpoints(variant)))
	if !card.Ok() {
		logger.Warnf(ctx, "post-startup verification: %d/%d checks passed",
			card.Passed, card.Passed+card.Failed)
		return &checks.FailureError{Scorecard: card}
	}
	logger.Infof(ctx, "post-startup verification: all %d checks passed", card.Passed)
	return nil
}

// rollback reverses whatever Up started, newest first. Every step is
// best-effort: rollback must never require its own recovery.
func (o *Orchestrator) rollback(ctx context.Context, variant config.Variant, spec *types.FabricSpec, startedController, startedPresentation bool) {
	logger := log.WithFunc("orchestrator.rollback")
	if startedPresentation {
		if _, err := o.sup.Stop(ctx, variant.PresentationProcess(o.conf).Token()); err != nil {
			logger.Warnf(ctx, "stop presentation: %v", err)
		}
	}
	if startedController {
		if _, err := o.sup.Stop(ctx, variant.ControllerProcess(o.conf).Token()); err != nil {
			logger.Warnf(ctx, "stop controller: %v", err)
		}
	}
	if err := o.topo.Teardown(ctx, spec); err != nil {
		logger.Warnf(ctx, "teardown: %v", err)
	}
}

// Down stops everything and tears the topology down, from whatever state
// the fabric is in. Idempotent: a fully-absent fabric is a successful
// no-op, and teardown problems are logged, never escalated.
func (o *Orchestrator) Down(ctx context.Context) error {
	logger := log.WithFunc("orchestrator.Down")

	unlock, err := o.acquireRunLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	terminated := 0
	// Presentation first — it assumes a live controller API.
	for _, token := range o.presentationTokens() {
		n, stopErr := o.sup.Stop(ctx, token)
		if stopErr != nil {
			logger.Warnf(ctx, "stop presentation (%s): %v", token, stopErr)
		}
		terminated += n
	}
	for _, id := range config.VariantIDs() {
		variant, _ := config.LookupVariant(id)
		n, stopErr := o.sup.Stop(ctx, variant.ControllerProcess(o.conf).Token())
		if stopErr != nil {
			logger.Warnf(ctx, "stop controller %s: %v", id, stopErr)
		}
		terminated += n
	}
	logger.Infof(ctx, "%d process(es) terminated", terminated)

	if err := o.topo.Teardown(ctx, o.canonicalSpec()); err != nil {
		logger.Warnf(ctx, "teardown: %v", err)
	}
	return nil
}

// Teardown removes topology only, leaving processes alone. Safe from any
// state, including a never-provisioned host.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	unlock, err := o.acquireRunLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := o.topo.Teardown(ctx, o.canonicalSpec()); err != nil {
		log.WithFunc("orchestrator.Teardown").Warnf(ctx, "teardown: %v", err)
	}
	return nil
}

// canonicalSpec is the fabric's resource-name footprint. Names are shared
// across variants — only the control endpoint differs, and teardown never
// touches it — so any variant's spec identifies every deletable resource.
func (o *Orchestrator) canonicalSpec() *types.FabricSpec {
	variant, _ := config.LookupVariant(config.VariantIDs()[0])
	return variant.FabricSpec()
}

// presentationTokens returns the deduplicated identity tokens of every
// variant's presentation process.
func (o *Orchestrator) presentationTokens() []string {
	seen := map[string]struct{}{}
	var tokens []string
	for _, id := range config.VariantIDs() {
		variant, _ := config.LookupVariant(id)
		token := variant.PresentationProcess(o.conf).Token()
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

func signalSatisfied(report readiness.Report, name string) bool {
	for _, obs := range report.Observations {
		if obs.Name == name {
			return obs.Satisfied
		}
	}
	return false
}
