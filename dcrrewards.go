package dcrrewards

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"
	"github.com/asdine/storm"
	"github.com/planetdecred/dcrrewards/localtime"
	"github.com/planetdecred/dcrrewards/politeia"
	"github.com/planetdecred/dcrrewards/rewards"
	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

const (
	logFileName = "dcrrewards.log"
	logDirName  = "logs"
)

// Rewards wires the claim workflow to a proposal server and keeps the user
// settings, log files and metrics for it under one root directory.
type Rewards struct {
	rootDir  string
	configDB *storm.DB

	client   politeia.RemoteProposalClient
	syncer   *localtime.Syncer
	registry *prometheus.Registry

	aggregator *rewards.VoteAggregator
	*Controller

	shuttingDown  chan bool
	shutdownOnce  sync.Once
	cancelFuncsMu sync.Mutex
	cancelFuncs   []context.CancelFunc
}

// New opens the settings database in rootDir and builds the workflow. A nil
// client is replaced by a politeia.Client for the configured proposal
// server.
func New(rootDir string, client politeia.RemoteProposalClient) (*Rewards, error) {
	err := os.MkdirAll(rootDir, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("error creating root directory: %v", err)
	}

	err = initLogRotator(filepath.Join(rootDir, logDirName, logFileName))
	if err != nil {
		return nil, err
	}

	configDB, err := storm.Open(filepath.Join(rootDir, userConfigDbFilename), storm.BoltOptions(0600, &bolt.Options{Timeout: time.Second}))
	if err != nil {
		log.Errorf("Error opening config database: %s", err.Error())
		closeLogRotator()
		if err == bolt.ErrTimeout {
			// timeout error occurs if storm fails to acquire a lock on the database file
			return nil, ErrSettingsDatabaseInUse
		}
		return nil, fmt.Errorf("error opening config database: %s", err.Error())
	}

	r := &Rewards{
		rootDir:  rootDir,
		configDB: configDB,
		client:   client,
		registry: prometheus.NewRegistry(),
	}

	SetLogLevels(r.ReadStringConfigValueForKey(LogLevelConfigKey, DefaultLogLevel))

	if r.client == nil {
		host := r.ReadStringConfigValueForKey(ProposalServerConfigKey, politeia.DefaultHost)
		r.client = politeia.New(host)
		log.Infof("Using proposal server %s", host)
	}

	var clock localtime.Clock = localtime.SystemClock
	if server := r.ReadStringConfigValueForKey(NTPServerConfigKey, ""); server != "" {
		interval := r.ReadIntConfigValueForKey(NTPCheckIntervalConfigKey, DefaultNTPCheckInterval)
		syncer, err := localtime.NewSyncer(server, time.Duration(interval)*time.Second)
		if err != nil {
			log.Warnf("NTP clock disabled, using system time: %v", err)
		} else {
			syncer.Start()
			r.syncer = syncer
			clock = syncer
		}
	}

	metrics := rewards.NewMetrics(r.registry)
	resolver := rewards.NewStatusResolver(r.client, clock, metrics)
	r.aggregator = rewards.NewVoteAggregator(r.client, resolver, metrics)
	r.aggregator.SetMaxConcurrentResolutions(r.ReadIntConfigValueForKey(MaxConcurrentResolutionsConfigKey, 0))
	orchestrator := rewards.NewClaimOrchestrator(r.client, metrics)
	r.Controller = NewController(r.aggregator, orchestrator)

	r.listenForShutdown()

	return r, nil
}

func (r *Rewards) listenForShutdown() {
	r.cancelFuncs = make([]context.CancelFunc, 0)
	r.shuttingDown = make(chan bool)
	go func() {
		<-r.shuttingDown
		r.cancelFuncsMu.Lock()
		for _, cancel := range r.cancelFuncs {
			cancel()
		}
		r.cancelFuncsMu.Unlock()
	}()
}

// contextWithShutdownCancel returns a context that is canceled when the
// Rewards instance shuts down.
func (r *Rewards) contextWithShutdownCancel() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelFuncsMu.Lock()
	r.cancelFuncs = append(r.cancelFuncs, cancel)
	r.cancelFuncsMu.Unlock()
	return ctx, cancel
}

// Shutdown stops the workflow and closes the settings database and log
// file. Calls after the first are no-ops.
func (r *Rewards) Shutdown() {
	r.shutdownOnce.Do(r.shutdown)
}

func (r *Rewards) shutdown() {
	log.Info("Shutting down dcrrewards")

	r.Controller.Close()
	close(r.shuttingDown)

	if r.syncer != nil {
		r.syncer.Stop()
	}

	if r.configDB != nil {
		err := r.configDB.Close()
		if err != nil {
			log.Errorf("config db closed with error: %v", err)
		} else {
			log.Info("config db closed successfully")
		}
	}

	log.Info("Shutting down log rotator")
	closeLogRotator()
}

func (r *Rewards) RootDir() string {
	return r.rootDir
}

// Client returns the proposal client the workflow talks to.
func (r *Rewards) Client() politeia.RemoteProposalClient {
	return r.client
}

// Gatherer exposes the workflow counters for a metrics endpoint.
func (r *Rewards) Gatherer() prometheus.Gatherer {
	return r.registry
}

// SetMaxConcurrentResolutions stores n and applies it from the next load.
// Zero removes the limit.
func (r *Rewards) SetMaxConcurrentResolutions(n int) error {
	if n < 0 {
		return errors.E(errors.Invalid, "max concurrent resolutions must not be negative")
	}
	r.aggregator.SetMaxConcurrentResolutions(n)
	return r.SaveUserConfigValue(MaxConcurrentResolutionsConfigKey, n)
}

// Load runs a load cycle that is canceled on shutdown.
func (r *Rewards) Load() error {
	ctx, cancel := r.contextWithShutdownCancel()
	defer cancel()
	return r.Refresh(ctx)
}

// ClaimReward claims the reward for proposalID and returns the server's
// answer as JSON.
func (r *Rewards) ClaimReward(proposalID string) (string, error) {
	ctx, cancel := r.contextWithShutdownCancel()
	defer cancel()

	result, err := r.Claim(ctx, politeia.ProposalID(proposalID))
	if err != nil {
		return "", err
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

// ClosedVotesJSON returns the loaded entries as a JSON array.
func (r *Rewards) ClosedVotesJSON() (string, error) {
	jsonBytes, err := json.Marshal(r.Snapshot().Entries)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

// SnapshotJSON returns the full controller state as JSON.
func (r *Rewards) SnapshotJSON() (string, error) {
	jsonBytes, err := json.Marshal(r.Snapshot())
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}
