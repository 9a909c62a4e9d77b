package localtime

import (
	"context"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"
	"github.com/beevik/ntp"
)

var (
	allowedTimeSyncOffset    = time.Millisecond * 500
	minTimeSyncCheckInterval = time.Second * 5
)

// queryFunc returns the clock offset of the local host against server.
type queryFunc func(server string) (time.Duration, error)

func queryNTP(server string) (time.Duration, error) {
	response, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}

	if err := response.Validate(); err != nil {
		return 0, err
	}

	return response.ClockOffset, nil
}

// Syncer is a Clock that corrects the local time by the offset measured
// against an NTP server.
type Syncer struct {
	sync.RWMutex
	server   string
	interval time.Duration
	offset   time.Duration
	query    queryFunc
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSyncer queries server once and returns a Syncer holding the measured
// offset. Call Start to keep the offset updated.
func NewSyncer(server string, checkInterval time.Duration) (*Syncer, error) {
	return newSyncer(server, checkInterval, queryNTP)
}

func newSyncer(server string, checkInterval time.Duration, query queryFunc) (*Syncer, error) {
	const op errors.Op = "localtime.NewSyncer"

	if server == "" {
		return nil, errors.E(op, errors.Invalid, "ntp server cannot be empty")
	}

	offset, err := query(server)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}

	if checkInterval < minTimeSyncCheckInterval {
		log.Warnf("NTP check interval %v is shorter than %v, using the minimum",
			checkInterval, minTimeSyncCheckInterval)
		checkInterval = minTimeSyncCheckInterval
	}

	log.Infof("Local clock offset against %s: %v", server, offset)

	return &Syncer{
		server:   server,
		interval: checkInterval,
		offset:   offset,
		query:    query,
	}, nil
}

// Start begins periodic offset checks. It is a no-op if already started.
func (ts *Syncer) Start() {
	ts.Lock()
	defer ts.Unlock()

	if ts.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ts.cancel = cancel
	ts.done = make(chan struct{})

	go ts.schedule(ctx, ts.done)
}

// Stop ends periodic offset checks and waits for the checker to exit.
func (ts *Syncer) Stop() {
	ts.Lock()
	cancel, done := ts.cancel, ts.done
	ts.cancel, ts.done = nil, nil
	ts.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (ts *Syncer) schedule(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(ts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ts.check()
		}
	}
}

func (ts *Syncer) check() {
	offset, err := ts.query(ts.server)
	if err != nil {
		log.Errorf("Failed to query ntp server %s: %v", ts.server, err)
		return
	}

	ts.Lock()
	defer ts.Unlock()

	diff := ts.offset - offset
	if diff < 0 {
		diff = -diff
	}
	if diff < allowedTimeSyncOffset {
		return
	}

	log.Debugf("Local clock offset changed from %v to %v", ts.offset, offset)
	ts.offset = offset
}

// Offset returns the latest measured offset.
func (ts *Syncer) Offset() time.Duration {
	ts.RLock()
	defer ts.RUnlock()

	return ts.offset
}

// Now returns the local time adjusted by Offset.
func (ts *Syncer) Now() time.Time {
	return time.Now().Add(ts.Offset())
}
