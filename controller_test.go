package dcrrewards_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/planetdecred/dcrrewards"
	"github.com/planetdecred/dcrrewards/localtime"
	"github.com/planetdecred/dcrrewards/politeia"
	"github.com/planetdecred/dcrrewards/politeia/politeiatest"
	"github.com/planetdecred/dcrrewards/rewards"
)

type recordingListener struct {
	mu     sync.Mutex
	events []string
	loaded *dcrrewards.Snapshot
	claims map[politeia.ProposalID][]dcrrewards.ClaimState
}

func newRecordingListener() *recordingListener {
	return &recordingListener{claims: make(map[politeia.ProposalID][]dcrrewards.ClaimState)}
}

func (l *recordingListener) OnLoadStarted() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "started")
}

func (l *recordingListener) OnLoaded(snapshot *dcrrewards.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "loaded")
	l.loaded = snapshot
}

func (l *recordingListener) OnLoadFailed(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "failed")
}

func (l *recordingListener) OnClaimStateChanged(id politeia.ProposalID, state dcrrewards.ClaimState, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.claims[id] = append(l.claims[id], state)
}

func (l *recordingListener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *recordingListener) ClaimStates(id politeia.ProposalID) []dcrrewards.ClaimState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]dcrrewards.ClaimState(nil), l.claims[id]...)
}

func proposalIDs(entries []dcrrewards.VoteEntry) []politeia.ProposalID {
	ids := make([]politeia.ProposalID, len(entries))
	for i, entry := range entries {
		ids[i] = entry.Vote.ProposalID
	}
	return ids
}

var _ = Describe("Controller", func() {
	var (
		ctx        context.Context
		now        time.Time
		client     *politeiatest.Client
		controller *dcrrewards.Controller
		listener   *recordingListener
	)

	closedAt := func() int64 { return now.Add(-time.Hour).UnixNano() }
	openUntil := func() int64 { return now.Add(time.Hour).UnixNano() }

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Unix(1700000000, 0)
		client = politeiatest.NewClient()

		clock := localtime.NewManualClock(now)
		resolver := rewards.NewStatusResolver(client, clock, nil)
		aggregator := rewards.NewVoteAggregator(client, resolver, nil)
		orchestrator := rewards.NewClaimOrchestrator(client, nil)
		controller = dcrrewards.NewController(aggregator, orchestrator)

		listener = newRecordingListener()
		Expect(controller.AddNotificationListener(listener, "test")).To(Succeed())
	})

	AfterEach(func() {
		controller.Close()
	})

	It("starts idle", func() {
		Expect(controller.State()).To(Equal(dcrrewards.StateIdle))
		Expect(controller.Snapshot().Entries).To(BeEmpty())
	})

	It("rejects a listener registered twice under the same identifier", func() {
		err := controller.AddNotificationListener(newRecordingListener(), "test")
		Expect(err).To(MatchError(dcrrewards.ErrListenerAlreadyExist))

		controller.RemoveNotificationListener("test")
		Expect(controller.AddNotificationListener(newRecordingListener(), "test")).To(Succeed())
	})

	Describe("loading", func() {
		It("keeps only votes on closed proposals in source order", func() {
			client.SetVotes(
				politeia.Vote{ProposalID: "a"},
				politeia.Vote{ProposalID: "b"},
				politeia.Vote{ProposalID: "c", Claimed: true},
				politeia.Vote{ProposalID: "d"},
			)
			client.SetProposalEnd("a", closedAt())
			client.SetProposalEnd("b", openUntil())
			client.SetProposalEnd("c", closedAt())
			client.FailProposal("d", errors.New("server down"))

			Expect(controller.Refresh(ctx)).To(Succeed())

			snapshot := controller.Snapshot()
			Expect(snapshot.State).To(Equal(dcrrewards.StateLoaded))
			Expect(proposalIDs(snapshot.Entries)).To(Equal([]politeia.ProposalID{"a", "c"}))
			Expect(snapshot.Entries[0].ClaimState).To(Equal(dcrrewards.ClaimNone))
			Expect(snapshot.Entries[1].ClaimState).To(Equal(dcrrewards.ClaimClaimed))
			Expect(snapshot.Unresolved).To(Equal([]politeia.ProposalID{"d"}))

			Expect(listener.Events()).To(Equal([]string{"started", "loaded"}))
			Expect(listener.loaded.Unresolved).To(Equal([]politeia.ProposalID{"d"}))
		})

		It("loads an empty list when the user has not voted", func() {
			Expect(controller.Refresh(ctx)).To(Succeed())
			Expect(controller.State()).To(Equal(dcrrewards.StateLoaded))
			Expect(controller.Snapshot().Entries).To(BeEmpty())
		})

		It("fails the cycle when the vote list cannot be fetched", func() {
			client.FailVotes(errors.New("unauthorized"))

			err := controller.Refresh(ctx)
			var fetchErr *rewards.FetchError
			Expect(errors.As(err, &fetchErr)).To(BeTrue())

			snapshot := controller.Snapshot()
			Expect(snapshot.State).To(Equal(dcrrewards.StateLoadFailed))
			Expect(snapshot.Error).ToNot(BeEmpty())
			Expect(controller.LoadError()).To(HaveOccurred())
			Expect(listener.Events()).To(Equal([]string{"started", "failed"}))
		})

		It("recovers from a failed load on refresh", func() {
			client.FailVotes(errors.New("unauthorized"))
			Expect(controller.Refresh(ctx)).ToNot(Succeed())

			client.FailVotes(nil)
			client.SetVotes(politeia.Vote{ProposalID: "a"})
			client.SetProposalEnd("a", closedAt())

			Expect(controller.Refresh(ctx)).To(Succeed())
			Expect(controller.LoadError()).ToNot(HaveOccurred())
			Expect(proposalIDs(controller.Snapshot().Entries)).To(Equal([]politeia.ProposalID{"a"}))
		})

		It("discards the result of a load superseded by a newer one", func() {
			client.SetVotes(politeia.Vote{ProposalID: "old"})
			client.SetProposalEnd("old", closedAt())
			client.SetProposalEnd("new", closedAt())

			var calls int32
			entered := make(chan struct{})
			release := make(chan struct{})
			client.BeforeQueryVotes = func(ctx context.Context) {
				if atomic.AddInt32(&calls, 1) == 1 {
					close(entered)
					<-release
				}
			}

			firstErr := make(chan error, 1)
			go func() {
				firstErr <- controller.Refresh(ctx)
			}()
			Eventually(entered).Should(BeClosed())

			client.SetVotes(politeia.Vote{ProposalID: "new"})
			Expect(controller.Refresh(ctx)).To(Succeed())

			close(release)
			Eventually(firstErr).Should(Receive(MatchError(dcrrewards.ErrLoadDiscarded)))

			snapshot := controller.Snapshot()
			Expect(snapshot.State).To(Equal(dcrrewards.StateLoaded))
			Expect(proposalIDs(snapshot.Entries)).To(Equal([]politeia.ProposalID{"new"}))
		})

		It("runs the background load once per activation", func() {
			client.SetVotes(politeia.Vote{ProposalID: "a"})
			client.SetProposalEnd("a", closedAt())

			controller.Activate()
			controller.Activate()

			Eventually(controller.State).Should(Equal(dcrrewards.StateLoaded))
			Expect(client.VoteQueries()).To(Equal(1))

			controller.Deactivate()
			controller.Activate()
			Eventually(client.VoteQueries).Should(Equal(2))
		})

		It("never loads when deactivated right after activation", func() {
			client.SetVotes(politeia.Vote{ProposalID: "a"})
			client.SetProposalEnd("a", closedAt())

			controller.Activate()
			controller.Deactivate()

			Consistently(controller.State, 100*time.Millisecond).Should(Equal(dcrrewards.StateIdle))
			Expect(controller.Snapshot().Entries).To(BeEmpty())
			Expect(client.VoteQueries()).To(BeZero())
			Expect(listener.Events()).To(BeEmpty())
		})

		It("enters loading as soon as it is activated", func() {
			release := make(chan struct{})
			client.BeforeQueryVotes = func(ctx context.Context) {
				<-release
			}

			controller.Activate()
			Expect(controller.State()).To(Equal(dcrrewards.StateLoading))

			close(release)
			Eventually(controller.State).Should(Equal(dcrrewards.StateLoaded))
		})

		It("drops an in-flight load on deactivate", func() {
			client.SetVotes(politeia.Vote{ProposalID: "a"})
			client.SetProposalEnd("a", closedAt())

			entered := make(chan struct{})
			release := make(chan struct{})
			client.BeforeGetProposal = func(ctx context.Context, id politeia.ProposalID) {
				close(entered)
				<-release
			}

			controller.Activate()
			Eventually(entered).Should(BeClosed())

			controller.Deactivate()
			Expect(controller.State()).To(Equal(dcrrewards.StateIdle))

			close(release)
			Consistently(controller.State, 100*time.Millisecond).Should(Equal(dcrrewards.StateIdle))
			Expect(controller.Snapshot().Entries).To(BeEmpty())
		})

		It("refuses to load once closed", func() {
			controller.Close()
			Expect(controller.Refresh(ctx)).To(MatchError(dcrrewards.ErrControllerClosed))
		})
	})

	Describe("claiming", func() {
		BeforeEach(func() {
			client.SetVotes(
				politeia.Vote{ProposalID: "a"},
				politeia.Vote{ProposalID: "b"},
				politeia.Vote{ProposalID: "a", ChosenOption: "no"},
				politeia.Vote{ProposalID: "c", Claimed: true},
			)
			client.SetProposalEnd("a", closedAt())
			client.SetProposalEnd("b", closedAt())
			client.SetProposalEnd("c", closedAt())
		})

		It("requires a loaded list", func() {
			_, err := controller.Claim(ctx, "a")
			Expect(err).To(MatchError(dcrrewards.ErrNotLoaded))
			Expect(client.ClaimCalls("a")).To(BeZero())
		})

		Context("after a load", func() {
			BeforeEach(func() {
				Expect(controller.Refresh(ctx)).To(Succeed())
			})

			It("marks every entry of the proposal claimed and leaves others untouched", func() {
				client.SetClaimResult("a", &politeia.ClaimResult{Success: true, RewardAmount: 250})

				result, err := controller.Claim(ctx, "a")
				Expect(err).ToNot(HaveOccurred())
				Expect(result.RewardAmount).To(BeEquivalentTo(250))
				Expect(client.ClaimCalls("a")).To(Equal(1))

				entries := controller.Snapshot().Entries
				Expect(entries[0].Vote.Claimed).To(BeTrue())
				Expect(entries[0].ClaimState).To(Equal(dcrrewards.ClaimClaimed))
				Expect(entries[0].RewardAmount).To(BeEquivalentTo(250))
				Expect(entries[2].Vote.Claimed).To(BeTrue())
				Expect(entries[1].Vote.Claimed).To(BeFalse())
				Expect(entries[1].ClaimState).To(Equal(dcrrewards.ClaimNone))

				Expect(listener.ClaimStates("a")).To(Equal([]dcrrewards.ClaimState{
					dcrrewards.ClaimPending, dcrrewards.ClaimClaimed,
				}))
			})

			It("does not contact the server for an already claimed vote", func() {
				_, err := controller.Claim(ctx, "c")
				Expect(err).To(MatchError(dcrrewards.ErrAlreadyClaimed))
				Expect(client.ClaimCalls("c")).To(BeZero())

				_, err = controller.Claim(ctx, "a")
				Expect(err).ToNot(HaveOccurred())
				_, err = controller.Claim(ctx, "a")
				Expect(err).To(MatchError(dcrrewards.ErrAlreadyClaimed))
				Expect(client.ClaimCalls("a")).To(Equal(1))
			})

			It("rejects a proposal that is not in the list", func() {
				_, err := controller.Claim(ctx, "zzz")
				Expect(err).To(MatchError(dcrrewards.ErrVoteNotFound))
			})

			It("keeps the vote unclaimed after a rejection and allows a retry", func() {
				client.SetClaimResult("b", &politeia.ClaimResult{FailureReason: "vote not eligible"})

				_, err := controller.Claim(ctx, "b")
				var claimErr *rewards.ClaimError
				Expect(errors.As(err, &claimErr)).To(BeTrue())

				entry := controller.Snapshot().Entries[1]
				Expect(entry.Vote.Claimed).To(BeFalse())
				Expect(entry.ClaimState).To(Equal(dcrrewards.ClaimFailed))
				Expect(entry.ClaimError).To(ContainSubstring("vote not eligible"))

				client.SetClaimResult("b", &politeia.ClaimResult{Success: true})
				_, err = controller.Claim(ctx, "b")
				Expect(err).ToNot(HaveOccurred())
				Expect(controller.Snapshot().Entries[1].Vote.Claimed).To(BeTrue())
				Expect(client.ClaimCalls("b")).To(Equal(2))
			})

			It("keeps the vote unclaimed when the request fails", func() {
				client.FailClaim("b", errors.New("connection reset"))

				_, err := controller.Claim(ctx, "b")
				Expect(err).To(HaveOccurred())
				Expect(controller.Snapshot().Entries[1].Vote.Claimed).To(BeFalse())
				Expect(listener.ClaimStates("b")).To(Equal([]dcrrewards.ClaimState{
					dcrrewards.ClaimPending, dcrrewards.ClaimFailed,
				}))
			})

			Context("while a claim is pending", func() {
				var (
					entered  chan struct{}
					release  chan struct{}
					claimErr chan error
				)

				BeforeEach(func() {
					entered = make(chan struct{})
					release = make(chan struct{})
					claimErr = make(chan error, 1)
					client.BeforeClaim = func(ctx context.Context, id politeia.ProposalID) {
						close(entered)
						<-release
					}

					go func() {
						_, err := controller.Claim(ctx, "a")
						claimErr <- err
					}()
					Eventually(entered).Should(BeClosed())
				})

				It("rejects a second claim for the same proposal", func() {
					Expect(controller.Snapshot().Entries[0].ClaimState).To(Equal(dcrrewards.ClaimPending))

					_, err := controller.Claim(ctx, "a")
					Expect(err).To(MatchError(rewards.ErrClaimInProgress))

					close(release)
					Eventually(claimErr).Should(Receive(BeNil()))
					Expect(client.ClaimCalls("a")).To(Equal(1))
				})

				It("keeps the outcome across a reload that raced it", func() {
					Expect(controller.Refresh(ctx)).To(Succeed())
					Expect(controller.Snapshot().Entries[0].ClaimState).To(Equal(dcrrewards.ClaimPending))

					close(release)
					Eventually(claimErr).Should(Receive(BeNil()))
					Expect(controller.Snapshot().Entries[0].Vote.Claimed).To(BeTrue())

					Expect(controller.Refresh(ctx)).To(Succeed())
					entries := controller.Snapshot().Entries
					Expect(entries[0].Vote.Claimed).To(BeTrue())
					Expect(entries[2].Vote.Claimed).To(BeTrue())
				})
			})

			It("hands out copies of its state", func() {
				snapshot := controller.Snapshot()
				snapshot.Entries[0].Vote.Claimed = true

				Expect(controller.Snapshot().Entries[0].Vote.Claimed).To(BeFalse())
			})
		})
	})
})
