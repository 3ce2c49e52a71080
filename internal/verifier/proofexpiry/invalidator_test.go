package proofexpiry_test

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"govnet/internal/agent"
	"govnet/internal/verifier/proofexpiry"
	"govnet/internal/verifier/proofexpiry/mocks"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(id, role, state string, age time.Duration) agent.ProofRecord {
	return agent.ProofRecord{
		PresExID:  id,
		Role:      role,
		State:     state,
		UpdatedAt: now.Add(-age).Format("2006-01-02 15:04:05.000000Z"),
	}
}

func TestInvalidateAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAgent := mocks.NewMockAgent(ctrl)
	m := proofexpiry.NewMetrics(prometheus.NewRegistry())
	inv := proofexpiry.New(mockAgent,
		proofexpiry.WithTimeout(2*time.Minute),
		proofexpiry.WithLogger(quietLogger()),
		proofexpiry.WithMetrics(m),
	)

	mockAgent.EXPECT().ListProofRecords(gomock.Any()).Return([]agent.ProofRecord{
		record("stale-sent", "verifier", "request-sent", 3*time.Minute),
		record("stale-received", "verifier", "request-received", 10*time.Minute),
		record("fresh", "verifier", "request-sent", time.Minute),
		record("at-limit", "verifier", "request-sent", 2*time.Minute),
		record("prover-side", "prover", "request-received", time.Hour),
		record("done", "verifier", "done", time.Hour),
	}, nil)
	mockAgent.EXPECT().SendProblemReport(gomock.Any(), "stale-sent", proofexpiry.ProblemDescription).Return(nil)
	mockAgent.EXPECT().SendProblemReport(gomock.Any(), "stale-received", proofexpiry.ProblemDescription).Return(nil)

	res := inv.InvalidateAt(context.Background(), now)
	assert.Equal(t, proofexpiry.PassResult{Scanned: 4, Invalidated: 2}, res)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Invalidated))

	st := inv.Status()
	require.NotNil(t, st.LastPassAt)
	assert.True(t, now.Equal(*st.LastPassAt))
}

func TestInvalidateAt_ContinuesPastFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAgent := mocks.NewMockAgent(ctrl)
	m := proofexpiry.NewMetrics(prometheus.NewRegistry())
	inv := proofexpiry.New(mockAgent, proofexpiry.WithLogger(quietLogger()), proofexpiry.WithMetrics(m))

	bad := record("garbled", "verifier", "request-sent", 0)
	bad.UpdatedAt = "yesterday"
	mockAgent.EXPECT().ListProofRecords(gomock.Any()).Return([]agent.ProofRecord{
		record("first", "verifier", "request-sent", time.Hour),
		bad,
		record("second", "verifier", "request-sent", time.Hour),
	}, nil)
	mockAgent.EXPECT().SendProblemReport(gomock.Any(), "first", gomock.Any()).Return(errors.New("agent down"))
	mockAgent.EXPECT().SendProblemReport(gomock.Any(), "second", gomock.Any()).Return(nil)

	res := inv.InvalidateAt(context.Background(), now)
	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 1, res.Invalidated)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("report")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("parse")))
}

func TestInvalidateAt_SkipsUnstampedRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAgent := mocks.NewMockAgent(ctrl)
	m := proofexpiry.NewMetrics(prometheus.NewRegistry())
	inv := proofexpiry.New(mockAgent, proofexpiry.WithLogger(quietLogger()), proofexpiry.WithMetrics(m))

	unstamped := record("unstamped", "verifier", "request-sent", 0)
	unstamped.UpdatedAt = ""
	mockAgent.EXPECT().ListProofRecords(gomock.Any()).Return([]agent.ProofRecord{
		unstamped,
		record("stale", "verifier", "request-sent", time.Hour),
	}, nil)
	mockAgent.EXPECT().SendProblemReport(gomock.Any(), "stale", gomock.Any()).Return(nil)

	res := inv.InvalidateAt(context.Background(), now)
	assert.Equal(t, proofexpiry.PassResult{Scanned: 2, Invalidated: 1}, res)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Failures.WithLabelValues("parse")))
}

func TestInvalidateAt_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAgent := mocks.NewMockAgent(ctrl)
	inv := proofexpiry.New(mockAgent, proofexpiry.WithLogger(quietLogger()))

	mockAgent.EXPECT().ListProofRecords(gomock.Any()).Return(nil, errors.New("connection refused"))

	res := inv.InvalidateAt(context.Background(), now)
	assert.Equal(t, proofexpiry.PassResult{Errors: 1}, res)
}

func TestRun(t *testing.T) {
	t.Run("disabled returns immediately", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		ctrl := gomock.NewController(t)
		inv := proofexpiry.New(mocks.NewMockAgent(ctrl),
			proofexpiry.WithEnabled(false),
			proofexpiry.WithLogger(quietLogger()),
		)
		require.NoError(t, inv.Run(context.Background()))
		assert.False(t, inv.Status().Running)
		assert.False(t, inv.Status().Enabled)
	})

	t.Run("ticks until cancelled", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		ctrl := gomock.NewController(t)
		mockAgent := mocks.NewMockAgent(ctrl)
		passed := make(chan struct{}, 1)
		mockAgent.EXPECT().ListProofRecords(gomock.Any()).DoAndReturn(func(context.Context) ([]agent.ProofRecord, error) {
			select {
			case passed <- struct{}{}:
			default:
			}
			return nil, nil
		}).MinTimes(1)

		inv := proofexpiry.New(mockAgent,
			proofexpiry.WithInterval(5*time.Millisecond),
			proofexpiry.WithClock(func() time.Time { return now }),
			proofexpiry.WithLogger(quietLogger()),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- inv.Run(ctx) }()

		select {
		case <-passed:
		case <-time.After(time.Second):
			t.Fatal("no pass ran")
		}
		assert.True(t, inv.Status().Running)

		cancel()
		require.NoError(t, <-done)
		assert.False(t, inv.Status().Running)
	})

	t.Run("first pass runs on start", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		ctrl := gomock.NewController(t)
		mockAgent := mocks.NewMockAgent(ctrl)
		passed := make(chan struct{}, 1)
		mockAgent.EXPECT().ListProofRecords(gomock.Any()).DoAndReturn(func(context.Context) ([]agent.ProofRecord, error) {
			passed <- struct{}{}
			return nil, nil
		}).Times(1)

		inv := proofexpiry.New(mockAgent,
			proofexpiry.WithInterval(time.Hour),
			proofexpiry.WithClock(func() time.Time { return now }),
			proofexpiry.WithLogger(quietLogger()),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- inv.Run(ctx) }()

		select {
		case <-passed:
		case <-time.After(time.Second):
			t.Fatal("no pass ran before the first tick")
		}
		cancel()
		require.NoError(t, <-done)
		require.NotNil(t, inv.Status().LastPassAt)
		assert.True(t, now.Equal(*inv.Status().LastPassAt))
	})
}
