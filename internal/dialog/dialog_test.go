package dialog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	class  string
	codes  []string
	value  int64
}

type fakeApplier struct {
	calls []call
	err   error
}

func (f *fakeApplier) AddCoupons(_ context.Context, _ int64, class string, codes []string) (int64, int64, error) {
	f.calls = append(f.calls, call{method: "add", class: class, codes: codes})
	return int64(len(codes)), 10, f.err
}

func (f *fakeApplier) RemoveCoupons(_ context.Context, _ int64, class string, codes []string) (int64, int64, error) {
	f.calls = append(f.calls, call{method: "remove", class: class, codes: codes})
	return 1, 4, f.err
}

func (f *fakeApplier) SetCost(_ context.Context, _ int64, class string, cost int64) error {
	f.calls = append(f.calls, call{method: "cost", class: class, value: cost})
	return f.err
}

func (f *fakeApplier) SetReferralReward(_ context.Context, _ int64, reward int64) error {
	f.calls = append(f.calls, call{method: "reward", value: reward})
	return f.err
}

func (f *fakeApplier) SetDailyLimit(_ context.Context, _ int64, limit int64) error {
	f.calls = append(f.calls, call{method: "limit", value: limit})
	return f.err
}

func newMachine(t *testing.T) (*Machine, *fakeApplier, *time.Time) {
	t.Helper()
	f := &fakeApplier{}
	m := NewMachine(f, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })
	return m, f, &now
}

func TestAddCodesFlow(t *testing.T) {
	m, f, _ := newMachine(t)
	ctx := context.Background()

	_, err := m.Begin(1, ActionAddCodes, "500")
	require.NoError(t, err)

	res, err := m.Input(ctx, 1, " A1 \n\nB2\r\nC3\n")
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Count)
	require.Equal(t, int64(10), res.Stock)
	require.Equal(t, []string{"A1", "B2", "C3"}, f.calls[0].codes)

	_, err = m.Input(ctx, 1, "D4")
	require.ErrorIs(t, err, ErrNoPendingAction)
}

func TestNumericInputMustBeDigits(t *testing.T) {
	m, f, _ := newMachine(t)
	ctx := context.Background()

	_, err := m.Begin(7, ActionSetCost, "1000")
	require.NoError(t, err)

	for _, bad := range []string{"", "abc", "-3", "3.5", "1 0"} {
		_, err := m.Input(ctx, 7, bad)
		require.ErrorIs(t, err, ErrInvalidInput, bad)
	}
	_, ok := m.Current(7)
	require.True(t, ok, "bad input keeps the action pending")

	res, err := m.Input(ctx, 7, " 12 ")
	require.NoError(t, err)
	require.Equal(t, int64(12), res.Value)
	require.Equal(t, call{method: "cost", class: "1000", value: 12}, f.calls[0])
}

func TestPendingActionExpires(t *testing.T) {
	m, f, now := newMachine(t)

	_, err := m.Begin(3, ActionSetDailyLimit, "")
	require.NoError(t, err)
	*now = now.Add(time.Minute)

	_, err = m.Input(context.Background(), 3, "2")
	require.ErrorIs(t, err, ErrNoPendingAction)
	require.Empty(t, f.calls)
}

func TestBeginValidates(t *testing.T) {
	m, _, _ := newMachine(t)

	_, err := m.Begin(1, Action("broadcast"), "")
	require.ErrorIs(t, err, ErrUnknownAction)
	_, err = m.Begin(1, ActionRemoveCodes, "750")
	require.ErrorIs(t, err, ErrInvalidClass)

	p, err := m.Begin(1, ActionSetReferralReward, "500")
	require.NoError(t, err)
	require.Empty(t, p.Class)
}

func TestStatesAreIndependentPerAdmin(t *testing.T) {
	m, f, _ := newMachine(t)
	ctx := context.Background()

	_, err := m.Begin(1, ActionSetReferralReward, "")
	require.NoError(t, err)
	_, err = m.Begin(2, ActionRemoveCodes, "2000")
	require.NoError(t, err)

	_, err = m.Input(ctx, 2, "X")
	require.NoError(t, err)
	_, err = m.Input(ctx, 1, "5")
	require.NoError(t, err)
	require.Equal(t, "remove", f.calls[0].method)
	require.Equal(t, call{method: "reward", value: 5}, f.calls[1])
}

func TestApplierErrorClearsAction(t *testing.T) {
	m, f, _ := newMachine(t)
	f.err = errors.New("store down")

	_, err := m.Begin(1, ActionSetDailyLimit, "")
	require.NoError(t, err)
	_, err = m.Input(context.Background(), 1, "4")
	require.ErrorIs(t, err, f.err)

	_, ok := m.Current(1)
	require.False(t, ok)
}

func TestSweep(t *testing.T) {
	m, _, now := newMachine(t)
	_, _ = m.Begin(1, ActionSetDailyLimit, "")
	*now = now.Add(30 * time.Second)
	_, _ = m.Begin(2, ActionSetDailyLimit, "")
	*now = now.Add(45 * time.Second)

	require.Equal(t, 1, m.Sweep())
	_, ok := m.Current(2)
	require.True(t, ok)
	m.Cancel(2)
	_, ok = m.Current(2)
	require.False(t, ok)
}
