package savings

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDepositLogEvictsOldest(t *testing.T) {
	log := newDepositLog(3)
	for i := int64(1); i <= 5; i++ {
		log.Append(DepositRecord{Amount: big.NewInt(i), Height: uint64(i)})
	}

	entries, total := log.Latest(10)
	require.Equal(t, uint64(5), total)
	require.Len(t, entries, 3)
	// Most recent first; entries 1 and 2 were overwritten.
	require.Equal(t, uint64(5), entries[0].Height)
	require.Equal(t, uint64(4), entries[1].Height)
	require.Equal(t, uint64(3), entries[2].Height)
}

func TestDepositLogPartialFill(t *testing.T) {
	log := newDepositLog(5)
	log.Append(DepositRecord{Height: 1})
	log.Append(DepositRecord{Height: 2})

	entries, total := log.Latest(10)
	require.Equal(t, uint64(2), total)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(2), entries[0].Height)
	require.Equal(t, uint64(1), entries[1].Height)
}

func TestDepositLogLimitClamping(t *testing.T) {
	log := newDepositLog(4)
	for i := 1; i <= 4; i++ {
		log.Append(DepositRecord{Height: uint64(i)})
	}

	entries, total := log.Latest(2)
	require.Equal(t, uint64(4), total)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(4), entries[0].Height)
	require.Equal(t, uint64(3), entries[1].Height)

	entries, _ = log.Latest(0)
	require.Empty(t, entries)

	entries, _ = log.Latest(-1)
	require.Empty(t, entries)
}

func TestEventLogWrapsAroundRepeatedly(t *testing.T) {
	log := newEventLog(2)
	for i := 1; i <= 7; i++ {
		log.Append(EventRecord{Height: uint64(i)})
	}

	entries, total := log.Latest(10)
	require.Equal(t, uint64(7), total)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(7), entries[0].Height)
	require.Equal(t, uint64(6), entries[1].Height)
}

func TestRateLogOrderAfterEviction(t *testing.T) {
	log := newRateLog(3)
	for i := uint64(1); i <= 4; i++ {
		log.Append(RateChange{OldRate: i - 1, NewRate: i, Height: i})
	}

	entries, total := log.Latest(3)
	require.Equal(t, uint64(4), total)
	require.Len(t, entries, 3)
	require.Equal(t, uint64(4), entries[0].NewRate)
	require.Equal(t, uint64(3), entries[1].NewRate)
	require.Equal(t, uint64(2), entries[2].NewRate)
}

func TestLatestOnEmptyLog(t *testing.T) {
	log := newEventLog(8)
	entries, total := log.Latest(5)
	require.Empty(t, entries)
	require.Zero(t, total)
}

func TestZeroCapacityRingRecovers(t *testing.T) {
	// A decoded legacy record may carry capacity zero; appends must not
	// divide by zero.
	log := &EventLog{}
	log.Append(EventRecord{Height: 1})
	log.Append(EventRecord{Height: 2})

	entries, total := log.Latest(10)
	require.Equal(t, uint64(2), total)
	require.Len(t, entries, 1)
	require.Equal(t, uint64(2), entries[0].Height)
}
