package message

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchOf(n int) []StoredMessage {
	msgs := make([]StoredMessage, n)
	for i := range msgs {
		msgs[i] = StoredMessage{
			ID:               int64(i + 1),
			DeviceHardwareID: "dev",
			Message: RawMessage{
				"ot1": {fmt.Sprintf("0x%02x00", i)},
				"cv":  {fmt.Sprint(i)},
			},
		}
	}
	return msgs
}

func TestDecodeBatchSkipsUnreadableMessage(t *testing.T) {
	msgs := batchOf(5)
	msgs[2].Message = nil

	recs, stats, err := quietDecoder().DecodeBatch(context.Background(), msgs, BatchOptions{})
	require.NoError(t, err)

	require.Len(t, recs, 4)
	assert.Equal(t, BatchStats{Total: 5, Decoded: 4, Skipped: 1}, stats)

	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	assert.Equal(t, []int64{1, 2, 4, 5}, ids)
}

func TestDecodeBatchContinuesAfterMalformedFields(t *testing.T) {
	msgs := batchOf(4)
	msgs[1].Message["cv"] = []string{"oops"}
	msgs[1].Message["ot1"] = []string{"0xqq"}

	recs, stats, err := quietDecoder().DecodeBatch(context.Background(), msgs, BatchOptions{})
	require.NoError(t, err)

	require.Len(t, recs, 4)
	assert.Equal(t, 1, stats.Partial)
	assert.Equal(t, 2, stats.FieldErrors)

	last := recs[3]
	v, ok := last.ParsedFloat("ot1")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, int64(3), last.CV)
}

func TestDecodeBatchParallelKeepsOrder(t *testing.T) {
	msgs := batchOf(200)

	seq, seqStats, err := quietDecoder().DecodeBatch(context.Background(), msgs, BatchOptions{Workers: 1})
	require.NoError(t, err)
	par, parStats, err := quietDecoder().DecodeBatch(context.Background(), msgs, BatchOptions{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, seqStats, parStats)
	require.Len(t, par, len(seq))
	for i := range seq {
		assert.Equal(t, seq[i], par[i], "record %d", i)
	}
}

func TestDecodeBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recs, stats, err := quietDecoder().DecodeBatch(ctx, batchOf(3), BatchOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recs)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 0, stats.Skipped)
}

func TestBatchStatsAdd(t *testing.T) {
	s := BatchStats{Total: 1, Decoded: 1}
	s.Add(BatchStats{Total: 2, Decoded: 1, Skipped: 1, Partial: 1, FieldErrors: 3})
	assert.Equal(t, BatchStats{Total: 3, Decoded: 2, Skipped: 1, Partial: 1, FieldErrors: 3}, s)
}
