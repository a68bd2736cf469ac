package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/models"
)

func TestReviewService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	rs := NewReviewService(NewMemoryReviewStore(), nil)

	var ids []string
	for row := 1; row <= 3; row++ {
		r, err := rs.Enqueue(ctx, "run-1", "customers.csv", row,
			models.RawGeoInput{PostalCode: "99999"},
			models.ResolvedAddress{PostalCode: "99999", Strategy: models.StrategyFallback}, nil)
		require.NoError(t, err)
		assert.True(t, r.IsPending())
		ids = append(ids, r.ID)
	}

	pending, err := rs.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)

	approved, err := rs.Approve(ctx, ids[0], "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewerID)
	assert.Equal(t, "alice", *approved.ReviewerID)

	fixed := models.ResolvedAddress{Subdistrict: "คลองตัน", District: "เขตคลองเตย", Province: "กรุงเทพมหานคร", PostalCode: "10110", Matched: true}
	corrected, err := rs.Correct(ctx, ids[1], "bob", fixed)
	require.NoError(t, err)
	assert.Equal(t, fixed, corrected.FinalResult())

	_, err = rs.Reject(ctx, ids[0], "carol")
	assert.ErrorIs(t, err, ErrReviewNotPending)

	_, err = rs.Approve(ctx, "missing", "alice")
	assert.ErrorIs(t, err, ErrReviewNotFound)

	stored, err := rs.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusCorrected, stored.Status)

	pending, err = rs.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestMemoryReviewStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReviewStore()

	for row := 1; row <= 5; row++ {
		runID := "a"
		if row > 3 {
			runID = "b"
		}
		require.NoError(t, store.Insert(ctx, models.NewAddressReview(
			runID+string(rune('0'+row)), runID, "in.csv", row, models.RawGeoInput{}, models.ResolvedAddress{}, nil)))
	}

	tests := []struct {
		name      string
		query     ReviewQuery
		wantRows  []int
		wantTotal int64
	}{
		{name: "all", query: ReviewQuery{}, wantRows: []int{1, 2, 3, 4, 5}, wantTotal: 5},
		{name: "by run", query: ReviewQuery{RunID: "b"}, wantRows: []int{4, 5}, wantTotal: 2},
		{name: "page", query: ReviewQuery{RunID: "a", Limit: 2, Offset: 1}, wantRows: []int{2, 3}, wantTotal: 3},
		{name: "past the end", query: ReviewQuery{Offset: 10}, wantRows: []int{}, wantTotal: 5},
		{name: "by status", query: ReviewQuery{Status: models.ReviewStatusApproved}, wantRows: []int{}, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := store.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			rows := make([]int, 0, len(got))
			for _, r := range got {
				rows = append(rows, r.RowNumber)
			}
			assert.ElementsMatch(t, tt.wantRows, rows)
		})
	}
}

func TestMemoryReviewStore_UpdateMissing(t *testing.T) {
	store := NewMemoryReviewStore()
	err := store.Update(context.Background(), &models.AddressReview{ID: "nope"})
	assert.ErrorIs(t, err, ErrReviewNotFound)
}
