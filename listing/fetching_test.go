package listing_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/listing"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// recordingGetter serves the key as the body and records every retrieval.
type recordingGetter struct {
	keys []string
	errs map[string]error
}

func (g *recordingGetter) Open(_ context.Context, bucket, key string) (*s4types.ObjectContent, error) {
	g.keys = append(g.keys, key)
	if err := g.errs[key]; err != nil {
		return nil, err
	}
	return &s4types.ObjectContent{
		Body:          io.NopCloser(strings.NewReader(bucket + ":" + key)),
		ContentLength: int64(len(bucket) + 1 + len(key)),
	}, nil
}

func readBody(t *testing.T, c *s4types.ObjectContent) string {
	t.Helper()
	defer c.Body.Close()
	data, err := io.ReadAll(c.Body)
	require.NoError(t, err)
	return string(data)
}

func newFetching(getter listing.ObjectGetter, pages ...[]string) (*listing.FetchingIterator, *scriptedSource) {
	source := newScriptedSource(pages...)
	return listing.NewFetchingIterator(listing.NewKeyIterator(source), getter, "bucket"), source
}

func TestFetchingIterator_Next(t *testing.T) {
	getter := &recordingGetter{}
	it, _ := newFetching(getter, []string{"a", "b"}, []string{"c"})

	var bodies []string
	for {
		content, err := it.Next(context.Background())
		require.NoError(t, err)
		if content == nil {
			break
		}
		assert.NotEmpty(t, content.Object.Key)
		bodies = append(bodies, readBody(t, content))
	}

	assert.Equal(t, []string{"bucket:a", "bucket:b", "bucket:c"}, bodies)
	assert.Equal(t, []string{"a", "b", "c"}, getter.keys)
}

func TestFetchingIterator_RetrievesOnlyReturnedRecords(t *testing.T) {
	pages := [][]string{{"a", "b", "c"}, {"d"}, {"e", "f"}}

	tests := []struct {
		name      string
		run       func(*listing.FetchingIterator) (*s4types.ObjectContent, error)
		wantKey   string
		wantFetch []string
	}{
		{
			name: "advance skips without retrieving",
			run: func(it *listing.FetchingIterator) (*s4types.ObjectContent, error) {
				return it.AdvanceBy(context.Background(), 3)
			},
			wantKey:   "d",
			wantFetch: []string{"d"},
		},
		{
			name: "last retrieves exactly once",
			run: func(it *listing.FetchingIterator) (*s4types.ObjectContent, error) {
				return it.Last(context.Background())
			},
			wantKey:   "f",
			wantFetch: []string{"f"},
		},
		{
			name: "advance past the end retrieves nothing",
			run: func(it *listing.FetchingIterator) (*s4types.ObjectContent, error) {
				return it.AdvanceBy(context.Background(), 6)
			},
			wantFetch: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := &recordingGetter{}
			it, _ := newFetching(getter, pages...)

			content, err := tt.run(it)
			require.NoError(t, err)
			if tt.wantKey == "" {
				assert.Nil(t, content)
			} else {
				require.NotNil(t, content)
				assert.Equal(t, tt.wantKey, content.Object.Key)
				_ = content.Body.Close()
			}
			assert.Equal(t, tt.wantFetch, getter.keys)
		})
	}
}

func TestFetchingIterator_CountDoesNotRetrieve(t *testing.T) {
	getter := &recordingGetter{}
	it, source := newFetching(getter, []string{"a", "b"}, []string{}, []string{"c"})

	count, err := it.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Empty(t, getter.keys)
	assert.Equal(t, 3, source.calls)
}

func TestFetchingIterator_Errors(t *testing.T) {
	t.Run("retrieval failure is distinct and per item", func(t *testing.T) {
		boom := errors.New("timeout")
		getter := &recordingGetter{errs: map[string]error{"b": boom}}
		it, _ := newFetching(getter, []string{"a", "b", "c"})

		first, err := it.Next(context.Background())
		require.NoError(t, err)
		_ = first.Body.Close()

		_, err = it.Next(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrRetrievalFailed)
		assert.NotErrorIs(t, err, s4errors.ErrListingFailed)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "bucket/b")

		third, err := it.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "c", third.Object.Key)
		_ = third.Body.Close()
	})

	t.Run("missing key is a protocol violation", func(t *testing.T) {
		getter := &recordingGetter{}
		it, _ := newFetching(getter, []string{""})

		_, err := it.Next(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrProtocolViolation)
		assert.Contains(t, err.Error(), "response is missing key")
		assert.Empty(t, getter.keys)
	})

	t.Run("listing failure is not a retrieval failure", func(t *testing.T) {
		getter := &recordingGetter{}
		source := newScriptedSource([]string{"a"})
		source.errAt = map[int]error{1: errors.New("dns")}
		it := listing.NewFetchingIterator(listing.NewKeyIterator(source), getter, "bucket")

		_, err := it.Next(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrListingFailed)
		assert.NotErrorIs(t, err, s4errors.ErrRetrievalFailed)
		assert.Empty(t, getter.keys)
	})
}
