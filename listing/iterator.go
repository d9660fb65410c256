package listing

import (
	"context"
	"errors"
	"fmt"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// PageSource yields successive listing pages.
type PageSource interface {
	// FetchPage returns the next page. Pages may be empty without the
	// listing being exhausted.
	FetchPage(ctx context.Context) ([]s4types.Object, error)

	// Exhausted reports whether the last fetched page was the final one.
	Exhausted() bool
}

// KeyIterator yields the records of a listing in service order.
//
// Once a page fetch fails, the iterator keeps returning that error and
// issues no further requests.
type KeyIterator struct {
	source PageSource
	page   []s4types.Object
	pos    int
	err    error
}

// NewKeyIterator creates an iterator reading pages from source.
func NewKeyIterator(source PageSource) *KeyIterator {
	return &KeyIterator{source: source}
}

// Next returns the next record, or nil once the listing is exhausted.
func (it *KeyIterator) Next(ctx context.Context) (*s4types.Object, error) {
	if it.err != nil {
		return nil, it.err
	}

	for it.pos >= len(it.page) {
		it.discard()
		if it.source.Exhausted() {
			return nil, nil
		}
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}

	obj := it.page[it.pos]
	it.pos++
	return &obj, nil
}

// AdvanceBy skips n records and returns the one after them, so AdvanceBy(0)
// behaves like Next. It returns nil when fewer than n+1 records remain, after
// which the iterator is exhausted.
func (it *KeyIterator) AdvanceBy(ctx context.Context, n int) (*s4types.Object, error) {
	if it.err != nil {
		return nil, it.err
	}
	if n < 0 {
		return nil, s4errors.NewError("list", s4errors.CodeInvalidInput,
			fmt.Errorf("advance by %d: count must not be negative", n))
	}

	for {
		remaining := len(it.page) - it.pos
		if n < remaining {
			obj := it.page[it.pos+n]
			it.pos += n + 1
			return &obj, nil
		}
		n -= remaining

		it.discard()
		if it.source.Exhausted() {
			return nil, nil
		}
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}
}

// Count consumes the iterator and returns the number of records from the
// current position to the end. Each page is dropped as soon as it is counted.
func (it *KeyIterator) Count(ctx context.Context) (int, error) {
	if it.err != nil {
		return 0, it.err
	}

	count := len(it.page) - it.pos
	it.discard()
	for !it.source.Exhausted() {
		if err := it.fetch(ctx); err != nil {
			return 0, err
		}
		count += len(it.page)
		it.discard()
	}
	return count, nil
}

// Last consumes the iterator and returns its final record, or nil when no
// records remain. Only the latest record seen is kept while draining, and
// empty pages that carry a continuation token do not end the search.
func (it *KeyIterator) Last(ctx context.Context) (*s4types.Object, error) {
	if it.err != nil {
		return nil, it.err
	}

	var last *s4types.Object
	if it.pos < len(it.page) {
		obj := it.page[len(it.page)-1]
		last = &obj
	}
	it.discard()

	for !it.source.Exhausted() {
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
		if len(it.page) > 0 {
			obj := it.page[len(it.page)-1]
			last = &obj
		}
		it.discard()
	}
	return last, nil
}

// Exhausted reports whether every record has been returned.
func (it *KeyIterator) Exhausted() bool {
	return it.pos >= len(it.page) && it.source.Exhausted()
}

// Err returns the error that halted the iterator, if any.
func (it *KeyIterator) Err() error {
	return it.err
}

func (it *KeyIterator) fetch(ctx context.Context) error {
	page, err := it.source.FetchPage(ctx)
	if err != nil {
		if !errors.Is(err, s4errors.ErrListingFailed) {
			err = s4errors.NewError("list", s4errors.CodeListingFailed, err)
		}
		it.err = err
		return err
	}
	it.page, it.pos = page, 0
	return nil
}

func (it *KeyIterator) discard() {
	it.page, it.pos = nil, 0
}
