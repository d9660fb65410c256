package listing

import (
	"context"
	"errors"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// errMissingKey is the cause of a protocol violation for a keyless record.
var errMissingKey = errors.New("response is missing key")

// ObjectGetter retrieves the content of a single object.
type ObjectGetter interface {
	Open(ctx context.Context, bucket, key string) (*s4types.ObjectContent, error)
}

// FetchingIterator yields the content of each record of a KeyIterator.
// Only the record a call returns is retrieved; skipped records are not.
// Callers must close the Body of every returned content.
type FetchingIterator struct {
	keys   *KeyIterator
	getter ObjectGetter
	bucket string
}

// NewFetchingIterator wraps keys, retrieving records from bucket with getter.
func NewFetchingIterator(keys *KeyIterator, getter ObjectGetter, bucket string) *FetchingIterator {
	return &FetchingIterator{
		keys:   keys,
		getter: getter,
		bucket: bucket,
	}
}

// Next retrieves the next object, or returns nil once the listing is exhausted.
// A failed retrieval does not halt the iterator; the following call moves on
// to the next record.
func (it *FetchingIterator) Next(ctx context.Context) (*s4types.ObjectContent, error) {
	obj, err := it.keys.Next(ctx)
	if err != nil || obj == nil {
		return nil, err
	}
	return it.retrieve(ctx, obj)
}

// AdvanceBy skips n records without retrieving them and retrieves the next one.
func (it *FetchingIterator) AdvanceBy(ctx context.Context, n int) (*s4types.ObjectContent, error) {
	obj, err := it.keys.AdvanceBy(ctx, n)
	if err != nil || obj == nil {
		return nil, err
	}
	return it.retrieve(ctx, obj)
}

// Count returns the number of remaining records without retrieving any of them.
func (it *FetchingIterator) Count(ctx context.Context) (int, error) {
	return it.keys.Count(ctx)
}

// Last drains the listing and retrieves only its final record.
func (it *FetchingIterator) Last(ctx context.Context) (*s4types.ObjectContent, error) {
	obj, err := it.keys.Last(ctx)
	if err != nil || obj == nil {
		return nil, err
	}
	return it.retrieve(ctx, obj)
}

// Keys returns the underlying key iterator.
func (it *FetchingIterator) Keys() *KeyIterator {
	return it.keys
}

func (it *FetchingIterator) retrieve(ctx context.Context, obj *s4types.Object) (*s4types.ObjectContent, error) {
	if obj.Key == "" {
		return nil, s4errors.NewObjectError("iterate", s4errors.CodeProtocolViolation, it.bucket, "", errMissingKey)
	}

	content, err := it.getter.Open(ctx, it.bucket, obj.Key)
	if err != nil {
		return nil, s4errors.NewObjectError("iterate", s4errors.CodeRetrievalFailed, it.bucket, obj.Key, err)
	}
	content.Object = *obj
	return content, nil
}
