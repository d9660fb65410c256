package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/s3api"
)

// Operation names recorded in FakeS3.Calls.
const (
	OpList           = "ListObjectsV2"
	OpGet            = "GetObject"
	OpPut            = "PutObject"
	OpCreate         = "CreateMultipartUpload"
	OpUploadPart     = "UploadPart"
	OpComplete       = "CompleteMultipartUpload"
	OpAbort          = "AbortMultipartUpload"
	OpListMultiparts = "ListMultipartUploads"
)

// Call is one request received by FakeS3.
type Call struct {
	Op         string
	Bucket     string
	Key        string
	Prefix     string
	UploadID   string
	PartNumber int32
	Size       int64
}

// FakeS3 is an in-memory object store implementing S3API. Listings are in
// lexicographic key order and paged by MaxKeys; multipart uploads are
// assembled on completion. Fault fields inject failures.
type FakeS3 struct {
	mu      sync.Mutex
	buckets map[string]map[string]fakeObject
	uploads map[string]*fakeUpload
	nextID  int
	clock   time.Time

	// Calls logs every request in arrival order.
	Calls []Call

	// ListErr fails the nth ListObjectsV2 call (1-based).
	ListErr map[int]error
	// EmptyPages makes the first n list responses empty pages that still
	// carry a continuation token.
	EmptyPages int
	// GetErr fails GetObject for the given keys.
	GetErr map[string]error
	// CreateErr fails CreateMultipartUpload.
	CreateErr error
	// PartErr fails UploadPart for the given part numbers.
	PartErr map[int32]error
	// CompleteErr fails CompleteMultipartUpload while set.
	CompleteErr error
	// AbortErr fails AbortMultipartUpload.
	AbortErr error

	listCalls int
}

type fakeObject struct {
	data         []byte
	contentType  string
	metadata     map[string]string
	etag         string
	lastModified time.Time
	storageClass types.ObjectStorageClass
}

type fakeUpload struct {
	bucket      string
	key         string
	contentType string
	metadata    map[string]string
	initiated   time.Time
	parts       map[int32][]byte
}

// NewFakeS3 creates a fake with the given empty buckets.
func NewFakeS3(buckets ...string) *FakeS3 {
	f := &FakeS3{
		buckets: make(map[string]map[string]fakeObject),
		uploads: make(map[string]*fakeUpload),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, b := range buckets {
		f.buckets[b] = make(map[string]fakeObject)
	}
	return f
}

// Seed stores objects directly, without recording calls.
func (f *FakeS3) Seed(bucket string, objects map[string][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buckets[bucket] == nil {
		f.buckets[bucket] = make(map[string]fakeObject)
	}
	for key, data := range objects {
		f.buckets[bucket][key] = f.newObject(data, "", nil)
	}
}

// SeedKeys stores empty objects under the given keys.
func (f *FakeS3) SeedKeys(bucket string, keys ...string) {
	objects := make(map[string][]byte, len(keys))
	for _, k := range keys {
		objects[k] = []byte(k)
	}
	f.Seed(bucket, objects)
}

// Object returns a stored object's content.
func (f *FakeS3) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}

// ContentType returns a stored object's content type.
func (f *FakeS3) ContentType(bucket, key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[bucket][key].contentType
}

// OpenUploads returns the number of multipart uploads neither completed nor aborted.
func (f *FakeS3) OpenUploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// CallCount returns how many requests of op were received.
func (f *FakeS3) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// CallsOf returns the requests of op in arrival order.
func (f *FakeS3) CallsOf(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []Call
	for _, c := range f.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

func (f *FakeS3) record(c Call) {
	f.Calls = append(f.Calls, c)
}

func (f *FakeS3) newObject(data []byte, contentType string, metadata map[string]string) fakeObject {
	f.clock = f.clock.Add(time.Second)
	return fakeObject{
		data:         data,
		contentType:  contentType,
		metadata:     metadata,
		etag:         CalculateETag(data),
		lastModified: f.clock,
		storageClass: types.ObjectStorageClassStandard,
	}
}

func (f *FakeS3) bucket(name string) (map[string]fakeObject, error) {
	b, ok := f.buckets[name]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
	}
	return b, nil
}

// ListObjectsV2 returns keys after the continuation token in lexicographic order.
func (f *FakeS3) ListObjectsV2(
	_ context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucketName := aws.ToString(params.Bucket)
	prefix := aws.ToString(params.Prefix)
	f.record(Call{Op: OpList, Bucket: bucketName, Prefix: prefix})
	f.listCalls++
	if err := f.ListErr[f.listCalls]; err != nil {
		return nil, err
	}

	b, err := f.bucket(bucketName)
	if err != nil {
		return nil, err
	}

	startAfter := ""
	if token := aws.ToString(params.ContinuationToken); token != "" {
		if !strings.HasPrefix(token, "~") {
			return nil, APIError("InvalidArgument", "The continuation token provided is incorrect")
		}
		startAfter = strings.TrimPrefix(token, "~")
	}

	if f.EmptyPages > 0 {
		f.EmptyPages--
		return &s3.ListObjectsV2Output{
			Name:                  params.Bucket,
			Prefix:                params.Prefix,
			KeyCount:              aws.Int32(0),
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("~" + startAfter),
		}, nil
	}

	maxKeys := int(aws.ToInt32(params.MaxKeys))
	if maxKeys <= 0 || maxKeys > 1000 {
		maxKeys = 1000
	}

	keys := make([]string, 0, len(b))
	for k := range b {
		if strings.HasPrefix(k, prefix) && k > startAfter {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{
		Name:    params.Bucket,
		Prefix:  params.Prefix,
		MaxKeys: aws.Int32(int32(maxKeys)),
	}
	if len(keys) > maxKeys {
		keys = keys[:maxKeys]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("~" + keys[len(keys)-1])
	}
	for _, k := range keys {
		obj := b[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.data))),
			ETag:         aws.String(obj.etag),
			LastModified: aws.Time(obj.lastModified),
			StorageClass: obj.storageClass,
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

// GetObject returns a stored object.
func (f *FakeS3) GetObject(
	_ context.Context,
	params *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucketName, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	f.record(Call{Op: OpGet, Bucket: bucketName, Key: key})
	if err := f.GetErr[key]; err != nil {
		return nil, err
	}

	b, err := f.bucket(bucketName)
	if err != nil {
		return nil, err
	}
	obj, ok := b[key]
	if !ok {
		return nil, NoSuchKeyError()
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.lastModified),
		Metadata:      obj.metadata,
	}, nil
}

// PutObject stores an object in one call.
func (f *FakeS3) PutObject(
	_ context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	bucketName, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	f.record(Call{Op: OpPut, Bucket: bucketName, Key: key, Size: int64(len(data))})
	b, err := f.bucket(bucketName)
	if err != nil {
		return nil, err
	}
	obj := f.newObject(data, aws.ToString(params.ContentType), params.Metadata)
	b[key] = obj
	return &s3.PutObjectOutput{ETag: aws.String(obj.etag)}, nil
}

// CreateMultipartUpload opens a multipart upload.
func (f *FakeS3) CreateMultipartUpload(
	_ context.Context,
	params *s3.CreateMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucketName, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	f.record(Call{Op: OpCreate, Bucket: bucketName, Key: key})
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if _, err := f.bucket(bucketName); err != nil {
		return nil, err
	}

	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.clock = f.clock.Add(time.Second)
	f.uploads[id] = &fakeUpload{
		bucket:      bucketName,
		key:         key,
		contentType: aws.ToString(params.ContentType),
		metadata:    params.Metadata,
		initiated:   f.clock,
		parts:       make(map[int32][]byte),
	}
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(id),
	}, nil
}

// UploadPart stores one part of an open upload.
func (f *FakeS3) UploadPart(
	_ context.Context,
	params *s3.UploadPartInput,
	_ ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id, number := aws.ToString(params.UploadId), aws.ToInt32(params.PartNumber)
	f.record(Call{
		Op:         OpUploadPart,
		Bucket:     aws.ToString(params.Bucket),
		Key:        aws.ToString(params.Key),
		UploadID:   id,
		PartNumber: number,
		Size:       int64(len(data)),
	})
	if err := f.PartErr[number]; err != nil {
		return nil, err
	}

	up, ok := f.uploads[id]
	if !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("The specified upload does not exist")}
	}
	if number < 1 || number > 10000 {
		return nil, APIError("InvalidArgument", "Part number must be an integer between 1 and 10000")
	}
	up.parts[number] = data
	return &s3.UploadPartOutput{ETag: aws.String(CalculateETag(data))}, nil
}

// CompleteMultipartUpload assembles the listed parts into the object.
func (f *FakeS3) CompleteMultipartUpload(
	_ context.Context,
	params *s3.CompleteMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(params.UploadId)
	f.record(Call{
		Op:       OpComplete,
		Bucket:   aws.ToString(params.Bucket),
		Key:      aws.ToString(params.Key),
		UploadID: id,
	})
	if f.CompleteErr != nil {
		return nil, f.CompleteErr
	}

	up, ok := f.uploads[id]
	if !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("The specified upload does not exist")}
	}
	if params.MultipartUpload == nil || len(params.MultipartUpload.Parts) == 0 {
		return nil, APIError("MalformedXML", "The XML you provided was not well-formed")
	}

	var buf bytes.Buffer
	last := int32(0)
	for _, p := range params.MultipartUpload.Parts {
		number := aws.ToInt32(p.PartNumber)
		if number <= last {
			return nil, APIError("InvalidPartOrder", "The list of parts was not in ascending order")
		}
		data, ok := up.parts[number]
		if !ok || aws.ToString(p.ETag) != CalculateETag(data) {
			return nil, APIError("InvalidPart", "One or more of the specified parts could not be found")
		}
		buf.Write(data)
		last = number
	}

	obj := f.newObject(buf.Bytes(), up.contentType, up.metadata)
	obj.etag = fmt.Sprintf(`"%s-%d"`, strings.Trim(obj.etag, `"`), len(params.MultipartUpload.Parts))
	f.buckets[up.bucket][up.key] = obj
	delete(f.uploads, id)

	return &s3.CompleteMultipartUploadOutput{
		Bucket: params.Bucket,
		Key:    params.Key,
		ETag:   aws.String(obj.etag),
	}, nil
}

// AbortMultipartUpload discards an open upload and its parts.
func (f *FakeS3) AbortMultipartUpload(
	_ context.Context,
	params *s3.AbortMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(params.UploadId)
	f.record(Call{
		Op:       OpAbort,
		Bucket:   aws.ToString(params.Bucket),
		Key:      aws.ToString(params.Key),
		UploadID: id,
	})
	if f.AbortErr != nil {
		return nil, f.AbortErr
	}
	if _, ok := f.uploads[id]; !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("The specified upload does not exist")}
	}
	delete(f.uploads, id)
	return &s3.AbortMultipartUploadOutput{}, nil
}

// ListMultipartUploads lists open uploads in a bucket, ordered by key.
func (f *FakeS3) ListMultipartUploads(
	_ context.Context,
	params *s3.ListMultipartUploadsInput,
	_ ...func(*s3.Options),
) (*s3.ListMultipartUploadsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucketName, prefix := aws.ToString(params.Bucket), aws.ToString(params.Prefix)
	f.record(Call{Op: OpListMultiparts, Bucket: bucketName, Prefix: prefix})
	if _, err := f.bucket(bucketName); err != nil {
		return nil, err
	}

	out := &s3.ListMultipartUploadsOutput{Bucket: params.Bucket, Prefix: params.Prefix}
	for id, up := range f.uploads {
		if up.bucket != bucketName || !strings.HasPrefix(up.key, prefix) {
			continue
		}
		out.Uploads = append(out.Uploads, types.MultipartUpload{
			Key:       aws.String(up.key),
			UploadId:  aws.String(id),
			Initiated: aws.Time(up.initiated),
		})
	}
	sort.Slice(out.Uploads, func(i, j int) bool {
		ki, kj := aws.ToString(out.Uploads[i].Key), aws.ToString(out.Uploads[j].Key)
		if ki != kj {
			return ki < kj
		}
		return aws.ToString(out.Uploads[i].UploadId) < aws.ToString(out.Uploads[j].UploadId)
	})
	return out, nil
}

func readBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return data, nil
}

// Verify that FakeS3 implements S3API
var _ s3api.S3API = (*FakeS3)(nil)
