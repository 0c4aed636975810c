package state

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"

	serrors "github.com/sipa-dev/sipa/internal/errors"
)

// fakeS3 is an in-memory bucket. It pages listings two keys at a time.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := aws.ToString(in.Bucket) + "/"
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, bucket+aws.ToString(in.Prefix)) {
			keys = append(keys, strings.TrimPrefix(k, bucket))
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start = sort.SearchStrings(keys, tok)
	}
	end := start + 2
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Backend(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.objects["bucket/other/x"] = []byte{0xc0}
	st := newStore(NewS3Backend(fake, "bucket", "sipa/"))

	for _, k := range []string{"c", "a", "e", "b", "d"} {
		if err := st.Set(ctx, Persistent, k, k+"!"); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if _, ok := fake.objects["bucket/sipa/a"]; !ok {
		t.Error("objects should be written under the prefix")
	}

	keys, err := st.Keys(ctx, Persistent)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, keys); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}

	var s string
	if ok, err := st.Get(ctx, Persistent, "d", &s); !ok || err != nil || s != "d!" {
		t.Errorf("Get = %q, %v, %v", s, ok, err)
	}
	if ok, err := st.Get(ctx, Persistent, "zz", &s); ok || err != nil {
		t.Errorf("missing Get = %v, %v", ok, err)
	}

	if err := st.Clear(ctx, Persistent); err != nil {
		t.Fatal(err)
	}
	if len(fake.objects) != 1 {
		t.Errorf("Clear should only touch the prefix, left %d objects", len(fake.objects))
	}
}

func TestS3BackendFailure(t *testing.T) {
	fake := newFakeS3()
	fake.fail = errors.New("access denied")
	st := newStore(NewS3Backend(fake, "bucket", ""))

	err := st.Set(context.Background(), Persistent, "k", 1)
	if serrors.Code(err) != "S303" || !errors.Is(err, fake.fail) {
		t.Errorf("Set err = %v", err)
	}
}
