package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3 keeps objects in a map; unimplemented methods panic via the nil
// embedded interface.
type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = b
	f.types[*in.Key] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	s := NewS3StoreWithClient(fake, "tka-assets", "https://cdn.example.test/")

	key, err := s.Put(ctx, "questions/abc.jpg", bytes.NewBufferString("jpeg"))
	if err != nil {
		t.Fatal(err)
	}
	if fake.types[key] != "image/jpeg" {
		t.Fatalf("expected image/jpeg content type, got %q", fake.types[key])
	}
	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "jpeg" {
		t.Fatalf("unexpected body %q", b)
	}
	if u := s.URL(key); u != "https://cdn.example.test/questions/abc.jpg" {
		t.Fatalf("unexpected url %q", u)
	}

	if _, err := s.Get(ctx, "questions/none.jpg"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
	if _, err := s.Put(ctx, "../x", bytes.NewBufferString("x")); !errors.Is(err, ErrBadKey) {
		t.Fatalf("expected ErrBadKey, got %v", err)
	}
}
