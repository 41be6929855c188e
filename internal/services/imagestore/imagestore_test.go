package imagestore_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"recipebox/internal/config"
	"recipebox/internal/services"
	"recipebox/internal/services/imagestore"
	"recipebox/internal/testsupport"
)

type fakeObjects struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []string
	err     error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestEncodeAndParseDataURI(t *testing.T) {
	uri, err := imagestore.EncodeDataURI(testsupport.PNGBytes())
	if err != nil {
		t.Fatalf("EncodeDataURI: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected uri prefix: %q", uri[:30])
	}
	img, err := imagestore.ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if img.MIME != "image/png" || img.Extension != ".png" {
		t.Fatalf("unexpected sniff result %q %q", img.MIME, img.Extension)
	}
}

func TestParseDataURIRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"no prefix":   "image/png;base64,AAAA",
		"no comma":    "data:image/png;base64",
		"not base64":  "data:image/png,hello",
		"bad payload": "data:image/png;base64,!!!",
		"not image":   "data:image/png;base64,aGVsbG8gd29ybGQ=",
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := imagestore.ParseDataURI(uri); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUploadUsesPrefixAndPublicBase(t *testing.T) {
	fake := &fakeObjects{}
	store := imagestore.NewWithClient(fake, config.Images{
		Bucket:        "photos",
		Region:        "eu-central-1",
		Prefix:        "recipes",
		PublicBaseURL: "https://cdn.example.com/",
	}, nil)

	link, err := store.Upload(context.Background(), "r1", testsupport.PNGDataURI())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(fake.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(fake.puts))
	}
	key := *fake.puts[0].Key
	if !strings.HasPrefix(key, "recipes/r1/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	if *fake.puts[0].ContentType != "image/png" {
		t.Fatalf("unexpected content type %q", *fake.puts[0].ContentType)
	}
	if string(fake.bodies[0]) != string(testsupport.PNGBytes()) {
		t.Fatal("uploaded body differs from decoded image")
	}
	if link != "https://cdn.example.com/"+key {
		t.Fatalf("unexpected link %q", link)
	}
	if got := store.ObjectKeyFromLink(link); got != key {
		t.Fatalf("ObjectKeyFromLink = %q, want %q", got, key)
	}
	if err := store.Delete(context.Background(), link); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(context.Background(), "https://elsewhere.example.com/x.png"); err != nil {
		t.Fatalf("Delete foreign: %v", err)
	}
	if len(fake.deletes) != 1 || fake.deletes[0] != key {
		t.Fatalf("unexpected deletes %v", fake.deletes)
	}
}

func TestPublicURLFallbacks(t *testing.T) {
	aws := imagestore.NewWithClient(&fakeObjects{}, config.Images{Bucket: "b", Region: "us-east-1"}, nil)
	if got := aws.PublicURL("k/x.png"); got != "https://b.s3.us-east-1.amazonaws.com/k/x.png" {
		t.Fatalf("unexpected aws url %q", got)
	}
	minio := imagestore.NewWithClient(&fakeObjects{}, config.Images{Bucket: "b", Endpoint: "http://minio:9000/"}, nil)
	if got := minio.PublicURL("k/x.png"); got != "http://minio:9000/b/k/x.png" {
		t.Fatalf("unexpected endpoint url %q", got)
	}
}

func TestUploadFailureIsExternal(t *testing.T) {
	store := imagestore.NewWithClient(&fakeObjects{err: errors.New("boom")}, config.Images{Bucket: "b", Region: "r"}, nil)
	if _, err := store.Upload(context.Background(), "r1", testsupport.PNGDataURI()); !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestNewDisabledReturnsNil(t *testing.T) {
	store, err := imagestore.New(context.Background(), config.Images{}, nil)
	if err != nil || store != nil {
		t.Fatalf("expected nil store when disabled, got %v %v", store, err)
	}
}

type headingObjects struct {
	fakeObjects
	headErr error
	bucket  string
}

func (h *headingObjects) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	h.bucket = *in.Bucket
	return &s3.HeadBucketOutput{}, h.headErr
}

func TestCheckBucket(t *testing.T) {
	cfg := config.Images{S3Enabled: true, Bucket: "recipes", Region: "eu-central-1"}

	plain := imagestore.NewWithClient(&fakeObjects{}, cfg, nil)
	if err := plain.CheckBucket(context.Background()); err != nil {
		t.Fatalf("expected clients without HeadBucket to pass, got %v", err)
	}

	ok := &headingObjects{}
	if err := imagestore.NewWithClient(ok, cfg, nil).CheckBucket(context.Background()); err != nil {
		t.Fatalf("CheckBucket: %v", err)
	}
	if ok.bucket != "recipes" {
		t.Fatalf("expected head on configured bucket, got %q", ok.bucket)
	}

	failing := &headingObjects{headErr: errors.New("forbidden")}
	err := imagestore.NewWithClient(failing, cfg, nil).CheckBucket(context.Background())
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}
