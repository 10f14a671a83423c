package assets

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver("https://cdn.example/")
	tests := []struct {
		name    string
		folder  Folder
		object  string
		want    string
		wantErr bool
	}{
		{name: "event photo", folder: Events, object: "2.jpg", want: "https://cdn.example/events/2.jpg"},
		{name: "escaped", folder: Events, object: "my photo.jpg", want: "https://cdn.example/events/my%20photo.jpg"},
		{name: "nested", folder: Users, object: "7/avatar.png", want: "https://cdn.example/users/7/avatar.png"},
		{name: "default avatar", folder: Users, object: "", want: "https://cdn.example/users/default.png"},
		{name: "empty event photo", folder: Events, object: "", wantErr: true},
		{name: "traversal", folder: Events, object: "../secret", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.URL(context.Background(), tt.folder, tt.object)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("URL = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
	if _, err := r.URL(context.Background(), Events, ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}
}

func newTestS3(t *testing.T) *S3Resolver {
	t.Helper()
	cfg := aws.Config{
		Region: "eu-north-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	}
	return NewS3ResolverFromConfig(cfg, "eventum")
}

func TestS3ResolverPresigns(t *testing.T) {
	r := newTestS3(t).WithURLExpiry(10 * time.Minute)

	raw, err := r.URL(context.Background(), Events, "2.jpg")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(u.Host+u.Path, "eventum") || !strings.HasSuffix(u.Path, "/events/2.jpg") {
		t.Errorf("url = %s", raw)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "600" || q.Get("X-Amz-Signature") == "" {
		t.Errorf("query = %v", q)
	}

	again, _ := r.URL(context.Background(), Events, "2.jpg")
	if again != raw {
		t.Error("second lookup should reuse the cached URL")
	}
}

type countingPresigner struct {
	calls int
	err   error
}

func (p *countingPresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://signed/" + aws.ToString(in.Key)}, nil
}

func TestS3ResolverCacheExpiry(t *testing.T) {
	p := &countingPresigner{}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &S3Resolver{presigner: p, bucket: "b", expiry: 5 * time.Minute, cache: newURLCache()}
	r.cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := r.URL(context.Background(), Users, ""); err != nil {
			t.Fatal(err)
		}
	}
	if p.calls != 1 {
		t.Errorf("presign calls = %d, want 1", p.calls)
	}

	now = now.Add(4 * time.Minute)
	if n := r.Prune(); n != 0 {
		t.Errorf("Prune left %d entries", n)
	}
	got, _ := r.URL(context.Background(), Users, "")
	if p.calls != 2 || got != "https://signed/users/default.png" {
		t.Errorf("calls = %d, url = %q", p.calls, got)
	}
}

func TestS3ResolverError(t *testing.T) {
	boom := errors.New("no credentials")
	r := &S3Resolver{presigner: &countingPresigner{err: boom}, bucket: "b", expiry: time.Minute, cache: newURLCache()}
	if _, err := r.URL(context.Background(), Events, "x.png"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
