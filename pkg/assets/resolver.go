// Package assets turns stored photo names into URLs.
//
// Event photos and avatars are stored by name under a folder ("events",
// "users"). A StaticResolver joins them onto a public base URL; an
// S3Resolver hands out presigned GET URLs for a private bucket:
//
//	r := assets.NewStaticResolver("https://eventum.s3.eu-north-1.amazonaws.com")
//	src, _ := r.URL(ctx, assets.Events, "2.jpg")
//	// https://eventum.s3.eu-north-1.amazonaws.com/events/2.jpg
package assets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Folder is a top-level storage folder.
type Folder string

const (
	Events Folder = "events"
	Users  Folder = "users"
	App    Folder = "app"
)

// DefaultAvatar is served for users without an avatar.
const DefaultAvatar = "default.png"

// ErrEmptyName is returned for an empty name outside Users.
var ErrEmptyName = errors.New("assets: empty object name")

// Resolver resolves a stored object to a URL a browser can load.
type Resolver interface {
	URL(ctx context.Context, folder Folder, name string) (string, error)
}

// objectKey validates name and returns folder/name.
func objectKey(folder Folder, name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	if name == "" {
		if folder != Users {
			return "", fmt.Errorf("%w in %s", ErrEmptyName, folder)
		}
		name = DefaultAvatar
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("assets: invalid object name %q", name)
	}
	return string(folder) + "/" + name, nil
}

// StaticResolver serves objects from a public base URL.
type StaticResolver struct {
	base string
}

// NewStaticResolver creates a resolver rooted at base.
func NewStaticResolver(base string) *StaticResolver {
	return &StaticResolver{base: strings.TrimRight(base, "/")}
}

// URL implements Resolver.
func (r *StaticResolver) URL(_ context.Context, folder Folder, name string) (string, error) {
	key, err := objectKey(folder, name)
	if err != nil {
		return "", err
	}
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return r.base + "/" + strings.Join(segments, "/"), nil
}
