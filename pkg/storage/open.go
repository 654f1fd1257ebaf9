package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// Open returns the store addressed by uri:
//
//	/var/lib/koe/out            local directory
//	file:///var/lib/koe/out     local directory
//	s3://bucket/prefix          S3 bucket, optional key prefix
//
// S3 URIs accept region, endpoint and path_style=true query parameters.
func Open(uri string) (FileStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("storage: empty uri")
	}
	if !strings.Contains(uri, "://") {
		return NewLocal(uri)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("storage: parse %q: %w", uri, err)
	}
	switch u.Scheme {
	case "file":
		return NewLocal(u.Path)
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("storage: %q has no bucket", uri)
		}
		q := u.Query()
		client := NewS3Client(S3Config{
			Region:    q.Get("region"),
			Endpoint:  q.Get("endpoint"),
			PathStyle: q.Get("path_style") == "true",
		})
		return NewS3(client, u.Host, strings.Trim(u.Path, "/")), nil
	}
	return nil, fmt.Errorf("storage: unsupported scheme %q", u.Scheme)
}
