package offline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ResolveManifest resolves manifest paths against the directory that holds the
// worker script, so the application keeps working when deployed under a sub-path.
// Absolute paths and full URLs are rejected. Duplicates are dropped, order is kept.
func ResolveManifest(workerURL string, paths []string) ([]string, error) {
	base, err := manifestBase(workerURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(paths))
	resolved := make([]string, 0, len(paths))
	for _, raw := range paths {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		ref, err := url.Parse(entry)
		if err != nil {
			return nil, ErrInvalidManifest.WithInternal(fmt.Errorf("parse %q: %w", entry, err))
		}
		if ref.IsAbs() || ref.Host != "" || strings.HasPrefix(ref.Path, "/") {
			return nil, ErrInvalidManifest.WithInternal(fmt.Errorf("manifest entry %q must be relative", entry))
		}

		target := base.ResolveReference(ref)
		target.Fragment = ""
		key := target.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		resolved = append(resolved, key)
	}
	return resolved, nil
}

// BaseURL returns the directory of the worker URL that manifest paths are relative to.
func BaseURL(workerURL string) (*url.URL, error) {
	return manifestBase(workerURL)
}

func manifestBase(workerURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(workerURL))
	if err != nil {
		return nil, ErrInvalidManifest.WithInternal(fmt.Errorf("parse worker url: %w", err))
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, ErrInvalidManifest.WithInternal(fmt.Errorf("worker url %q must be absolute", workerURL))
	}

	dir := u.Path
	if dir == "" {
		dir = "/"
	}
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir)
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
	}

	return &url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: dir}, nil
}

// ManifestDigest fingerprints a resolved manifest. A stored snapshot is only reused
// when its digest matches the running configuration.
func ManifestDigest(resolved []string) string {
	sum := sha256.New()
	for _, entry := range resolved {
		sum.Write([]byte(entry))
		sum.Write([]byte{'\n'})
	}
	return hex.EncodeToString(sum.Sum(nil))
}

// RequestKey derives the cache key for a request: method plus the URL without fragment.
func RequestKey(req Request) string {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = "GET"
	}
	target := req.URL
	if u, err := url.Parse(req.URL); err == nil {
		u.Fragment = ""
		u.RawFragment = ""
		target = u.String()
	}
	return method + " " + target
}
