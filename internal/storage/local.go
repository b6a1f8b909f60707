package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Local stores objects on the local filesystem under a base directory.
// Object paths use forward slashes regardless of platform.
type Local struct {
	baseDir    string
	publicBase string // URL prefix objects are served under, e.g. "/files"
	signer     *Signer
}

func NewLocal(baseDir, publicBase string, signer *Signer) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{
		baseDir:    baseDir,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		signer:     signer,
	}, nil
}

// resolve maps an object path to an absolute filesystem path, rejecting
// anything that would escape the base directory.
func (l *Local) resolve(path string) (string, error) {
	if path == "" || strings.Contains(path, "\x00") {
		return "", ErrInvalidPath
	}
	abs := filepath.Join(l.baseDir, filepath.FromSlash(path))
	base, err := filepath.Abs(l.baseDir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.Abs(abs)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(resolved, base+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return resolved, nil
}

func (l *Local) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	dst, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(abs) // do not leave a truncated object behind
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(abs)
		return "", fmt.Errorf("close object: %w", err)
	}
	return l.publicBase + "/" + path, nil
}

func (l *Local) Get(ctx context.Context, path string) (io.ReadCloser, *ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	abs, err := l.resolve(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, &ObjectInfo{Key: path, Size: stat.Size(), LastModified: stat.ModTime()}, nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (l *Local) SignedURL(ctx context.Context, path string, ttl time.Duration) (SignedLink, error) {
	if err := ctx.Err(); err != nil {
		return SignedLink{}, err
	}
	if _, err := l.resolve(path); err != nil {
		return SignedLink{}, err
	}
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	token, expiresAt, err := l.signer.Sign(path, ttl)
	if err != nil {
		return SignedLink{}, fmt.Errorf("sign url: %w", err)
	}
	return SignedLink{
		URL:       l.publicBase + "/" + path + "?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt,
	}, nil
}

func (l *Local) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var objects []ObjectInfo
	err := filepath.WalkDir(l.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(l.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

// VerifyToken checks a download token against an object path.
func (l *Local) VerifyToken(token, path string) error {
	return l.signer.Verify(token, path)
}
