// Package toolchain turns a toolchain reference into a local path the
// compiler registry can probe.
package toolchain

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/jlaffaye/ftp"
	"github.com/ulikunitz/xz"
)

var (
	ErrUnsupportedScheme  = errors.New("unsupported toolchain scheme")
	ErrUnsupportedArchive = errors.New("unsupported toolchain archive")
	ErrNoBinDir           = errors.New("no bin directory in toolchain archive")
)

// Locator resolves references of the forms:
//
//	http(s)://host/tc.tar.xz  download, extract, first bin/ dir
//	ftp://host/tc.tar.gz      same, anonymous unless the URL carries a user
//	file:///opt/tc/bin        literal path
//	/opt/tc/bin, gcc          path or PATH lookup
type Locator struct {
	// Dir receives downloads and extracted trees.
	Dir      string
	Client   *http.Client
	LookPath func(file string) (string, error)
	Logger   *slog.Logger
}

func (l Locator) Locate(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty toolchain reference")
	}
	scheme, rest, hasScheme := strings.Cut(ref, "://")
	if !hasScheme {
		return l.lookup(ref)
	}
	switch strings.ToLower(scheme) {
	case "http", "https", "ftp":
		return l.download(ctx, ref)
	case "file":
		if _, err := os.Stat(rest); err != nil {
			return "", fmt.Errorf("toolchain %s: %w", ref, err)
		}
		return rest, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
}

func (l Locator) lookup(ref string) (string, error) {
	if strings.ContainsRune(ref, os.PathSeparator) {
		if _, err := os.Stat(ref); err != nil {
			return "", fmt.Errorf("toolchain %s: %w", ref, err)
		}
		return ref, nil
	}
	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	found, err := lookPath(ref)
	if err != nil {
		return "", fmt.Errorf("toolchain %s: %w", ref, err)
	}
	return found, nil
}

func (l Locator) download(ctx context.Context, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("toolchain url: %w", err)
	}
	name := path.Base(u.Path)
	kind, err := archiveKind(name)
	if err != nil {
		return "", err
	}
	if l.Dir == "" {
		return "", errors.New("toolchain dir not set")
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", err
	}

	l.logger().Info("downloading toolchain", "url", u.Redacted(), "dir", l.Dir)
	var body io.ReadCloser
	if strings.EqualFold(u.Scheme, "ftp") {
		body, err = retrieveFTP(ctx, u)
	} else {
		body, err = l.get(ctx, ref)
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", u.Redacted(), err)
	}
	defer body.Close()

	r, err := decompress(kind, body)
	if err != nil {
		return "", fmt.Errorf("decompress %s: %w", name, err)
	}
	if err := Extract(r, l.Dir); err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	return FindBinDir(l.Dir)
}

func (l Locator) get(ctx context.Context, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return resp.Body, nil
}

// ftpResponse closes the control connection along with the transfer.
type ftpResponse struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (r ftpResponse) Close() error {
	err := r.Response.Close()
	if qerr := r.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

func retrieveFTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	user, pass := ftpLogin(u)
	conn, err := ftp.Dial(ftpAddr(u), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, err
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login: %w", err)
	}
	resp, err := conn.Retr(u.Path)
	if err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("retr %s: %w", u.Path, err)
	}
	return ftpResponse{Response: resp, conn: conn}, nil
}

func ftpAddr(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	return u.Hostname() + ":21"
}

func ftpLogin(u *url.URL) (string, string) {
	if u.User == nil || u.User.Username() == "" {
		return "anonymous", "anonymous"
	}
	pass, _ := u.User.Password()
	return u.User.Username(), pass
}

func (l Locator) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

type compression int

const (
	compressNone compression = iota
	compressGzip
	compressXZ
)

// archiveKind maps an archive name to its compression, or an error for
// archive types that cannot be unpacked.
func archiveKind(name string) (compression, error) {
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return compressGzip, nil
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return compressXZ, nil
	case strings.HasSuffix(name, ".tar"):
		return compressNone, nil
	default:
		return compressNone, fmt.Errorf("%w: %s", ErrUnsupportedArchive, name)
	}
}

func decompress(kind compression, r io.Reader) (io.Reader, error) {
	switch kind {
	case compressGzip:
		return gzip.NewReader(r)
	case compressXZ:
		return xz.NewReader(r)
	default:
		return r, nil
	}
}

// Extract unpacks a tar stream into dir. Entries and symlink targets
// escaping dir are refused.
func Extract(r io.Reader, dir string) error {
	root := filepath.Clean(dir) + string(os.PathSeparator)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(dir, hdr.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("entry %q escapes %s", hdr.Name, dir)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("symlink %q points to absolute %q", hdr.Name, hdr.Linkname)
			}
			if link := filepath.Join(filepath.Dir(target), hdr.Linkname); link != filepath.Clean(dir) && !strings.HasPrefix(link, root) {
				return fmt.Errorf("symlink %q target %q escapes %s", hdr.Name, hdr.Linkname, dir)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func writeFile(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FindBinDir returns the first directory named bin under root in lexical
// walk order.
func FindBinDir(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == "bin" {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrNoBinDir, root)
	}
	return found, nil
}
