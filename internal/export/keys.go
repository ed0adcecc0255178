// Package export writes found key pairs to disk in OpenSSH file layout.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"ssh-vanity/internal/domain"
)

const (
	PrivateKeyFile = "id_ed25519"
	PublicKeyFile  = "id_ed25519.pub"
)

// Result lists the files written for one key pair.
type Result struct {
	Dir            string `json:"dir"`
	PrivateKeyPath string `json:"privateKeyPath"`
	PublicKeyPath  string `json:"publicKeyPath"`
}

// ExportError reports which file could not be written.
type ExportError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats export failures for logs and UI.
func (e *ExportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Path)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ExportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Exporter writes key files. Filesystem calls are injectable for tests.
type Exporter struct {
	mkdirAll  func(string, os.FileMode) error
	writeFile func(string, []byte, os.FileMode) error
	chmod     func(string, os.FileMode) error
}

// NewExporter constructs an exporter backed by the OS.
func NewExporter() *Exporter {
	return &Exporter{
		mkdirAll:  os.MkdirAll,
		writeFile: os.WriteFile,
		chmod:     os.Chmod,
	}
}

// Save validates pair and writes id_ed25519 (0600) and id_ed25519.pub (0644)
// into dir, replacing existing files.
func (e *Exporter) Save(dir string, pair domain.KeyPair) (Result, error) {
	if strings.TrimSpace(dir) == "" {
		return Result{}, &ExportError{Message: "save folder is required"}
	}
	if err := Verify(pair); err != nil {
		return Result{}, &ExportError{Message: "key pair is not valid", Err: err}
	}
	if err := e.mkdirAll(dir, 0o700); err != nil {
		return Result{}, &ExportError{Path: dir, Message: "cannot create save folder", Err: err}
	}

	res := Result{
		Dir:            dir,
		PrivateKeyPath: filepath.Join(dir, PrivateKeyFile),
		PublicKeyPath:  filepath.Join(dir, PublicKeyFile),
	}
	if err := e.write(res.PrivateKeyPath, withNewline(pair.PrivateKey), 0o600); err != nil {
		return Result{}, err
	}
	if err := e.write(res.PublicKeyPath, withNewline(pair.PublicKey), 0o644); err != nil {
		return Result{}, err
	}
	return res, nil
}

// write creates or truncates path and forces its mode, since WriteFile keeps
// the mode of a file that already exists.
func (e *Exporter) write(path, content string, perm os.FileMode) error {
	if err := e.writeFile(path, []byte(content), perm); err != nil {
		return &ExportError{Path: path, Message: "cannot write key file", Err: err}
	}
	if err := e.chmod(path, perm); err != nil {
		return &ExportError{Path: path, Message: "cannot set key file permissions", Err: err}
	}
	return nil
}

// Verify checks both halves parse and describe the same key.
func Verify(pair domain.KeyPair) error {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(pair.PublicKey))
	if err != nil {
		return fmt.Errorf("public key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey([]byte(pair.PrivateKey))
	if err != nil {
		return fmt.Errorf("private key: %w", err)
	}
	if string(pub.Marshal()) != string(signer.PublicKey().Marshal()) {
		return errors.New("public key does not belong to private key")
	}
	return nil
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// NewExporterForTests creates an exporter with injectable dependencies.
func NewExporterForTests(
	mkdirAll func(string, os.FileMode) error,
	writeFile func(string, []byte, os.FileMode) error,
	chmod func(string, os.FileMode) error,
) *Exporter {
	return &Exporter{
		mkdirAll:  mkdirAll,
		writeFile: writeFile,
		chmod:     chmod,
	}
}
