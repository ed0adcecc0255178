package keygen

import (
	"crypto/ed25519"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"ssh-vanity/internal/domain"
)

// Candidate renders one generated ed25519 key in the searchable formats.
// Renderings are computed on first use and cached, so a matched private key
// is returned exactly as it was searched.
type Candidate struct {
	priv ed25519.PrivateKey
	blob []byte

	publicKey  string
	privateKey string
}

// NewCandidate derives the key pair for a 32-byte seed.
func NewCandidate(seed []byte) (*Candidate, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed length %d, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub, err := ssh.NewPublicKey(priv.Public())
	if err != nil {
		return nil, fmt.Errorf("wrap public key: %w", err)
	}
	return &Candidate{priv: priv, blob: pub.Marshal()}, nil
}

// PublicKey returns the authorized_keys line without comment or newline.
func (c *Candidate) PublicKey() string {
	if c.publicKey == "" {
		c.publicKey = "ssh-ed25519 " + base64.StdEncoding.EncodeToString(c.blob)
	}
	return c.publicKey
}

// PrivateKey returns the unencrypted OpenSSH PEM encoding.
func (c *Candidate) PrivateKey() (string, error) {
	if c.privateKey != "" {
		return c.privateKey, nil
	}
	block, err := ssh.MarshalPrivateKey(c.priv, "")
	if err != nil {
		return "", fmt.Errorf("marshal private key: %w", err)
	}
	c.privateKey = string(pem.EncodeToMemory(block))
	return c.privateKey, nil
}

// Fingerprint returns the unpadded base64 digest of the public key blob.
func (c *Candidate) Fingerprint(field domain.Field) (string, error) {
	var sum []byte
	switch field {
	case domain.FieldSha1Fingerprint:
		d := sha1.Sum(c.blob)
		sum = d[:]
	case domain.FieldSha256Fingerprint:
		d := sha256.Sum256(c.blob)
		sum = d[:]
	case domain.FieldSha384Fingerprint:
		d := sha512.Sum384(c.blob)
		sum = d[:]
	case domain.FieldSha512Fingerprint:
		d := sha512.Sum512(c.blob)
		sum = d[:]
	default:
		return "", fmt.Errorf("%q is not a fingerprint field", field)
	}
	return base64.RawStdEncoding.EncodeToString(sum), nil
}

// Render returns the text searched for field.
func (c *Candidate) Render(field domain.Field) (string, error) {
	switch field {
	case domain.FieldPublicKey:
		return c.PublicKey(), nil
	case domain.FieldPrivateKey:
		return c.PrivateKey()
	default:
		return c.Fingerprint(field)
	}
}

// KeyPair returns both OpenSSH renderings.
func (c *Candidate) KeyPair() (*domain.KeyPair, error) {
	private, err := c.PrivateKey()
	if err != nil {
		return nil, err
	}
	return &domain.KeyPair{PublicKey: c.PublicKey(), PrivateKey: private}, nil
}

// FingerprintLabel formats a fingerprint the way ssh-keygen -l prints it.
func FingerprintLabel(field domain.Field, digest string) string {
	name := strings.TrimSuffix(string(field), "-fingerprint")
	return strings.ToUpper(name) + ":" + digest
}
