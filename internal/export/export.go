// Package export produces the downloadable form of a generated connector
// configuration, optionally sealed for an age recipient.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"filippo.io/age"
)

var (
	// ErrEmptyConfig is returned when there is nothing to export.
	ErrEmptyConfig = errors.New("no configuration to export")
	// ErrNoRecipient is returned when sealing without a configured recipient.
	ErrNoRecipient = errors.New("no recipient configured for sealing")
	// ErrInvalidKey is returned when a key is invalid.
	ErrInvalidKey = errors.New("invalid key format")
	// ErrDecryptionFailed is returned when a sealed file cannot be opened.
	ErrDecryptionFailed = errors.New("decryption failed")
)

const (
	ContentTypeYAML   = "application/yaml"
	ContentTypeSealed = "application/octet-stream"
)

// File is a ready-to-serve download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sealer renders configuration downloads. With a recipient configured every
// download is an age-encrypted file; otherwise it is plain YAML.
type Sealer struct {
	recipient *age.X25519Recipient
	logger    *slog.Logger
}

// NewSealer creates a Sealer. An empty recipient disables sealing.
func NewSealer(recipient string, logger *slog.Logger) (*Sealer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sealer{logger: logger}

	if recipient != "" {
		r, err := age.ParseX25519Recipient(recipient)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid recipient: %v", ErrInvalidKey, err)
		}
		s.recipient = r
	}
	return s, nil
}

// Sealing reports whether downloads are encrypted.
func (s *Sealer) Sealing() bool {
	return s.recipient != nil
}

// Recipient returns the configured recipient, or empty if not configured.
func (s *Sealer) Recipient() string {
	if s.recipient == nil {
		return ""
	}
	return s.recipient.String()
}

// Export renders config as a download named after the connector.
func (s *Sealer) Export(connector, config string) (*File, error) {
	if config == "" {
		return nil, ErrEmptyConfig
	}

	name := Filename(connector)
	if s.recipient == nil {
		return &File{Name: name, ContentType: ContentTypeYAML, Data: []byte(config)}, nil
	}

	sealed, err := s.Seal([]byte(config))
	if err != nil {
		return nil, err
	}
	return &File{Name: name + ".age", ContentType: ContentTypeSealed, Data: sealed}, nil
}

// Seal encrypts plaintext for the configured recipient.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	if s.recipient == nil {
		return nil, ErrNoRecipient
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipient)
	if err != nil {
		s.logger.Error("failed to create age encryptor", "error", err)
		return nil, fmt.Errorf("sealing: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("sealing: %w", err)
	}

	return buf.Bytes(), nil
}

// Open decrypts a sealed download with an age identity (AGE-SECRET-KEY-1...).
func Open(sealed []byte, identity string) ([]byte, error) {
	id, err := age.ParseX25519Identity(identity)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid identity: %v", ErrInvalidKey, err)
	}

	r, err := age.Decrypt(bytes.NewReader(sealed), id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// GenerateKeyPair generates an age key pair: the recipient to configure for
// sealing and the identity that opens the downloads.
func GenerateKeyPair() (recipient, identity string, err error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate age key pair: %w", err)
	}
	return id.Recipient().String(), id.String(), nil
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9_-]+`)

// Filename turns a connector name into a YAML file name.
func Filename(connector string) string {
	name := unsafeFilename.ReplaceAllString(strings.ToLower(strings.TrimSpace(connector)), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "connector"
	}
	return name + ".yaml"
}
