package configs

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// AESPasswordEnv names the environment variable holding the hex-encoded
// 32-byte key used to decrypt remote configuration documents.
const AESPasswordEnv = "NG_AES_PASSWORD"

// LoadRemote fetches an encrypted configuration document, decrypts it and
// merges the shared block with the block named after the running
// executable. The wire format is two base64 lines: the CBC initialization
// vector, then the ciphertext.
func LoadRemote(ctx context.Context, url string) (*Manager, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building remote config request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching remote config from %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("remote config fetch returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading remote config body")
	}

	plaintext, err := decryptPayload(payload)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing decrypted remote config")
	}

	merged := mergeForExecutable(doc, executableName())
	applyEnvOverrides(merged, os.Environ())

	m := &Manager{source: "remote:" + url}
	m.current.Store(merged)
	return m, nil
}

// decryptPayload decodes the two-line base64 envelope and applies
// AES-256-CBC with PKCS#7 padding removal.
func decryptPayload(payload []byte) ([]byte, error) {
	lines := strings.SplitN(strings.TrimSpace(string(payload)), "\n", 2)
	if len(lines) != 2 {
		return nil, errors.New("remote config payload must contain IV and ciphertext lines")
	}

	iv, err := base64.StdEncoding.DecodeString(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, errors.Wrap(err, "decoding IV")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, errors.Wrap(err, "decoding ciphertext")
	}

	keyHex := os.Getenv(AESPasswordEnv)
	if keyHex == "" {
		return nil, errors.Newf("%s is not set", AESPasswordEnv)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", AESPasswordEnv)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "initializing cipher")
	}
	if len(iv) != block.BlockSize() {
		return nil, errors.Newf("IV length %d does not match block size %d", len(iv), block.BlockSize())
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, errors.New("ciphertext length is not a multiple of the block size")
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return stripPKCS7(plaintext, block.BlockSize())
}

func stripPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad < 1 || pad > blockSize || pad > len(data) {
		return nil, errors.New("invalid padding")
	}
	if !bytes.Equal(data[len(data)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return nil, errors.New("invalid padding")
	}
	return data[:len(data)-pad], nil
}

// mergeForExecutable overlays the per-executable block on top of the
// shared commonAll block. Keys in the executable block win.
func mergeForExecutable(doc map[string]any, executable string) map[string]any {
	merged := map[string]any{}
	if common, ok := doc["commonAll"].(map[string]any); ok {
		for k, v := range common {
			merged[k] = v
		}
	}
	if own, ok := doc[executable].(map[string]any); ok {
		for k, v := range own {
			merged[k] = v
		}
	}
	return merged
}

func executableName() string {
	path, err := os.Executable()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
