package skills

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/google/uuid"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// CryptoSkill provides hashing, password generation, Base64 and random tokens.
type CryptoSkill struct{}

// NewCryptoSkill returns the crypto skill.
func NewCryptoSkill() *CryptoSkill { return &CryptoSkill{} }

func (s *CryptoSkill) Name() string        { return "crypto" }
func (s *CryptoSkill) Description() string { return "Crypto: hashing, passwords, encoding, UUIDs" }

type hashInput struct {
	Text      string `json:"text" jsonschema:"description=Text to hash"`
	Algorithm string `json:"algorithm,omitempty" jsonschema:"description=Algorithm: md5, sha1, sha256, sha512 (default: sha256)"`
}

type hashFileInput struct {
	FilePath  string `json:"file_path" jsonschema:"description=Path to file"`
	Algorithm string `json:"algorithm,omitempty" jsonschema:"description=Algorithm: md5, sha1, sha256, sha512"`
}

type passwordInput struct {
	Length           int  `json:"length,omitempty" jsonschema:"description=Password length (default: 16)"`
	IncludeSymbols   bool `json:"include_symbols,omitempty" jsonschema:"description=Include special characters"`
	ExcludeAmbiguous bool `json:"exclude_ambiguous,omitempty" jsonschema:"description=Exclude ambiguous chars (0, O, l, 1)"`
}

type base64EncodeInput struct {
	Text string `json:"text" jsonschema:"description=Text to encode"`
}

type base64DecodeInput struct {
	Encoded string `json:"encoded" jsonschema:"description=Base64 string to decode"`
}

type uuidInput struct {
	Count int `json:"count,omitempty" jsonschema:"description=Number of UUIDs to generate"`
}

type randomBytesInput struct {
	Length int `json:"length,omitempty" jsonschema:"description=Number of random bytes"`
}

func (s *CryptoSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("hash", "Generate hash of text", hashInput{}, s.hashText),
		newTool("hash_file", "Generate hash of a file", hashFileInput{}, s.hashFile),
		newTool("password_generate", "Generate secure random password", passwordInput{}, s.passwordGenerate),
		newTool("base64_encode", "Encode text to Base64", base64EncodeInput{}, s.base64Encode),
		newTool("base64_decode", "Decode Base64 to text", base64DecodeInput{}, s.base64Decode),
		newTool("uuid_generate", "Generate UUID", uuidInput{}, s.uuidGenerate),
		newTool("random_hex", "Generate random hex string", randomBytesInput{}, s.randomHex),
		newTool("random_token", "Generate URL-safe random token", randomBytesInput{}, s.randomToken),
	}
}

// newHasher maps an algorithm name to a hash constructor.
func newHasher(algorithm string) (hash.Hash, string, error) {
	algo := strings.ToLower(algorithm)
	switch algo {
	case "md5":
		return md5.New(), "MD5", nil
	case "sha1":
		return sha1.New(), "SHA1", nil
	case "", "sha256":
		return sha256.New(), "SHA256", nil
	case "sha512":
		return sha512.New(), "SHA512", nil
	default:
		return nil, "", fmt.Errorf("unknown algorithm: %s", algorithm)
	}
}

func (s *CryptoSkill) hashText(args schema.Args) (string, error) {
	h, label, err := newHasher(args.String("algorithm", "sha256"))
	if err != nil {
		return fmt.Sprintf("Unknown algorithm: %s", args.String("algorithm", "")), nil
	}
	h.Write([]byte(args.String("text", "")))
	return fmt.Sprintf("%s: %s", label, hex.EncodeToString(h.Sum(nil))), nil
}

func (s *CryptoSkill) hashFile(args schema.Args) (string, error) {
	path := args.String("file_path", "")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("File not found: %s", path), nil
		}
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h, label, err := newHasher(args.String("algorithm", "sha256"))
	if err != nil {
		return fmt.Sprintf("Unknown algorithm: %s", args.String("algorithm", "")), nil
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return fmt.Sprintf("%s: %s", label, hex.EncodeToString(h.Sum(nil))), nil
}

const (
	passwordLetters   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordSymbols   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	ambiguousChars    = "0O1lI"
	defaultPassLength = 16
)

func (s *CryptoSkill) passwordGenerate(args schema.Args) (string, error) {
	length := args.Int("length", defaultPassLength)
	if length <= 0 {
		// Zero length is a valid request for an empty password.
		return "", nil
	}

	chars := passwordLetters
	if args.Bool("include_symbols", true) {
		chars += passwordSymbols
	}
	if args.Bool("exclude_ambiguous", false) {
		for _, c := range ambiguousChars {
			chars = strings.ReplaceAll(chars, string(c), "")
		}
	}

	var b strings.Builder
	max := big.NewInt(int64(len(chars)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b.WriteByte(chars[n.Int64()])
	}
	return b.String(), nil
}

func (s *CryptoSkill) base64Encode(args schema.Args) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(args.String("text", ""))), nil
}

func (s *CryptoSkill) base64Decode(args schema.Args) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(args.String("encoded", ""))
	if err != nil {
		return "", fmt.Errorf("invalid Base64: %w", err)
	}
	return string(decoded), nil
}

func (s *CryptoSkill) uuidGenerate(args schema.Args) (string, error) {
	count := args.Int("count", 1)
	if count < 1 {
		count = 1
	}
	if count > 100 {
		count = 100
	}
	out := make([]string, count)
	for i := range out {
		out[i] = uuid.NewString()
	}
	return strings.Join(out, "\n"), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

func (s *CryptoSkill) randomHex(args schema.Args) (string, error) {
	b, err := randomBytes(args.Int("length", 16))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *CryptoSkill) randomToken(args schema.Args) (string, error) {
	b, err := randomBytes(args.Int("length", 32))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
