package skills

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash"
	"strings"
	"time"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// JWTSkill decodes, creates, verifies and inspects HMAC-signed JWTs. Decoding
// never verifies; verification is constant-time.
type JWTSkill struct {
	now func() time.Time
}

// NewJWTSkill returns the jwt skill.
func NewJWTSkill() *JWTSkill {
	return &JWTSkill{now: time.Now}
}

func (s *JWTSkill) Name() string        { return "jwt" }
func (s *JWTSkill) Description() string { return "JWT: decode, encode, verify, inspect" }

type jwtTokenInput struct {
	Token string `json:"token" jsonschema:"description=JWT token"`
}

type jwtEncodeInput struct {
	Payload   map[string]interface{} `json:"payload" jsonschema:"description=Claims object"`
	Secret    string                 `json:"secret" jsonschema:"description=HMAC secret"`
	Algorithm string                 `json:"algorithm,omitempty" jsonschema:"description=HS256, HS384 or HS512 (default: HS256)"`
	ExpiresIn int                    `json:"expires_in,omitempty" jsonschema:"description=Seconds until expiry"`
}

type jwtVerifyInput struct {
	Token     string `json:"token" jsonschema:"description=JWT token"`
	Secret    string `json:"secret" jsonschema:"description=HMAC secret"`
	Algorithm string `json:"algorithm,omitempty" jsonschema:"description=HS256, HS384 or HS512 (default: HS256)"`
}

func (s *JWTSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("jwt_decode", "Decode a JWT without verifying the signature", jwtTokenInput{}, s.decode),
		newTool("jwt_encode", "Create an HMAC-signed JWT", jwtEncodeInput{}, s.encode),
		newTool("jwt_verify", "Verify a JWT signature and expiry", jwtVerifyInput{}, s.verify),
		newTool("jwt_inspect", "Inspect JWT claims with expiry analysis", jwtTokenInput{}, s.inspect),
	}
}

func b64urlDecode(data string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}

func b64urlEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func jwtHasher(algorithm string) (func() hash.Hash, string, error) {
	switch strings.ToUpper(algorithm) {
	case "", "HS256":
		return sha256.New, "HS256", nil
	case "HS384":
		return sha512.New384, "HS384", nil
	case "HS512":
		return sha512.New, "HS512", nil
	default:
		return nil, "", fmt.Errorf("unsupported algorithm: %s", algorithm)
	}
}

// decodeParts splits and decodes a token's header and payload.
func decodeParts(token string) (header, payload map[string]interface{}, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, fmt.Errorf("invalid JWT format: expected 3 parts separated by dots")
	}
	rawHeader, err := b64urlDecode(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid header encoding: %w", err)
	}
	rawPayload, err := b64urlDecode(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid payload encoding: %w", err)
	}
	if err := jsonUnmarshal(rawHeader, &header); err != nil {
		return nil, nil, fmt.Errorf("invalid header JSON: %w", err)
	}
	if err := jsonUnmarshal(rawPayload, &payload); err != nil {
		return nil, nil, fmt.Errorf("invalid payload JSON: %w", err)
	}
	return header, payload, nil
}

func (s *JWTSkill) decode(args schema.Args) (string, error) {
	token := args.String("token", "")
	if len(strings.Split(token, ".")) != 3 {
		return "Invalid JWT format: expected 3 parts separated by dots", nil
	}
	header, payload, err := decodeParts(token)
	if err != nil {
		return fmt.Sprintf("Error decoding JWT: %v", err), nil
	}
	return jsonBlob(map[string]interface{}{
		"header":  header,
		"payload": payload,
	}), nil
}

func (s *JWTSkill) encode(args schema.Args) (string, error) {
	hasher, label, err := jwtHasher(args.String("algorithm", "HS256"))
	if err != nil {
		return fmt.Sprintf("Unsupported algorithm: %s", args.String("algorithm", "")), nil
	}
	secret := args.String("secret", "")

	payload := args.Map("payload")
	if payload == nil {
		payload = map[string]interface{}{}
	}
	now := s.now().Unix()
	payload["iat"] = now

	var expiresAt interface{}
	if exp := args.Int("expires_in", 0); exp > 0 {
		payload["exp"] = now + int64(exp)
		expiresAt = time.Unix(now+int64(exp), 0).Format(time.RFC3339)
	}

	headerJSON, err := json.Marshal(map[string]string{"alg": label, "typ": "JWT"})
	if err != nil {
		return "", fmt.Errorf("failed to encode header: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	message := b64urlEncode(headerJSON) + "." + b64urlEncode(payloadJSON)
	mac := hmac.New(hasher, []byte(secret))
	mac.Write([]byte(message))

	return jsonBlob(map[string]interface{}{
		"token":      message + "." + b64urlEncode(mac.Sum(nil)),
		"algorithm":  label,
		"expires_at": expiresAt,
	}), nil
}

func (s *JWTSkill) verify(args schema.Args) (string, error) {
	token := args.String("token", "")
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return jsonBlob(map[string]interface{}{"valid": false, "error": "Invalid format"}), nil
	}

	hasher, label, err := jwtHasher(args.String("algorithm", "HS256"))
	if err != nil {
		return jsonBlob(map[string]interface{}{
			"valid": false,
			"error": fmt.Sprintf("Unsupported algorithm: %s", args.String("algorithm", "")),
		}), nil
	}

	signature, err := b64urlDecode(parts[2])
	if err != nil {
		return jsonBlob(map[string]interface{}{"valid": false, "error": "Invalid signature encoding"}), nil
	}
	mac := hmac.New(hasher, []byte(args.String("secret", "")))
	mac.Write([]byte(parts[0] + "." + parts[1]))
	valid := hmac.Equal(signature, mac.Sum(nil))

	expired := false
	if _, payload, err := decodeParts(token); err == nil {
		if exp, ok := payload["exp"].(float64); ok {
			expired = float64(s.now().Unix()) > exp
		}
	}

	return jsonBlob(map[string]interface{}{
		"valid":           valid,
		"signature_valid": valid,
		"expired":         expired,
		"algorithm":       label,
	}), nil
}

func (s *JWTSkill) inspect(args schema.Args) (string, error) {
	token := args.String("token", "")
	if len(strings.Split(token, ".")) != 3 {
		return "Invalid JWT format", nil
	}
	header, payload, err := decodeParts(token)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	analysis := map[string]interface{}{}
	now := float64(s.now().Unix())

	if exp, ok := payload["exp"].(float64); ok {
		analysis["expires"] = time.Unix(int64(exp), 0).Format(time.RFC3339)
		analysis["expired"] = now > exp
		if now < exp {
			analysis["expires_in"] = fmt.Sprintf("%d seconds", int64(exp-now))
		} else {
			analysis["expires_in"] = "already expired"
		}
	}
	if iat, ok := payload["iat"].(float64); ok {
		analysis["issued_at"] = time.Unix(int64(iat), 0).Format(time.RFC3339)
	}
	if nbf, ok := payload["nbf"].(float64); ok {
		analysis["not_before"] = time.Unix(int64(nbf), 0).Format(time.RFC3339)
		analysis["not_yet_valid"] = now < nbf
	}
	for _, claim := range []struct{ key, label string }{
		{"sub", "subject"}, {"iss", "issuer"}, {"aud", "audience"},
	} {
		if v, ok := payload[claim.key]; ok {
			analysis[claim.label] = v
		}
	}

	return jsonBlob(map[string]interface{}{
		"header":   header,
		"payload":  payload,
		"analysis": analysis,
	}), nil
}
