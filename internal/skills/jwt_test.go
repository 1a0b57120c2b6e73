package skills

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// fixedJWTSkill returns a jwt skill with a pinned clock.
func fixedJWTSkill(at time.Time) *JWTSkill {
	s := NewJWTSkill()
	s.now = func() time.Time { return at }
	return s
}

// tokenFromEncode extracts the token field from a jwt_encode result.
func tokenFromEncode(t *testing.T, out string) string {
	t.Helper()
	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("encode output is not JSON: %v\n%s", err, out)
	}
	if parsed.Token == "" {
		t.Fatalf("no token in output: %s", out)
	}
	return parsed.Token
}

func TestJWTEncode_WhenRoundTripped_ShouldVerifyWithSameSecret(t *testing.T) {
	// Given
	s := fixedJWTSkill(time.Unix(1700000000, 0))

	// When
	encoded := mustCall(t, s, "jwt_encode", `{"payload": {"sub": "alice"}, "secret": "s3cret"}`)
	token := tokenFromEncode(t, encoded)
	verified := mustCall(t, s, "jwt_verify", `{"token": "`+token+`", "secret": "s3cret"}`)

	// Then
	if !strings.Contains(verified, `"valid": true`) {
		t.Errorf("expected valid signature: %s", verified)
	}
	if !strings.Contains(verified, `"expired": false`) {
		t.Errorf("expected not expired: %s", verified)
	}
}

func TestJWTVerify_WhenWrongSecret_ShouldReportInvalid(t *testing.T) {
	// Given
	s := fixedJWTSkill(time.Unix(1700000000, 0))
	token := tokenFromEncode(t, mustCall(t, s, "jwt_encode", `{"payload": {"sub": "alice"}, "secret": "right"}`))

	// When
	out := mustCall(t, s, "jwt_verify", `{"token": "`+token+`", "secret": "wrong"}`)

	// Then
	if !strings.Contains(out, `"valid": false`) {
		t.Errorf("expected invalid: %s", out)
	}
}

func TestJWTVerify_WhenExpired_ShouldReportExpired(t *testing.T) {
	// Given: issue a token that expires in 60s, then verify 2 minutes later
	issued := fixedJWTSkill(time.Unix(1700000000, 0))
	token := tokenFromEncode(t, mustCall(t, issued, "jwt_encode",
		`{"payload": {"sub": "alice"}, "secret": "s", "expires_in": 60}`))
	later := fixedJWTSkill(time.Unix(1700000120, 0))

	// When
	out := mustCall(t, later, "jwt_verify", `{"token": "`+token+`", "secret": "s"}`)

	// Then: signature still checks out, but the token is expired
	if !strings.Contains(out, `"signature_valid": true`) {
		t.Errorf("expected valid signature: %s", out)
	}
	if !strings.Contains(out, `"expired": true`) {
		t.Errorf("expected expired: %s", out)
	}
}

func TestJWTDecode_WhenTwoParts_ShouldReturnFormatMessage(t *testing.T) {
	// Given
	s := NewJWTSkill()

	// When
	out := mustCall(t, s, "jwt_decode", `{"token": "abc.def"}`)

	// Then
	if out != "Invalid JWT format: expected 3 parts separated by dots" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestJWTDecode_WhenValidToken_ShouldShowHeaderAndPayload(t *testing.T) {
	// Given
	s := fixedJWTSkill(time.Unix(1700000000, 0))
	token := tokenFromEncode(t, mustCall(t, s, "jwt_encode", `{"payload": {"sub": "alice"}, "secret": "x"}`))

	// When
	out := mustCall(t, s, "jwt_decode", `{"token": "`+token+`"}`)

	// Then
	if !strings.Contains(out, `"alg": "HS256"`) {
		t.Errorf("missing algorithm: %s", out)
	}
	if !strings.Contains(out, `"sub": "alice"`) {
		t.Errorf("missing claim: %s", out)
	}
	if !strings.Contains(out, `"iat": 1700000000`) {
		t.Errorf("missing issued-at: %s", out)
	}
}

func TestJWTEncode_WhenHS512_ShouldUseThatAlgorithm(t *testing.T) {
	// Given
	s := fixedJWTSkill(time.Unix(1700000000, 0))

	// When
	out := mustCall(t, s, "jwt_encode", `{"payload": {}, "secret": "x", "algorithm": "HS512"}`)

	// Then
	if !strings.Contains(out, `"algorithm": "HS512"`) {
		t.Errorf("unexpected output: %s", out)
	}
	token := tokenFromEncode(t, out)
	verified := mustCall(t, s, "jwt_verify", `{"token": "`+token+`", "secret": "x", "algorithm": "HS512"}`)
	if !strings.Contains(verified, `"valid": true`) {
		t.Errorf("HS512 round trip failed: %s", verified)
	}
}

func TestJWTEncode_WhenUnsupportedAlgorithm_ShouldReturnFriendlyMessage(t *testing.T) {
	// Given
	s := NewJWTSkill()

	// When
	out := mustCall(t, s, "jwt_encode", `{"payload": {}, "secret": "x", "algorithm": "RS256"}`)

	// Then
	if out != "Unsupported algorithm: RS256" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestJWTInspect_WhenFutureExpiry_ShouldReportTimeRemaining(t *testing.T) {
	// Given
	s := fixedJWTSkill(time.Unix(1700000000, 0))
	token := tokenFromEncode(t, mustCall(t, s, "jwt_encode",
		`{"payload": {"sub": "alice", "iss": "test"}, "secret": "x", "expires_in": 3600}`))

	// When
	out := mustCall(t, s, "jwt_inspect", `{"token": "`+token+`"}`)

	// Then
	if !strings.Contains(out, `"expired": false`) {
		t.Errorf("expected not expired: %s", out)
	}
	if !strings.Contains(out, `"expires_in": "3600 seconds"`) {
		t.Errorf("missing remaining time: %s", out)
	}
	if !strings.Contains(out, `"subject": "alice"`) || !strings.Contains(out, `"issuer": "test"`) {
		t.Errorf("missing claim analysis: %s", out)
	}
}
