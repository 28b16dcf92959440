package security

import (
	"strings"
	"testing"
)

const testKeyHex = "6368616368612d706f6c792d746573742d6b65792d33322d6279746573212121"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewChaChaPoly(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	plain := "okx-api-key-abcdef123456"
	enc, err := c.EncryptString(plain)
	if err != nil {
		t.Fatal(err)
	}
	if enc == plain {
		t.Fatal("ciphertext must differ from plaintext")
	}
	dec, err := c.DecryptString(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec != plain {
		t.Errorf("expected %q, got %q", plain, dec)
	}
}

// 随机nonce，同一明文两次加密结果不同
func TestEncryptNondeterministic(t *testing.T) {
	c, err := NewChaChaPoly(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := c.EncryptString("secret")
	b, _ := c.EncryptString("secret")
	if a == b {
		t.Error("two encryptions must not produce identical ciphertext")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	c, err := NewChaChaPoly(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := c.EncryptString("secret")
	tampered := strings.Replace(enc, enc[:1], "A", 1)
	if tampered == enc {
		tampered = "B" + enc[1:]
	}
	if _, err := c.DecryptString(tampered); err == nil {
		t.Error("tampered ciphertext must fail authentication")
	}
}

func TestNewChaChaPolyBadKey(t *testing.T) {
	if _, err := NewChaChaPoly("abcd"); err == nil {
		t.Error("short key must be rejected")
	}
	if _, err := NewChaChaPoly("zz"); err == nil {
		t.Error("non-hex key must be rejected")
	}
}
