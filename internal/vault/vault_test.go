package vault

import (
	"strings"
	"testing"
)

const testPassphrase = "a-test-passphrase-that-is-long-enough!"

func testVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(testPassphrase)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestNew_RejectsShortPassphrase(t *testing.T) {
	if _, err := New("too short"); err == nil {
		t.Error("expected error for short passphrase")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v := testVault(t)

	secrets := []string{
		"sk-abcdef0123456789",
		"sk-ant-api03-xyz",
		"",
		strings.Repeat("k", 500),
		"unicode–secret-日本語",
	}
	for _, secret := range secrets {
		enc, err := v.Encrypt(secret)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", secret, err)
		}
		got, err := v.Decrypt(enc)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != secret {
			t.Errorf("round trip = %q, want %q", got, secret)
		}
	}
}

func TestEncrypt_WireFormat(t *testing.T) {
	v := testVault(t)

	enc, err := v.Encrypt("sk-test-key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	parts := strings.Split(enc, ":")
	if len(parts) != 3 {
		t.Fatalf("wire format has %d parts, want 3: %q", len(parts), enc)
	}
	if len(parts[0]) != ivLength*2 {
		t.Errorf("iv hex length = %d, want %d", len(parts[0]), ivLength*2)
	}
	if !IsEncrypted(enc) {
		t.Error("IsEncrypted should accept vault output")
	}
}

func TestEncrypt_NoncesAreUnique(t *testing.T) {
	v := testVault(t)

	a, _ := v.Encrypt("same secret")
	b, _ := v.Encrypt("same secret")
	if a == b {
		t.Error("two encryptions of the same plaintext must differ")
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	v := testVault(t)

	enc, err := v.Encrypt("sk-test-key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// Flip a hex digit of the ciphertext segment.
	parts := strings.Split(enc, ":")
	data := []byte(parts[2])
	if data[0] == 'a' {
		data[0] = 'b'
	} else {
		data[0] = 'a'
	}
	tampered := parts[0] + ":" + parts[1] + ":" + string(data)

	if _, err := v.Decrypt(tampered); err == nil {
		t.Error("expected decryption of tampered data to fail")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	v := testVault(t)
	enc, _ := v.Encrypt("sk-test-key")

	other, err := New("a-different-passphrase-also-long-enough")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := other.Decrypt(enc); err == nil {
		t.Error("expected decryption with the wrong key to fail")
	}
}

func TestDecrypt_MalformedInput(t *testing.T) {
	v := testVault(t)

	for _, bad := range []string{"", "plaintext", "a:b", "xx:yy:zz:ww", "nothex:00:00"} {
		if _, err := v.Decrypt(bad); err == nil {
			t.Errorf("Decrypt(%q) should fail", bad)
		}
	}
}

func TestIsEncrypted(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"00aabb:11ccdd:22eeff", true},
		{"sk-plaintext-key", false},
		{"a:b:c", false},     // odd-length hex
		{"::", false},        // empty segments
		{"00:11", false},     // two parts
		{"00:11:22:33", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsEncrypted(tt.input); got != tt.want {
			t.Errorf("IsEncrypted(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvKey, testPassphrase)
	v, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	enc, err := v.Encrypt("secret-value-here")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := v.Decrypt(enc)
	if err != nil || got != "secret-value-here" {
		t.Errorf("round trip via env vault = %q, %v", got, err)
	}
}

func TestFromEnv_Missing(t *testing.T) {
	t.Setenv(EnvKey, "")
	if _, err := FromEnv(); err == nil {
		t.Error("expected error when passphrase env is unset")
	}
}
