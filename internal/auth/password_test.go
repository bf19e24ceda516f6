package auth

import "testing"

func TestHashAndVerify(t *testing.T) {
	digest, err := HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	if digest == "secret123" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !VerifyPassword("secret123", digest) {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword("wrong", digest) {
		t.Fatal("wrong password accepted")
	}
}

func TestDigestsDiffer(t *testing.T) {
	d1, _ := HashPassword("same")
	d2, _ := HashPassword("same")
	if d1 == d2 {
		t.Fatal("digests for the same password should differ (salted)")
	}
}

func TestDummyDigestNeverVerifies(t *testing.T) {
	for _, pw := range []string{"", "password", "admin", "secret123"} {
		if VerifyPassword(pw, dummyDigest) {
			t.Fatalf("dummy digest verified %q", pw)
		}
	}
}
