package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("teacher@example.com", RoleTeacher, "schoolattend", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := Parse(pair.AccessToken, "secret", "schoolattend")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "teacher@example.com" || claims.Role != RoleTeacher {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	pair, err := Issue("u", RoleManager, "schoolattend", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := Parse(pair.AccessToken, "wrong-key", "schoolattend"); err == nil {
		t.Error("wrong signing key must fail")
	}
	if _, err := Parse(pair.AccessToken, "secret", "someone-else"); err == nil {
		t.Error("issuer mismatch must fail")
	}
	if _, err := Parse("not.a.token", "secret", "schoolattend"); err == nil {
		t.Error("garbage token must fail")
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")) != nil {
		t.Error("hash does not verify the original password")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")) == nil {
		t.Error("hash verified a wrong password")
	}
}
