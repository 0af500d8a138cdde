package invite

import (
	"errors"
	"testing"
	"time"

	"dicehall/internal/token"
)

func testRegistry(ttl time.Duration) *Registry {
	return NewRegistry(token.NewSigner([]byte("invite-test-secret"), "dicehall"), ttl)
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	r := testRegistry(time.Hour)
	now := time.Now()

	rec, err := r.Issue("room-1", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec.RoomID != "room-1" || rec.Nonce == "" {
		t.Fatalf("record = %+v", rec)
	}

	got, err := r.Verify(rec.Token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.RoomID != "room-1" {
		t.Fatalf("verified room = %q", got.RoomID)
	}
	if got.LastUsedAt.IsZero() {
		t.Fatal("last used not stamped")
	}
}

func TestReissueRevokesPreviousToken(t *testing.T) {
	r := testRegistry(time.Hour)
	now := time.Now()

	first, err := r.Issue("room-1", now)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := r.Issue("room-1", now.Add(time.Second))
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if _, err := r.Verify(first.Token, now.Add(2*time.Second)); !errors.Is(err, ErrRevoked) {
		t.Fatalf("superseded token = %v, want ErrRevoked", err)
	}
	if _, err := r.Verify(second.Token, now.Add(2*time.Second)); err != nil {
		t.Fatalf("active token: %v", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	r := testRegistry(time.Hour)
	now := time.Now()
	rec, err := r.Issue("room-1", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	forged := rec.Token + "x"
	if _, err := r.Verify(forged, now); !errors.Is(err, token.ErrTampered) {
		t.Fatalf("forged token = %v, want ErrTampered", err)
	}
}

func TestVerifyExpiredRecord(t *testing.T) {
	r := testRegistry(time.Minute)
	now := time.Now()
	rec, err := r.Issue("room-1", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := r.Verify(rec.Token, now.Add(2*time.Minute)); !errors.Is(err, token.ErrExpired) {
		t.Fatalf("expired token = %v, want ErrExpired", err)
	}
}

func TestVerifyLazilyRegistersUnknownToken(t *testing.T) {
	signer := token.NewSigner([]byte("invite-test-secret"), "dicehall")
	now := time.Now()
	raw, err := signer.Sign(token.Payload{
		RoomID:    "room-7",
		Nonce:     "pre-restart",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// Fresh registry simulating a restarted process.
	r := NewRegistry(signer, time.Hour)
	rec, err := r.Verify(raw, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rec.RoomID != "room-7" || rec.Nonce != "pre-restart" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestRevokeRoom(t *testing.T) {
	r := testRegistry(time.Hour)
	now := time.Now()
	rec, err := r.Issue("room-1", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	r.RevokeRoom("room-1")
	if _, err := r.Verify(rec.Token, now.Add(time.Second)); !errors.Is(err, ErrRevoked) {
		t.Fatalf("revoked token = %v, want ErrRevoked", err)
	}
}

func TestCleanupDropsExpired(t *testing.T) {
	r := testRegistry(time.Minute)
	now := time.Now()
	if _, err := r.Issue("room-1", now); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := r.Issue("room-2", now); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if got := r.Cleanup(now.Add(30 * time.Second)); got != 0 {
		t.Fatalf("early cleanup removed %d", got)
	}
	if got := r.Cleanup(now.Add(2 * time.Minute)); got != 2 {
		t.Fatalf("cleanup removed %d, want 2", got)
	}
}
