package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestConnectionStringRoundTrip(t *testing.T) {
	gokeyring.MockInit()

	connStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"
	if err := SetConnectionString(connStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	got, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if got != connStr {
		t.Errorf("GetConnectionString() = %q, want %q", got, connStr)
	}

	if err := DeleteConnectionString(); err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}
	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete, error = %v, want %v", err, ErrNotFound)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	gokeyring.MockInit()

	if err := Set(NATSKey, "nats://token@localhost:4222"); err != nil {
		t.Fatal(err)
	}
	if _, err := Get(ConnectionKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(ConnectionKey) error = %v, want %v", err, ErrNotFound)
	}
	got, err := Get(NATSKey)
	if err != nil || got != "nats://token@localhost:4222" {
		t.Errorf("Get(NATSKey) = %q, %v", got, err)
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
}

func TestDeleteNotFound(t *testing.T) {
	gokeyring.MockInit()

	_ = Delete(NATSKey)
	if err := Delete(NATSKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want %v", err, ErrNotFound)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}

func TestGetUnavailable(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no dbus"))

	_, err := Get(ConnectionKey)
	if !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Get() error = %v, want %v", err, ErrKeyringUnavailable)
	}
	if IsAvailable() {
		t.Error("IsAvailable() = true with a failing keyring")
	}
}
