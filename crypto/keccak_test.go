package crypto

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256EmptyInput(t *testing.T) {
	got := hex.EncodeToString(Keccak256())
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got != want {
		t.Fatalf("keccak256(empty): got %s, want %s", got, want)
	}
}

func TestKeccak256KnownVector(t *testing.T) {
	got := hex.EncodeToString(Keccak256([]byte("abc")))
	want := "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"
	if got != want {
		t.Fatalf("keccak256(abc): got %s, want %s", got, want)
	}
}

func TestKeccak256MultiplePieces(t *testing.T) {
	joined := Keccak256([]byte("ab"), []byte("c"))
	whole := Keccak256([]byte("abc"))
	if string(joined) != string(whole) {
		t.Fatal("hashing in pieces must equal hashing the concatenation")
	}
}

func TestKeccak256Hash(t *testing.T) {
	h := Keccak256Hash([]byte("abc"))
	if h.Hex() != "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45" {
		t.Fatalf("Keccak256Hash(abc) = %s", h.Hex())
	}
}
