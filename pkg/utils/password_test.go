package utils

import "testing"

func TestPasswordHashing(t *testing.T) {
	t.Run("hash round-trips with the original password", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery staple")
		if err != nil {
			t.Fatalf("HashPassword returned error: %v", err)
		}
		if hash == "correct horse battery staple" {
			t.Fatal("hash must not equal the plaintext password")
		}
		if !CheckPassword(hash, "correct horse battery staple") {
			t.Error("expected the original password to verify")
		}
	})

	t.Run("wrong password fails verification", func(t *testing.T) {
		hash, err := HashPassword("password123")
		if err != nil {
			t.Fatalf("HashPassword returned error: %v", err)
		}
		if CheckPassword(hash, "password124") {
			t.Error("expected a wrong password to fail verification")
		}
	})

	t.Run("same password hashes differently each time", func(t *testing.T) {
		first, err := HashPassword("password123")
		if err != nil {
			t.Fatalf("HashPassword returned error: %v", err)
		}
		second, err := HashPassword("password123")
		if err != nil {
			t.Fatalf("HashPassword returned error: %v", err)
		}
		if first == second {
			t.Error("expected salted hashes to differ")
		}
	})
}
