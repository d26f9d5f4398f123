package secure

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func TestSeal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		wantSize int
	}{
		{
			name:     "seals bytes",
			data:     []byte("my-secret-password"),
			wantSize: 18,
		},
		{
			name:     "handles empty data",
			data:     []byte{},
			wantSize: 0,
		},
		{
			name:     "handles binary data",
			data:     []byte{0x00, 0xFF, 0x10, 0x20},
			wantSize: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := Seal(tt.data)
			if buf == nil {
				t.Fatal("Seal() returned nil buffer")
			}
			defer buf.Destroy()

			if got := buf.Size(); got != tt.wantSize {
				t.Errorf("Size() = %d, want %d", got, tt.wantSize)
			}
		})
	}
}

func TestSeal_WipesSource(t *testing.T) {
	t.Parallel()

	secret := []byte("wipe-me-after-sealing")
	buf := Seal(secret)
	defer buf.Destroy()

	if !bytes.Equal(secret, make([]byte, len(secret))) {
		t.Errorf("source not wiped: %q", secret)
	}
}

func TestSealedBuffer_View(t *testing.T) {
	t.Parallel()

	// Seal wipes the source buffer, so keep a separate copy for comparison
	secretStr := "super-secret-data"
	expected := []byte(secretStr)

	buf := Seal([]byte(secretStr))
	defer buf.Destroy()

	var got []byte
	err := buf.View(func(plaintext []byte) error {
		got = bytes.Clone(plaintext)
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if !bytes.Equal(got, expected) {
		t.Errorf("View() saw %q, want %q", got, expected)
	}
}

func TestSealedBuffer_ViewEmpty(t *testing.T) {
	t.Parallel()

	buf := Seal(nil)
	defer buf.Destroy()

	called := false
	err := buf.View(func(plaintext []byte) error {
		called = true
		if len(plaintext) != 0 {
			t.Errorf("expected empty plaintext, got %d bytes", len(plaintext))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if !called {
		t.Error("View() did not call fn")
	}
}

func TestSealedBuffer_ViewPropagatesError(t *testing.T) {
	t.Parallel()

	buf := Seal([]byte("x"))
	defer buf.Destroy()

	want := errors.New("decode failed")
	if err := buf.View(func([]byte) error { return want }); !errors.Is(err, want) {
		t.Errorf("View() error = %v, want %v", err, want)
	}
}

func TestSealedBuffer_MultipleViews(t *testing.T) {
	t.Parallel()

	expected := []byte("test-secret")
	buf := Seal([]byte("test-secret"))
	defer buf.Destroy()

	for i := 0; i < 3; i++ {
		err := buf.View(func(plaintext []byte) error {
			if !bytes.Equal(plaintext, expected) {
				t.Errorf("View() iteration %d: got different data", i)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View() iteration %d error = %v", i, err)
		}
	}
}

func TestSealedBuffer_Destroy(t *testing.T) {
	t.Parallel()

	buf := Seal([]byte("secret-to-destroy"))

	// Double destroy should not panic (idempotent)
	buf.Destroy()
	buf.Destroy()

	if got := buf.Size(); got != 0 {
		t.Errorf("Size() after Destroy = %d, want 0", got)
	}
	err := buf.View(func([]byte) error {
		t.Error("fn called after Destroy")
		return nil
	})
	if !errors.Is(err, ErrDestroyed) {
		t.Errorf("View() after Destroy error = %v, want ErrDestroyed", err)
	}
}

func TestSealedBuffer_ConcurrentViews(t *testing.T) {
	t.Parallel()

	expected := []byte("concurrent-secret")
	buf := Seal([]byte("concurrent-secret"))
	defer buf.Destroy()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := buf.View(func(plaintext []byte) error {
				if !bytes.Equal(plaintext, expected) {
					t.Error("Data mismatch in concurrent access")
				}
				return nil
			})
			if err != nil {
				t.Errorf("View() error = %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestWipeBytes(t *testing.T) {
	t.Parallel()

	b := []byte("sensitive")
	WipeBytes(b)
	if !bytes.Equal(b, make([]byte, 9)) {
		t.Errorf("WipeBytes left %q", b)
	}
}

// BenchmarkSealedBuffer measures the overhead of sealing and viewing
func BenchmarkSealedBuffer(b *testing.B) {
	b.Run("Seal", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := Seal([]byte("benchmark-secret-data"))
			buf.Destroy()
		}
	})

	b.Run("View", func(b *testing.B) {
		buf := Seal([]byte("benchmark-secret-data"))
		defer buf.Destroy()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = buf.View(func([]byte) error { return nil })
		}
	})
}
