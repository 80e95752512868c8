package clock

import (
	"sync"
	"testing"
	"time"
)

func TestFixedDay(t *testing.T) {
	c := NewFixedDay("2024-12-31")
	if got := c.Today(); got != "2024-12-31" {
		t.Fatalf("Today() = %q, want %q", got, "2024-12-31")
	}

	c.AdvanceDays(1)
	if got := c.Today(); got != "2025-01-01" {
		t.Errorf("Today() after advance = %q, want %q", got, "2025-01-01")
	}
}

func TestFixedConcurrentAccess(t *testing.T) {
	c := NewFixedDay("2024-01-01")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AdvanceDays(1)
			_ = c.Today()
		}()
	}
	wg.Wait()

	if got := c.Today(); got != "2024-01-11" {
		t.Errorf("Today() = %q, want %q", got, "2024-01-11")
	}
}

func TestSystemUsesLocation(t *testing.T) {
	c, err := NewSystem("UTC")
	if err != nil {
		t.Fatalf("NewSystem() error: %v", err)
	}
	if c.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", c.Location())
	}
	if got, want := c.Today(), time.Now().UTC().Format("2006-01-02"); got != want {
		// Allow for a midnight rollover between the two reads.
		if tomorrow := time.Now().UTC().Format("2006-01-02"); got != tomorrow {
			t.Errorf("Today() = %q, want %q", got, want)
		}
	}

	if _, err := NewSystem("Bogus/Zone"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}
