package recurring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/eggrates/eggrate/cmd/loops/recurring"
	"github.com/eggrates/eggrate/pkg/loop"
)

func TestParsePolicy(t *testing.T) {
	t.Run(`it parses "forever" as Forever(0)`, func(t *testing.T) {
		actual, err := recurring.ParsePolicy("forever")
		if err != nil {
			t.Fatal(err)
		}
		expected := recurring.Forever(0)
		if actual.String() != expected.String() {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run(`it parses "forever:30s" as Forever(30s)`, func(t *testing.T) {
		actual, err := recurring.ParsePolicy("forever:30s")
		if err != nil {
			t.Fatal(err)
		}
		expected := recurring.Forever(30 * time.Second)
		if actual.String() != expected.String() {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run(`it parses "once" as Once()`, func(t *testing.T) {
		actual, err := recurring.ParsePolicy("once")
		if err != nil {
			t.Fatal(err)
		}
		if actual.String() != recurring.Once().String() {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, recurring.Once())
		}
	})

	t.Run(`it rejects "forever:xxx" with broken duration`, func(t *testing.T) {
		if _, err := recurring.ParsePolicy("forever:xxx"); err == nil {
			t.Error("no error")
		}
	})

	t.Run(`it rejects "once:10s"`, func(t *testing.T) {
		if _, err := recurring.ParsePolicy("once:10s"); err == nil {
			t.Error("no error")
		}
	})

	t.Run("it rejects unknown policy names", func(t *testing.T) {
		if _, err := recurring.ParsePolicy("sometimes"); err == nil {
			t.Error("no error")
		}
	})
}

func TestForever(t *testing.T) {
	t.Run("it continues immediately while there is backlog", func(t *testing.T) {
		testee := recurring.Forever(30 * time.Second)
		actual := testee.Next(true, nil)
		expected := loop.Continue(0)
		if actual != expected {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run("it continues after cooldown when backlog is over", func(t *testing.T) {
		testee := recurring.Forever(30 * time.Second)
		actual := testee.Next(false, nil)
		expected := loop.Continue(30 * time.Second)
		if actual != expected {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})
}

func TestOnce(t *testing.T) {
	t.Run("it breaks without error after one cycle", func(t *testing.T) {
		testee := recurring.Once()
		actual := testee.Next(true, nil)
		expected := loop.Break(nil)
		if actual != expected {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run("it breaks with the task error", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		testee := recurring.Once()
		actual := testee.Next(false, expectedErr)
		expected := loop.Break(expectedErr)
		if actual != expected {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})
}

func TestUntilError(t *testing.T) {
	t.Run("it breaks when the task errors", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		testee := recurring.UntilError(recurring.Forever(0))
		actual := testee.Next(true, expectedErr)
		expected := loop.Break(expectedErr)
		if actual != expected {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run("it defers to the base policy otherwise", func(t *testing.T) {
		testee := recurring.UntilError(recurring.Forever(time.Minute))
		actual := testee.Next(false, nil)
		expected := loop.Continue(time.Minute)
		if actual != expected {
			t.Errorf("mismatch. (actual, expected) = (%s, %s)", actual, expected)
		}
	})
}
