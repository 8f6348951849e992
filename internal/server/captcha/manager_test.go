package captcha

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/go-redis/redis/v8"
)

func setupManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run error: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewManager(NewRedisSlotStore(client), 5*time.Minute), mr
}

func TestGenerate_AnswerMatchesQuestion(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := Generate()
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}

		expr := strings.TrimSuffix(c.Question, "=?")
		var a, b int
		var op string
		switch {
		case strings.Contains(expr, "+"):
			op = "+"
		case strings.Contains(expr, "-"):
			op = "-"
		default:
			t.Fatalf("unexpected question %q", c.Question)
		}
		parts := strings.SplitN(expr, op, 2)
		a, _ = strconv.Atoi(parts[0])
		b, _ = strconv.Atoi(parts[1])

		want := a + b
		if op == "-" {
			want = a - b
		}
		if want < 0 {
			t.Fatalf("negative answer for %q", c.Question)
		}
		if c.Answer != strconv.Itoa(want) {
			t.Fatalf("question %q: want answer %d, got %q", c.Question, want, c.Answer)
		}
	}
}

func TestGenerate_ImageIsValidPNG(t *testing.T) {
	c, err := Generate()
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(c.ImagePNG))
	if err != nil {
		t.Fatalf("png.Decode error: %v", err)
	}
	if img.Bounds().Dx() != imgWidth || img.Bounds().Dy() != imgHeight {
		t.Fatalf("unexpected image bounds %v", img.Bounds())
	}
}

func TestCheckAndConsume_OnceOnly(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	c, err := m.Issue(ctx, "slot-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	ok, err := m.CheckAndConsume(ctx, "slot-1", c.Answer)
	if err != nil {
		t.Fatalf("CheckAndConsume error: %v", err)
	}
	if !ok {
		t.Fatalf("expected first check with correct answer to pass")
	}

	// Same answer again: the binding is gone.
	_, err = m.CheckAndConsume(ctx, "slot-1", c.Answer)
	if !errors.Is(err, common.ErrChallengeExpired) {
		t.Fatalf("want common.ErrChallengeExpired on replay, got %v", err)
	}
}

func TestCheckAndConsume_WrongAnswerStillConsumes(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	c, err := m.Issue(ctx, "slot-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	ok, err := m.CheckAndConsume(ctx, "slot-1", "999999")
	if err != nil {
		t.Fatalf("CheckAndConsume error: %v", err)
	}
	if ok {
		t.Fatalf("wrong answer must not pass")
	}

	// The failed attempt consumed the challenge: the right answer is now
	// useless.
	_, err = m.CheckAndConsume(ctx, "slot-1", c.Answer)
	if !errors.Is(err, common.ErrChallengeExpired) {
		t.Fatalf("want common.ErrChallengeExpired after consume, got %v", err)
	}
}

func TestIssue_NewChallengeInvalidatesOld(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	first, err := m.Issue(ctx, "slot-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	second, err := m.Issue(ctx, "slot-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if first.Answer != second.Answer {
		ok, err := m.CheckAndConsume(ctx, "slot-1", first.Answer)
		if err != nil {
			t.Fatalf("CheckAndConsume error: %v", err)
		}
		if ok {
			t.Fatalf("stale answer must not pass after reissue")
		}
	}
}

func TestCheckAndConsume_ExpiredSlot(t *testing.T) {
	m, mr := setupManager(t)
	ctx := context.Background()

	c, err := m.Issue(ctx, "slot-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	_, err = m.CheckAndConsume(ctx, "slot-1", c.Answer)
	if !errors.Is(err, common.ErrChallengeExpired) {
		t.Fatalf("want common.ErrChallengeExpired after TTL, got %v", err)
	}
}

func TestCheckAndConsume_CaseInsensitive(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	// Generated answers are numeric; bind an alphabetic one directly to
	// exercise the case folding.
	if err := m.store.Bind(ctx, "slot-x", "AbC", time.Minute); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	ok, err := m.CheckAndConsume(ctx, "slot-x", "aBc")
	if err != nil {
		t.Fatalf("CheckAndConsume error: %v", err)
	}
	if !ok {
		t.Fatalf("comparison must be case-insensitive")
	}
}
