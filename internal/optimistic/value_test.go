package optimistic

import "testing"

type followState struct {
	Followers int
	Following bool
}

func follow(s followState) followState {
	if s.Following {
		return followState{Followers: s.Followers - 1, Following: false}
	}
	return followState{Followers: s.Followers + 1, Following: true}
}

func TestApplyThenCommitUsesServerValue(t *testing.T) {
	v := New(followState{Followers: 10})

	tok := v.Apply(follow)
	if got := v.Get(); got.Followers != 11 || !got.Following {
		t.Fatalf("expected optimistic 11/true, got %+v", got)
	}
	if !v.Pending() {
		t.Fatalf("expected pending guess")
	}

	v.Commit(tok, followState{Followers: 13, Following: true})
	if got := v.Get(); got.Followers != 13 {
		t.Fatalf("expected server count 13, got %+v", got)
	}
	if v.Pending() {
		t.Fatalf("expected guess cleared after commit")
	}
}

func TestRollbackRestoresConfirmed(t *testing.T) {
	v := New(followState{Followers: 10})
	tok := v.Apply(follow)
	v.Rollback(tok)
	if got := v.Get(); got.Followers != 10 || got.Following {
		t.Fatalf("expected rollback to 10/false, got %+v", got)
	}
}

func TestStaleCommitKeepsNewerGuess(t *testing.T) {
	v := New(followState{Followers: 10})
	first := v.Apply(follow)
	v.Apply(follow)

	v.Commit(first, followState{Followers: 11, Following: true})
	if !v.Pending() {
		t.Fatalf("expected newer guess to keep showing")
	}
	if v.Confirmed().Followers != 11 {
		t.Fatalf("expected confirmed 11, got %+v", v.Confirmed())
	}
}

func TestSetDropsGuess(t *testing.T) {
	v := New(1)
	tok := v.Apply(func(n int) int { return n + 1 })
	v.Set(5)
	if v.Get() != 5 || v.Pending() {
		t.Fatalf("expected 5 without guess, got %d pending=%v", v.Get(), v.Pending())
	}
	v.Rollback(tok)
	if v.Get() != 5 {
		t.Fatalf("expected stale rollback to be ignored, got %d", v.Get())
	}
}

func TestConfirmKeepsGuess(t *testing.T) {
	v := New(1)
	v.Apply(func(n int) int { return n + 10 })
	v.Confirm(2)
	if v.Get() != 11 || v.Confirmed() != 2 {
		t.Fatalf("expected guess 11 over confirmed 2, got %d/%d", v.Get(), v.Confirmed())
	}
}
