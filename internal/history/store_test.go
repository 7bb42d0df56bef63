package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Record(ctx, Run{
			SourceName:   "hello.bf",
			SourceSHA256: Fingerprint("+."),
			Dialect:      "basic",
			TapeSize:     30000,
			Instructions: uint64(100 * (i + 1)),
			Elapsed:      time.Millisecond,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if id == "" {
			t.Fatal("Record should assign an id")
		}
		ids = append(ids, id)
	}
	if ids[0] == ids[1] {
		t.Error("ids should be unique")
	}

	runs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("Recent order = %s, %s", runs[0].ID, runs[1].ID)
	}
	got := runs[0]
	if got.Instructions != 300 || got.Elapsed != time.Millisecond || got.TapeSize != 30000 {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("created_at = %v", got.CreatedAt)
	}
}

func TestBest(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	sha := Fingerprint("++[-]")

	if _, err := s.Best(ctx, sha, "compressed"); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("empty store err = %v, want ErrNoRuns", err)
	}

	for _, r := range []Run{
		{SourceSHA256: sha, Dialect: "compressed", Instructions: 1000, Elapsed: 2 * time.Millisecond},
		{SourceSHA256: sha, Dialect: "compressed", Instructions: 1000, Elapsed: time.Millisecond, SourceName: "fast"},
		{SourceSHA256: sha, Dialect: "basic", Instructions: 1000, Elapsed: time.Microsecond},
		{SourceSHA256: Fingerprint("other"), Dialect: "compressed", Instructions: 1000, Elapsed: time.Nanosecond},
	} {
		if _, err := s.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	best, err := s.Best(ctx, sha, "compressed")
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if best.SourceName != "fast" {
		t.Errorf("Best picked %+v", best)
	}
}

func TestRunRate(t *testing.T) {
	r := Run{Instructions: 3000, Elapsed: 1500 * time.Millisecond}
	if r.Rate() != 2000 {
		t.Errorf("Rate() = %v, want 2000", r.Rate())
	}
	if (Run{Instructions: 5}).Rate() != 0 {
		t.Error("zero elapsed should report zero rate")
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("+") == Fingerprint("-") {
		t.Error("different sources should differ")
	}
	if len(Fingerprint("")) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(Fingerprint("")))
	}
}
