package program

import (
	"errors"
	"strings"
	"testing"
)

func TestBundle_RoundTrip(t *testing.T) {
	p, err := NewCompressed("++++[>++++<-]>.,[-]")
	if err != nil {
		t.Fatal(err)
	}
	p = p.WithName("sixteen.bf")

	data, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !IsBundle(data) {
		t.Fatal("serialized data lacks bundle magic")
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Name() != p.Name() {
		t.Errorf("name = %q, want %q", got.Name(), p.Name())
	}
	want := p.Instructions()
	have := got.Instructions()
	if len(have) != len(want) {
		t.Fatalf("len = %d, want %d", len(have), len(want))
	}
	for i := range want {
		if have[i] != want[i] {
			t.Errorf("instruction %d = %+v, want %+v", i, have[i], want[i])
		}
	}
	for i := range want {
		a, errA := p.ResolveJump(i)
		b, errB := got.ResolveJump(i)
		if a != b || (errA == nil) != (errB == nil) {
			t.Errorf("jump table differs at %d", i)
		}
	}
}

func TestBundle_Deterministic(t *testing.T) {
	a, _ := NewCompressed("+[->+<]")
	b, _ := NewCompressed("+ [ - > + < ] comment")
	da, _ := a.Serialize()
	db, _ := b.Serialize()
	if string(da) != string(db) {
		t.Error("equal programs should serialize to equal bytes")
	}
}

func TestDeserialize_Rejects(t *testing.T) {
	p, _ := NewCompressed("[-]")
	good, _ := p.Serialize()

	badVersion := append([]byte(nil), good...)
	badVersion[4] = 0x7f

	// Point the LoopEnter at itself
	tampered := &Compressed{instructions: []Instruction{
		{Kind: KindLoopEnter, Arg: 0},
		Change(-1),
		{Kind: KindLoopExit, Arg: 0},
	}}
	tamperedData, err := tampered.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	unbalanced := &Compressed{instructions: []Instruction{{Kind: KindLoopEnter}}}
	unbalancedData, _ := unbalanced.Serialize()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no magic", []byte("not a bundle at all")},
		{"bad version", badVersion},
		{"truncated body", good[:len(good)-1]},
		{"wrong target", tamperedData},
		{"unbalanced", unbalancedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(tt.data)
			if !errors.Is(err, ErrCorruptBundle) {
				t.Errorf("err = %v, want ErrCorruptBundle", err)
			}
		})
	}
}

func TestBundle_RoundTripLargeProgram(t *testing.T) {
	// 140000 instructions, past the default CBOR array limit of 131072
	p, err := NewCompressed(strings.Repeat("+.", 70000))
	if err != nil {
		t.Fatal(err)
	}
	data, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Len() != p.Len() {
		t.Fatalf("len = %d, want %d", got.Len(), p.Len())
	}
	if ins, _ := got.Get(got.Len() - 1); ins.Kind != KindOutput {
		t.Errorf("last instruction = %+v, want OUT", ins)
	}
}

func TestWithName_LeavesOriginalUntouched(t *testing.T) {
	p, err := NewCompressed("+[-]")
	if err != nil {
		t.Fatal(err)
	}
	named := p.WithName("clear.bf")
	if p.Name() != "" {
		t.Errorf("original renamed to %q", p.Name())
	}
	if named.Name() != "clear.bf" {
		t.Errorf("named = %q", named.Name())
	}
	if named.Len() != p.Len() {
		t.Errorf("copy has %d instructions, want %d", named.Len(), p.Len())
	}
	if j, err := named.ResolveJump(1); err != nil || j != 3 {
		t.Errorf("ResolveJump(1) on copy = %d, %v", j, err)
	}
}
