package program

import (
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Basic builder
// =============================================================================

func TestNewBasic_DropsComments(t *testing.T) {
	p := NewBasic("a+b-c<d>e,f.g[h]i \n\t")
	want := []Op{OpIncrement, OpDecrement, OpMoveLeft, OpMoveRight, OpInput, OpOutput, OpLoopEnter, OpLoopExit}
	got := p.Ops()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNewBasic_NoValidation(t *testing.T) {
	p := NewBasic("]][[")
	if p.Len() != 4 {
		t.Fatalf("len = %d, want 4", p.Len())
	}
}

func TestBasic_GetOutOfRange(t *testing.T) {
	p := NewBasic("+")
	if _, ok := p.Get(-1); ok {
		t.Error("Get(-1) should fail")
	}
	if _, ok := p.Get(1); ok {
		t.Error("Get(len) should fail")
	}
	if op, ok := p.Get(0); !ok || op != OpIncrement {
		t.Errorf("Get(0) = %v, %v", op, ok)
	}
	if !NewBasic("no code here").IsEmpty() {
		t.Error("comment-only source should be empty")
	}
}

// =============================================================================
// Merge pass
// =============================================================================

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []Instruction
	}{
		{"empty", "", []Instruction{}},
		{"plus run", "+++", []Instruction{Change(3)}},
		{"mixed change run", "++-+--", []Instruction{Change(0)}},
		{"move run", "<<>", []Instruction{Move(-1)}},
		{"change then move", "++>>", []Instruction{Change(2), Move(2)}},
		{"change then input", "++,", []Instruction{Change(2), {Kind: KindInput}}},
		{"inputs stay split", ",,", []Instruction{{Kind: KindInput}, {Kind: KindInput}}},
		{"outputs stay split", "..", []Instruction{{Kind: KindOutput}, {Kind: KindOutput}}},
		{"comments between runs", "+ x + y +", []Instruction{Change(3)}},
		{"interrupted by output", "+.+", []Instruction{Change(1), {Kind: KindOutput}, Change(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tokenize(tt.source))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("instruction %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMerge_WrapsInt32(t *testing.T) {
	got := Merge([]Instruction{Change(2147483647), Change(1)})
	if len(got) != 1 || got[0].Arg != -2147483648 {
		t.Errorf("got %+v, want wrapped Change(-2147483648)", got)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	sources := []string{
		"++++[>++++<-]>.",
		"+-+-><><,.,.[[-]>]",
		"+++[>+++++<-]>[<+>-]<.",
	}
	for _, src := range sources {
		once := Merge(tokenize(src))
		twice := Merge(once)
		if len(once) != len(twice) {
			t.Fatalf("%q: re-merge changed length %d -> %d", src, len(once), len(twice))
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("%q: instruction %d changed on re-merge", src, i)
			}
		}
		for i := 1; i < len(once); i++ {
			if mergeable(once[i-1], once[i]) {
				t.Errorf("%q: adjacent %s at %d survived merging", src, once[i].Kind, i)
			}
		}
	}
}

// =============================================================================
// Jump table
// =============================================================================

func TestNewCompressed_JumpSymmetry(t *testing.T) {
	p, err := NewCompressed("+[>[-]<[>+<-]]>[.[-]]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, ins := range p.Instructions() {
		if !ins.Kind.IsBracket() {
			if _, err := p.ResolveJump(i); !errors.Is(err, ErrNotBracket) {
				t.Errorf("ResolveJump(%d) on %s: err = %v, want ErrNotBracket", i, ins.Kind, err)
			}
			continue
		}
		j, err := p.ResolveJump(i)
		if err != nil {
			t.Fatalf("ResolveJump(%d): %v", i, err)
		}
		if int(ins.Arg) != j {
			t.Errorf("baked target %d != table target %d at %d", ins.Arg, j, i)
		}
		back, err := p.ResolveJump(j)
		if err != nil || back != i {
			t.Errorf("ResolveJump(%d) = %d, want %d", j, back, i)
		}
		if ins.Kind != KindLoopEnter {
			continue
		}
		depth := 0
		for k := i + 1; k < j; k++ {
			inner, _ := p.Get(k)
			switch inner.Kind {
			case KindLoopEnter:
				depth++
			case KindLoopExit:
				depth--
			}
			if depth < 0 {
				t.Fatalf("interior of loop %d..%d closes early at %d", i, j, k)
			}
		}
		if depth != 0 {
			t.Errorf("interior of loop %d..%d unbalanced (depth %d)", i, j, depth)
		}
	}
}

func TestNewCompressed_Unbalanced(t *testing.T) {
	tests := []struct {
		name   string
		source string
		index  int
		op     Op
	}{
		{"lone enter", "[", 0, OpLoopEnter},
		{"lone exit", "]", 0, OpLoopExit},
		{"unclosed inner", "+[[-]", 1, OpLoopEnter},
		{"exit first", "+]+[", 1, OpLoopExit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompressed(tt.source)
			if err == nil {
				t.Fatal("expected structural error")
			}
			if !errors.Is(err, ErrUnbalanced) {
				t.Errorf("error %v should match ErrUnbalanced", err)
			}
			var ue *UnbalancedError
			if !errors.As(err, &ue) {
				t.Fatalf("error %T is not *UnbalancedError", err)
			}
			if ue.Index != tt.index || ue.Op != tt.op {
				t.Errorf("got index %d op %s, want index %d op %s", ue.Index, ue.Op, tt.index, tt.op)
			}
		})
	}
}

func TestNewCompressed_Empty(t *testing.T) {
	p, err := NewCompressed("just a comment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsEmpty() || p.Len() != 0 {
		t.Errorf("expected empty program, got %d instructions", p.Len())
	}
	if _, ok := p.Get(0); ok {
		t.Error("Get(0) on empty program should fail")
	}
}

// =============================================================================
// Disassembly
// =============================================================================

func TestDisassemble(t *testing.T) {
	p, err := NewCompressed("++[>+<-].")
	if err != nil {
		t.Fatal(err)
	}
	out := Disassemble(p, "test")
	for _, want := range []string{"== test ==", "0000 CHANGE +2", "0001 ENTER  -> 0006", "0006 EXIT   -> 0001", "0007 OUT"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleBasic_FoldsRuns(t *testing.T) {
	out := DisassembleBasic(NewBasic("+++[[-]]"), "basic")
	for _, want := range []string{"0000 INC    x3", "0003 ENTER", "0004 ENTER", "0005 DEC", "0006 EXIT", "0007 EXIT"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}
