package llvm

import (
	"strings"
	"testing"
)

func TestStrategySelection(t *testing.T) {
	arm := StrategyForTriple("aarch64-unknown-linux-gnu")
	if _, matched := arm.Lower([]string{"i64", "i8*"}); !matched {
		t.Fatalf("two word-sized fields must match on aarch64")
	}
	if _, matched := arm.Lower([]string{"i32", "i8*"}); matched {
		t.Fatalf("sub-word field must not match")
	}
	if _, matched := arm.Lower([]string{"i64", "i64", "i64"}); matched {
		t.Fatalf("three fields must not match")
	}

	x86 := StrategyForTriple("x86_64-pc-linux-gnu")
	if _, matched := x86.Lower([]string{"i64", "i8*"}); matched {
		t.Fatalf("x86_64 passes aggregates in natural form")
	}
}

func TestPairRuleReplacementShape(t *testing.T) {
	arm := StrategyForTriple("arm64-apple-darwin")
	packed, matched := arm.Lower([]string{"i64", "i8*"})
	if !matched || packed != "[2 x i64]" {
		t.Fatalf("expected [2 x i64], got %q matched=%v", packed, matched)
	}
}

func TestSlotCastsAreStrictInverses(t *testing.T) {
	for _, repr := range []string{"i64", "i8*", "%String*"} {
		pack, unpack := packCast(repr), unpackCast(repr)
		if (pack == "") != (unpack == "") {
			t.Fatalf("pack/unpack casts must pair up for %q: %q vs %q", repr, pack, unpack)
		}
		if pack == "ptrtoint" && unpack != "inttoptr" {
			t.Fatalf("pointer pack must invert via inttoptr, got %q", unpack)
		}
	}
}

func TestPackThenUnpackRoundTrips(t *testing.T) {
	e := testEmitter(t, "aarch64-unknown-linux-gnu")
	sc := newFnScope(e)
	p, err := e.passingFor("String")
	if err != nil {
		t.Fatalf("passing failed: %v", err)
	}
	if !p.packed || p.passed != "[2 x i64]" {
		t.Fatalf("String must repack on aarch64, got %+v", p)
	}

	in := regValue(e.newReg(), "String")
	packed, err := sc.emitPack(in, p.natural, p.fields, p.passed)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	out, err := sc.emitUnpack(packed, p.natural, p.fields, p.passed)
	if err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	if out.imm {
		t.Fatalf("round trip must land in a register")
	}

	ir := strings.Join(e.cur, "\n")
	ptrCasts := strings.Count(ir, "ptrtoint i8*")
	intCasts := strings.Count(ir, "inttoptr i64")
	if ptrCasts != 1 || intCasts != 1 {
		t.Fatalf("pointer field must round-trip through exactly one cast pair, got %d/%d:\n%s", ptrCasts, intCasts, ir)
	}
	if strings.Count(ir, "extractvalue %String") != 2 {
		t.Fatalf("pack must extract each original field once:\n%s", ir)
	}
	if strings.Count(ir, "insertvalue %String") != 2 {
		t.Fatalf("unpack must rebuild every field of the natural aggregate:\n%s", ir)
	}
	if strings.Count(ir, "extractvalue [2 x i64]") != 2 {
		t.Fatalf("unpack must read every packed slot:\n%s", ir)
	}
}

func TestUnmatchedArchPassesNaturalForm(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	p, err := e.passingFor("String")
	if err != nil {
		t.Fatalf("passing failed: %v", err)
	}
	if p.packed || p.passed != "%String" {
		t.Fatalf("aggregate must pass unmodified without a matching rule, got %+v", p)
	}
}
