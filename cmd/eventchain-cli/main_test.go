package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	vcrypto "github.com/Whirlwind03/Blockchain-Dissertation-system/internal/crypto"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestRunHashMatchesPreimage(t *testing.T) {
	var out bytes.Buffer
	err := runHash([]string{
		"--index", "1",
		"--prev", "abc",
		"--time", "2025-03-09T16:30:05+02:00",
		"--data", `{"info":"2-1","event":"Final"}`,
		"--nonce", "42",
	}, &out)
	if err != nil {
		t.Fatalf("runHash: %v", err)
	}
	pre := `1abcSun Mar  9 14:30:05 2025{"event":"Final","info":"2-1"}42`
	if got, want := strings.TrimSpace(out.String()), vcrypto.SHA256.SumHex([]byte(pre)); got != want {
		t.Fatalf("hash = %s, want %s", got, want)
	}
}

func TestRunHashBlake2b(t *testing.T) {
	var out bytes.Buffer
	err := runHash([]string{"--time", "2025-03-09T14:30:05Z", "--data", `{"event":"A"}`, "--hash", "blake2b-256"}, &out)
	if err != nil {
		t.Fatalf("runHash: %v", err)
	}
	pre := `00Sun Mar  9 14:30:05 2025{"event":"A"}0`
	if got, want := strings.TrimSpace(out.String()), vcrypto.BLAKE2b256.SumHex([]byte(pre)); got != want {
		t.Fatalf("hash = %s, want %s", got, want)
	}
}

func TestRunHashKeepsLargeIntegers(t *testing.T) {
	var out bytes.Buffer
	err := runHash([]string{"--time", "2025-03-09T14:30:05Z", "--data", `{"score":12345678901234567890}`}, &out)
	if err != nil {
		t.Fatalf("runHash: %v", err)
	}
	pre := `00Sun Mar  9 14:30:05 2025{"score":12345678901234567890}0`
	if got, want := strings.TrimSpace(out.String()), vcrypto.SHA256.SumHex([]byte(pre)); got != want {
		t.Fatalf("hash = %s, want digest of %s", got, pre)
	}
}

func TestParsePayloadNumbers(t *testing.T) {
	p, err := parsePayload(`{"big":9007199254740993,"f":1.50}`)
	if err != nil {
		t.Fatalf("parsePayload: %v", err)
	}
	got, err := p.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if want := `{"big":9007199254740993,"f":1.50}`; got != want {
		t.Fatalf("Canonical = %s, want %s", got, want)
	}
	if _, err := parsePayload(`{"a":1} {"b":2}`); err == nil {
		t.Fatal("trailing value accepted")
	}
}

func TestRunHashErrors(t *testing.T) {
	tests := [][]string{
		{"--data", "{}"},
		{"--time", "yesterday"},
		{"--time", "2025-03-09T14:30:05Z", "--data", "[1,2]"},
		{"--time", "2025-03-09T14:30:05Z", "--hash", "md5"},
	}
	for _, args := range tests {
		if err := runHash(args, &bytes.Buffer{}); err == nil {
			t.Errorf("runHash(%v) succeeded", args)
		}
	}
}

func TestRunMine(t *testing.T) {
	var out bytes.Buffer
	if err := runMine([]string{"--data", `{"event":"A"}`, "--difficulty", "2"}, &out); err != nil {
		t.Fatalf("runMine: %v", err)
	}
	s := out.String()
	i := strings.Index(s, "hash:")
	if i < 0 {
		t.Fatalf("output = %q", s)
	}
	if h := strings.TrimSpace(s[i+len("hash:"):]); !strings.HasPrefix(h, "00") {
		t.Fatalf("mined hash %q lacks difficulty", h)
	}
}

func TestRunMineTimeout(t *testing.T) {
	err := runMine([]string{"--data", `{"event":"A"}`, "--difficulty", "64", "--timeout", "10ms"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestRunMineRequiresData(t *testing.T) {
	if err := runMine(nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected --data error")
	}
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	caught, err := runDemo([]string{"--difficulty", "1"}, &out)
	if err != nil {
		t.Fatalf("runDemo: %v", err)
	}
	if !caught {
		t.Fatalf("demo did not catch tampering:\n%s", out.String())
	}
	s := out.String()
	for _, want := range []string{
		"before tampering: chain valid",
		"after tampering: chain invalid (hash-mismatch at block 1)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	runVersion(&out)
	if !strings.HasPrefix(out.String(), "eventchain CLI\nVersion: ") {
		t.Fatalf("output = %q", out.String())
	}
}
