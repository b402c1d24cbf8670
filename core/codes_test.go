package core

import (
	"strings"
	"testing"
)

func TestCharsetCodeGenerator_DrawsFromSelectedAlphabets(t *testing.T) {
	generator := NewCharsetCodeGenerator(Charset{Letters: "ab", Numbers: "12"})

	cases := []struct {
		name    string
		opts    CodeOptions
		allowed string
	}{
		{name: "letters", opts: CodeOptions{AllowLetters: true}, allowed: "ab"},
		{name: "numbers", opts: CodeOptions{AllowNumbers: true}, allowed: "12"},
		{name: "both", opts: DefaultCodeOptions(), allowed: "ab12"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := generator.Generate(64, tc.opts)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if len(code) != 64 {
				t.Fatalf("expected 64 characters, got %d", len(code))
			}
			for _, r := range code {
				if !strings.ContainsRune(tc.allowed, r) {
					t.Fatalf("unexpected character %q in %q", r, code)
				}
			}
		})
	}
}

func TestCharsetCodeGenerator_ClampsToMinimumLength(t *testing.T) {
	generator := NewCharsetCodeGenerator(DefaultConfig().Charset)
	for _, length := range []int{-1, 0, 1, 3} {
		code, err := generator.Generate(length, DefaultCodeOptions())
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != MinCodeLength {
			t.Fatalf("length %d: expected %d characters, got %q", length, MinCodeLength, code)
		}
	}
}

func TestCharsetCodeGenerator_RejectsEmptyPool(t *testing.T) {
	generator := NewCharsetCodeGenerator(Charset{Letters: "abc"})
	if _, err := generator.Generate(8, CodeOptions{}); !IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument with no alphabet enabled, got %v", err)
	}
	if _, err := generator.Generate(8, CodeOptions{AllowNumbers: true}); !IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument for empty numbers alphabet, got %v", err)
	}
}

func TestCharsetCodeGenerator_ProducesDistinctCodes(t *testing.T) {
	generator := NewCharsetCodeGenerator(DefaultConfig().Charset)
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		code, err := generator.Generate(DefaultCodeLength, DefaultCodeOptions())
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, ok := seen[code]; ok {
			t.Fatalf("unexpected duplicate code %q", code)
		}
		seen[code] = struct{}{}
	}
}
