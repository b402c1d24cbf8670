package core

import (
	"fmt"
	"strings"
)

const (
	DefaultCodeLength = 32
	DefaultTable      = "tokens"
	DefaultLetters    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DefaultNumbers    = "0123456789"
)

type Charset struct {
	Letters string `koanf:"letters" mapstructure:"letters"`
	Numbers string `koanf:"numbers" mapstructure:"numbers"`
}

type Config struct {
	Types             []string `koanf:"types" mapstructure:"types"`
	DefaultCodeLength int      `koanf:"default_code_length" mapstructure:"default_code_length"`
	Charset           Charset  `koanf:"charset" mapstructure:"charset"`
	Table             string   `koanf:"table" mapstructure:"table"`
}

func DefaultConfig() Config {
	return Config{
		DefaultCodeLength: DefaultCodeLength,
		Charset: Charset{
			Letters: DefaultLetters,
			Numbers: DefaultNumbers,
		},
		Table: DefaultTable,
	}
}

func (c Config) Validate() error {
	if len(normalizeTypes(c.Types)) == 0 {
		return fmt.Errorf("core: at least one token type is required")
	}
	if c.DefaultCodeLength <= 0 {
		return fmt.Errorf("core: default_code_length must be positive")
	}
	if c.Charset.Letters == "" && c.Charset.Numbers == "" {
		return fmt.Errorf("core: charset requires letters or numbers")
	}
	if strings.TrimSpace(c.Table) == "" {
		return fmt.Errorf("core: table is required")
	}
	return nil
}

// Normalized returns a copy with types trimmed, lowercased and de-duplicated.
func (c Config) Normalized() Config {
	out := c
	out.Types = normalizeTypes(c.Types)
	out.Table = strings.TrimSpace(c.Table)
	return out
}

// HasType reports whether the normalized form of name is configured.
func (c Config) HasType(name string) bool {
	name = normalizeKey(name)
	for _, candidate := range c.Types {
		if normalizeKey(candidate) == name && name != "" {
			return true
		}
	}
	return false
}

func normalizeTypes(types []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(types))
	for _, raw := range types {
		name := normalizeKey(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
