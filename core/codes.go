package core

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CharsetCodeGenerator draws codes uniformly from the configured alphabets.
type CharsetCodeGenerator struct {
	Charset Charset
}

func NewCharsetCodeGenerator(charset Charset) CharsetCodeGenerator {
	return CharsetCodeGenerator{Charset: charset}
}

// Generate returns length characters drawn with replacement from numbers
// then letters. Lengths below MinCodeLength are raised to it.
func (g CharsetCodeGenerator) Generate(length int, opts CodeOptions) (string, error) {
	if !opts.AllowLetters && !opts.AllowNumbers {
		return "", NewInvalidArgumentError("code generation requires letters or numbers")
	}
	var pool strings.Builder
	if opts.AllowNumbers {
		pool.WriteString(g.Charset.Numbers)
	}
	if opts.AllowLetters {
		pool.WriteString(g.Charset.Letters)
	}
	alphabet := []rune(pool.String())
	if len(alphabet) == 0 {
		return "", NewInvalidArgumentError("code generation charset is empty")
	}
	if length < MinCodeLength {
		length = MinCodeLength
	}

	poolSize := big.NewInt(int64(len(alphabet)))
	out := make([]rune, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, poolSize)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

var _ CodeGenerator = CharsetCodeGenerator{}
