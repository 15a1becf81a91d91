package randstr

import "crypto/rand"

// Generator produces random strings over a fixed charset.
type Generator struct {
	charset []byte
}

func New(charset []byte) *Generator {
	return &Generator{charset: charset}
}

func (g *Generator) GenerateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)

	for i := range b {
		b[i] = g.charset[int(b[i])%len(g.charset)]
	}

	return string(b)
}
