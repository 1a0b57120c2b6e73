// Package tokenizer counts LLM tokens through tiktoken encodings.
package tokenizer

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when the caller does not name one.
// cl100k_base covers the GPT-4/3.5 family; o200k_base covers GPT-4o.
const DefaultEncoding = "cl100k_base"

// Encoder wraps a tiktoken encoding.
type Encoder struct {
	name     string
	encoding *tiktoken.Tiktoken
}

// New returns an encoder for the named encoding, or an error if tiktoken
// does not recognize it.
func New(encodingName string) (*Encoder, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: unknown encoding %q: %w", encodingName, err)
	}
	return &Encoder{name: encodingName, encoding: enc}, nil
}

// Name reports the encoding name this encoder was built with.
func (e *Encoder) Name() string { return e.name }

// Count returns the number of tokens in text.
func (e *Encoder) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(e.encoding.Encode(text, nil, nil))
}

// Encode returns the token IDs for text.
func (e *Encoder) Encode(text string) []int {
	if text == "" {
		return nil
	}
	return e.encoding.Encode(text, nil, nil)
}
