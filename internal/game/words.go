package game

import (
	"math/rand"
	"strings"
	"unicode"
)

// defaultWords is the built-in drawing vocabulary.
var defaultWords = []string{
	"cat", "dog", "house", "tree", "car", "sun", "moon", "star", "fish", "bird",
	"apple", "banana", "flower", "mountain", "ocean", "river", "cloud", "rain",
	"book", "chair", "table", "phone", "computer", "pizza", "cake", "cookie",
	"bicycle", "plane", "boat", "train", "guitar", "piano", "ball", "hat",
	"shoe", "shirt", "pants", "glasses", "watch", "key", "door", "window",
	"bridge", "castle", "tower", "garden", "forest", "beach", "desert", "island",
}

// WordBank hands out candidate words and decides guess matches. It is
// stateless apart from its randomness source; used-word bookkeeping belongs
// to the room.
type WordBank struct {
	words []string
	rng   *rand.Rand
}

func NewWordBank(rng *rand.Rand) *WordBank {
	return &WordBank{words: defaultWords, rng: rng}
}

// NewCustomWordBank builds a bank from a user-supplied list. Entries are
// trimmed and blanks dropped; the caller validates the minimum list size.
func NewCustomWordBank(words []string, rng *rand.Rand) *WordBank {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	return &WordBank{words: cleaned, rng: rng}
}

func (b *WordBank) Size() int { return len(b.words) }

// normalizeWord is the key form used for used-word bookkeeping.
func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// Remaining reports how many words are not in the excluded set
// (case-insensitive).
func (b *WordBank) Remaining(excluding map[string]bool) int {
	n := 0
	for _, w := range b.words {
		if !excluding[normalizeWord(w)] {
			n++
		}
	}
	return n
}

// Choices returns n distinct candidates not in the excluded set. The caller
// guarantees the pool is large enough (clearing its used set first if not).
func (b *WordBank) Choices(n int, excluding map[string]bool) []string {
	avail := make([]string, 0, len(b.words))
	for _, w := range b.words {
		if !excluding[normalizeWord(w)] {
			avail = append(avail, w)
		}
	}
	if len(avail) == 0 {
		avail = append(avail, b.words...)
	}

	b.rng.Shuffle(len(avail), func(i, j int) {
		avail[i], avail[j] = avail[j], avail[i]
	})
	if n > len(avail) {
		n = len(avail)
	}
	return avail[:n]
}

// Matches is the single guess rule: case-insensitive, whitespace-trimmed
// exact equality.
func (b *WordBank) Matches(guess, word string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(word))
}

// maskWord renders the letter-count hint shown to guessers: every letter
// becomes an underscore, everything else stays as-is.
func maskWord(word string) string {
	var sb strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) {
			sb.WriteByte('_')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
