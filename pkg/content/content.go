// Package content loads the static vocabulary and song lists shipped with the bot.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

// ErrEmpty is returned when a list has no usable entries.
var ErrEmpty = errors.New("content list is empty")

type Entry struct {
	Word        string `json:"word"`
	Translation string `json:"tr"`
	Note        string `json:"note"`
}

// Vocabulary is the immutable word list used for words-of-the-day and quizzes.
type Vocabulary []Entry

// Window returns size entries starting at start mod len(v), wrapping around the end.
func (v Vocabulary) Window(start, size int) []Entry {
	if len(v) == 0 || size <= 0 {
		return nil
	}
	start = mod(start, len(v))
	out := make([]Entry, 0, size)
	for i := 0; i < size; i++ {
		out = append(out, v[(start+i)%len(v)])
	}
	return out
}

// Advance returns the cursor that follows a window of size starting at start.
func (v Vocabulary) Advance(start, size int) int {
	if len(v) == 0 {
		return 0
	}
	return mod(start+size, len(v))
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

type Song struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
	RuLink string `json:"ru_link"`
}

type Songs []Song

// Pick returns a uniformly random song.
func (s Songs) Pick(rng *rand.Rand) (Song, bool) {
	if len(s) == 0 {
		return Song{}, false
	}
	return s[rng.IntN(len(s))], true
}

// LoadVocabulary reads a JSON array of {word, tr, note}. Entries without a word or
// translation are dropped.
func LoadVocabulary(path string) (Vocabulary, error) {
	var raw []Entry
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	vocab := make(Vocabulary, 0, len(raw))
	for _, entry := range raw {
		entry.Word = strings.TrimSpace(entry.Word)
		entry.Translation = strings.TrimSpace(entry.Translation)
		entry.Note = strings.TrimSpace(entry.Note)
		if entry.Word == "" || entry.Translation == "" {
			continue
		}
		vocab = append(vocab, entry)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return vocab, nil
}

// LoadSongs reads a JSON array of {title, artist, genre, ru_link}. An empty list is
// not an error; the song handlers answer with a notice instead.
func LoadSongs(path string) (Songs, error) {
	var songs Songs
	if err := readJSON(path, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
