package movie

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/kinolab/genrecast/internal/domain"
)

// Hash field names shared with the externally provisioned vector index.
const (
	fieldTitle    = "title"
	fieldFullPlot = "fullplot"
	fieldGenres   = "genres"
	// FieldScheme tags the stored vector with the embedding scheme it was
	// computed under.
	FieldScheme = "__scheme"
)

const genreSeparator = ","

// parseHashFields converts a flat hash map into a domain Movie.
// vectorField is the configured hash field holding the binary embedding.
func parseHashFields(id string, m map[string]string, vectorField string) domain.Movie {
	return domain.Movie{
		ID:        id,
		Title:     m[fieldTitle],
		FullPlot:  m[fieldFullPlot],
		Genres:    splitGenres(m[fieldGenres]),
		Embedding: bytesToVector(m[vectorField]),
		Scheme:    m[FieldScheme],
	}
}

// splitGenres parses the comma-separated genres tag field, preserving order.
func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, genreSeparator)
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
