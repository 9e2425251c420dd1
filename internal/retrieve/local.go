package retrieve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/ppiankov/policygate/internal/grounding"
	"github.com/ppiankov/policygate/internal/model"
)

// tableDigitRatio marks chunks that are mostly numbers (schedules, tables)
const tableDigitRatio = 0.18

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// LocalRetriever ranks chunks of a policy directory by keyword overlap
type LocalRetriever struct {
	chunks   []model.Chunk
	keywords []map[string]bool
}

// NewLocalRetriever loads and chunks every .txt and .md file in dir
func NewLocalRetriever(dir string, chunkSize, overlap int) (*LocalRetriever, error) {
	if chunkSize <= 0 {
		chunkSize = 1400
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 80
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read policy directory: %w", err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)

	r := &LocalRetriever{}
	sources := make(map[string]string) // policy id -> file that claimed it
	// ReadDir returns entries sorted by name
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		policyID := Slugify(stem)
		if prev, ok := sources[policyID]; ok {
			return nil, fmt.Errorf("policy files %s and %s both map to policy id %q", prev, path, policyID)
		}
		sources[policyID] = path

		chunks, err := chunkDocument(splitter, policyID, stem, path, string(data))
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", path, err)
		}
		for _, c := range chunks {
			r.chunks = append(r.chunks, c)
			r.keywords = append(r.keywords, grounding.KeywordSet(c.Text))
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no supported policy files found in: %s", dir)
	}
	return r, nil
}

// Chunks returns every indexed chunk in load order
func (r *LocalRetriever) Chunks() []model.Chunk {
	return append([]model.Chunk(nil), r.chunks...)
}

// Retrieve returns chunks sharing keywords with the question, closest first.
// Distance is 1 - shared/|question keywords|; chunks sharing none are skipped.
func (r *LocalRetriever) Retrieve(ctx context.Context, question string, topK int) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qkeys := grounding.KeywordSet(question)
	if len(qkeys) == 0 {
		return nil, nil
	}

	var hits []model.RetrievedChunk
	for i, c := range r.chunks {
		shared := 0
		for k := range qkeys {
			if r.keywords[i][k] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		hits = append(hits, model.RetrievedChunk{
			Chunk:    c,
			Distance: 1 - float64(shared)/float64(len(qkeys)),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return Dedup(hits, topK), nil
}

// chunkDocument splits text and assigns section ids to the chunks it keeps
func chunkDocument(splitter textsplitter.TextSplitter, policyID, title, path, text string) ([]model.Chunk, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, nil
	}

	parts, err := splitter.SplitText(cleaned)
	if err != nil {
		return nil, err
	}

	var chunks []model.Chunk
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || LooksLikeTable(part) {
			continue
		}
		idx := len(chunks)
		sectionID := fmt.Sprintf("sec%04d", idx)
		chunks = append(chunks, model.Chunk{
			ID:   model.ChunkID(policyID, sectionID),
			Text: part,
			Metadata: model.ChunkMetadata{
				PolicyID:   policyID,
				SectionID:  sectionID,
				Title:      title,
				SourcePath: path,
				ChunkIndex: idx,
			},
		})
	}
	return chunks, nil
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// LooksLikeTable reports whether more than 18% of the characters are digits
func LooksLikeTable(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits)/float64(len(runes)) > tableDigitRatio
}
