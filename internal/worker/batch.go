package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

// Answerer answers one question end to end
type Answerer interface {
	Ask(ctx context.Context, question string) (*model.Report, error)
}

// QuestionJob answers a single question
type QuestionJob struct {
	Question string
	Answerer Answerer
}

// Execute runs the question through the answerer
func (j *QuestionJob) Execute(ctx context.Context) Result {
	report, err := j.Answerer.Ask(ctx, j.Question)
	if err != nil {
		return &QuestionResult{Question: j.Question, Error: err}
	}
	return &QuestionResult{Question: j.Question, Report: report}
}

// QuestionResult is the outcome of one batch question
type QuestionResult struct {
	Question string
	Report   *model.Report
	Error    error
}

// GetError returns the error from the question result
func (r *QuestionResult) GetError() error {
	return r.Error
}

// Status returns the decision status, or "" if the question failed
func (r *QuestionResult) Status() model.DecisionStatus {
	if r.Error != nil || r.Report == nil {
		return ""
	}
	return r.Report.Decision.Status
}

// BatchProcessor answers many questions concurrently
type BatchProcessor struct {
	answerer    Answerer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(answerer Answerer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		answerer:    answerer,
		concurrency: concurrency,
	}
}

// ProcessQuestions answers questions concurrently; results keep input order
func (b *BatchProcessor) ProcessQuestions(ctx context.Context, questions []string) []*QuestionResult {
	jobs := make([]Job, len(questions))
	for i, q := range questions {
		jobs[i] = &QuestionJob{Question: q, Answerer: b.answerer}
	}

	results := Run(ctx, b.concurrency, jobs)

	out := make([]*QuestionResult, len(questions))
	for i := range questions {
		if res, ok := results[i].(*QuestionResult); ok && res != nil {
			out[i] = res
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("question not processed")
		}
		out[i] = &QuestionResult{Question: questions[i], Error: err}
	}
	return out
}

// ProcessFile reads questions from a file and answers them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QuestionResult, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return b.ProcessQuestions(ctx, questions), nil
}

// Tally counts results per decision status; failed questions count under "error"
func Tally(results []*QuestionResult) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		if s := r.Status(); s != "" {
			counts[string(s)]++
		} else {
			counts["error"]++
		}
	}
	return counts
}

// ReadQuestionsFromFile reads one question per line, skipping blanks and # comments
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			questions = append(questions, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return questions, nil
}
