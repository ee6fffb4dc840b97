package question

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AaronLay10/cyclist/internal/events"
)

// Question is one entry of a questions file.
type Question struct {
	QuestionIndex int      `json:"question_index"`
	SceneIndex    int      `json:"scene_index"`
	Question      string   `json:"question,omitempty"`
	Program       *Program `json:"program"`
}

// Result is the evaluated form of a Question.
type Result struct {
	QuestionIndex int    `json:"question_index"`
	SceneIndex    int    `json:"scene_index"`
	Question      string `json:"question,omitempty"`
	Answer        Value  `json:"answer"`
	Invalid       bool   `json:"invalid"`
	Degenerate    bool   `json:"degenerate"`
	Error         string `json:"error,omitempty"`
}

// File is the questions file layout.
type File struct {
	Questions []Question `json:"questions"`
}

// LoadFile reads a questions file.
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("invalid questions JSON: %w", err)
	}
	for i, q := range f.Questions {
		if q.Program == nil {
			return nil, fmt.Errorf("%w: question %d has no program", ErrMalformedProgram, i)
		}
	}
	return &f, nil
}

// Evaluate answers q on v and, when checkDegenerate is set, tests whether
// its relate steps carry information. Malformed programs are reported in
// Result.Error and as question.failed events.
func (e *Engine) Evaluate(q Question, v *View, checkDegenerate bool) Result {
	res := Result{QuestionIndex: q.QuestionIndex, SceneIndex: q.SceneIndex, Question: q.Question}
	fields := map[string]interface{}{
		"question_index": q.QuestionIndex,
		"scene_index":    q.SceneIndex,
	}

	if q.Program == nil {
		res.Error = ErrMalformedProgram.Error() + ": no program"
		fields["error"] = res.Error
		events.Emit("error", "question.failed", "", fields)
		return res
	}

	answer, err := e.Answer(q.Program, v)
	if err == nil && checkDegenerate {
		res.Degenerate, err = e.IsDegenerate(q.Program, v)
	}
	if err != nil {
		res.Error = err.Error()
		fields["error"] = res.Error
		events.Emit("error", "question.failed", "", fields)
		return res
	}

	res.Answer = answer
	res.Invalid = answer.IsInvalid()
	fields["answer"] = answer.String()

	switch {
	case res.Invalid:
		events.Emit("info", "question.invalid", "", fields)
	case res.Degenerate:
		events.Emit("info", "question.degenerate", "", fields)
	default:
		events.Emit("debug", "question.answered", "", fields)
	}
	return res
}
