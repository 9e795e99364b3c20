package actions

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

var bankAliases = map[string][]string{
	"name":      {"title", "bankName", "bankTitle"},
	"questions": {"items"},
}

var questionAliases = map[string][]string{
	"prompt":  {"question", "text", "stem"},
	"answer":  {"correctAnswer", "correct", "solution"},
	"options": {"choices", "answers"},
}

// rewriteQuestions coalesces question synonyms inside questions and
// addQuestions. Non-object entries are kept as prompts.
func rewriteQuestions(f Fields) {
	f.Coalesce("addQuestions", "newQuestions", "appendQuestions")
	for _, key := range []string{"questions", "addQuestions"} {
		list, ok := f.List(key)
		if !ok {
			continue
		}
		out := make([]any, len(list))
		for i, item := range list {
			q, ok := item.(map[string]any)
			if !ok {
				out[i] = map[string]any{"prompt": item}
				continue
			}
			qf := Fields(q)
			for canonical, syn := range questionAliases {
				qf.Coalesce(canonical, syn...)
			}
			qf.normalizeNumber("points")
			lower(qf, "type")
			if a, ok := qf["answer"]; ok && a != nil {
				if _, isString := a.(string); !isString {
					qf["answer"] = fmt.Sprint(a)
				}
			}
			out[i] = map[string]any(qf)
		}
		f[key] = out
	}
}

func bankDefaults(f Fields, p Policy) {
	f.Default("description", "")
	if !f.Has("questions") {
		f["questions"] = []any{}
	}
	questionDefaults(f, p, "questions")
}

func bankUpdateDefaults(f Fields, p Policy) {
	questionDefaults(f, p, "questions")
	questionDefaults(f, p, "addQuestions")
}

func questionDefaults(f Fields, p Policy, key string) {
	list, ok := f.List(key)
	if !ok {
		return
	}
	for _, item := range list {
		q, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range p.Question {
			Fields(q).Default(k, v)
		}
	}
}

func decodeQuestions(f Fields, key string) ([]course.Question, error) {
	list, ok := f.List(key)
	if !ok {
		return nil, nil
	}
	var qs []course.Question
	if err := decodeValue(list, &qs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = uuid.NewString()
		}
	}
	return qs, nil
}

func createBank(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.QuestionBanks
	if repo == nil {
		return Applied{}, noRepo("question banks")
	}
	qs, err := decodeQuestions(f, "questions")
	if err != nil {
		return Applied{}, err
	}
	bank := course.QuestionBank{
		CourseID:    env.CourseID,
		Name:        f.String("name"),
		Description: f.String("description"),
		Questions:   qs,
	}
	if bank.Questions == nil {
		bank.Questions = []course.Question{}
	}
	rec, err := repo.Create(ctx, env.CourseID, bank)
	return commit("create_question_bank", rec, err)
}

func updateBank(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.QuestionBanks
	if repo == nil {
		return Applied{}, noRepo("question banks")
	}
	bank, ok := course.FindQuestionBank(env.Snapshot, f.String("id"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: question bank %q", ErrUnresolved, f.String("id"))
	}
	if f.Has("name") {
		bank.Name = f.String("name")
	}
	if _, ok := f["description"]; ok {
		bank.Description = f.String("description")
	}
	if _, ok := f.List("questions"); ok {
		qs, err := decodeQuestions(f, "questions")
		if err != nil {
			return Applied{}, err
		}
		bank.Questions = qs
	}
	if f.Has("addQuestions") {
		added, err := decodeQuestions(f, "addQuestions")
		if err != nil {
			return Applied{}, err
		}
		bank.Questions = append(slices.Clone(bank.Questions), added...)
	}
	rec, err := repo.Update(ctx, env.CourseID, bank)
	return commit("update_question_bank", rec, err)
}

func deleteBank(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.QuestionBanks
	if repo == nil {
		return Applied{}, noRepo("question banks")
	}
	id := f.String("id")
	existing, _ := course.FindQuestionBank(env.Snapshot, id)
	if err := repo.Delete(ctx, env.CourseID, id); err != nil {
		return Applied{}, err
	}
	return Applied{Action: "delete_question_bank", ID: id, Label: existing.Name}, nil
}

func previewBank(f Fields) any {
	return course.QuestionBank{Name: f.String("name"), Description: f.String("description")}
}
