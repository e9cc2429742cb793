package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/together/internal/catalog"
	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/models"
	"github.com/paulexconde/together/internal/pkg/paginator"
	datastore "github.com/paulexconde/together/internal/pkg/store"
	"github.com/paulexconde/together/pkg/fault"
	"github.com/paulexconde/together/pkg/store"
)

const maxQuestionLength = 500

// The question as shown to participants.
type QuestionView struct {
	ID      int                 `json:"id"`
	Text    string              `json:"text"`
	Type    models.QuestionKind `json:"type"`
	Options []string            `json:"options"`
}

// Owns the question catalog and the date to question mapping.
type QuestionBank interface {
	// Deterministic for a fixed catalog: the same day always yields the same question.
	QuestionForDate(ctx context.Context, date time.Time) (*QuestionView, error)
	List(ctx context.Context, page, limit int) (*paginator.PaginatedResponse[QuestionView], error)
	Add(ctx context.Context, text string, kind models.QuestionKind, options []string) (*QuestionView, error)
	// Seed inserts entries only when the catalog is empty and returns how many were added.
	Seed(ctx context.Context, entries []catalog.Entry) (int, error)
}

type questionBankImpl struct {
	questions store.Datastorer[models.Question]
	paginate  paginator.Paginator[models.Question]
}

// Instantiate the QuestionBank.
func NewQuestionBank(db *sqlx.DB) QuestionBank {
	ds := datastore.NewDataStore[models.Question](db, "daily_questions")
	return &questionBankImpl{
		questions: ds,
		paginate:  paginator.NewPaginator[models.Question](ds),
	}
}

// questionIndex maps a calendar day onto a position in a catalog of size total.
// YearDay counts from 1 on January 1st.
func questionIndex(date time.Time, total int) int {
	return date.YearDay() % total
}

func (q *questionBankImpl) QuestionForDate(ctx context.Context, date time.Time) (*QuestionView, error) {
	ids, err := q.catalogIDs(ctx)
	if err != nil {
		return nil, fault.NewInternalError("load question catalog", err)
	}
	if len(ids) == 0 {
		return nil, fault.ErrNoQuestionsAvailable
	}

	id := ids[questionIndex(date, len(ids))]

	question, err := q.questions.Get(ctx, "SELECT id, text, kind, options FROM daily_questions WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			// catalog changed between the two reads
			return nil, fault.ErrNoQuestionsAvailable
		}
		return nil, fault.NewInternalError("load question", err)
	}

	return toQuestionView(question)
}

// catalogIDs is an ordered snapshot of the catalog ids.
func (q *questionBankImpl) catalogIDs(ctx context.Context) ([]int, error) {
	var ids []int
	db := q.questions.Base()
	if err := db.SelectContext(ctx, &ids, "SELECT id FROM daily_questions ORDER BY id ASC"); err != nil {
		return nil, err
	}
	return ids, nil
}

func (q *questionBankImpl) List(ctx context.Context, page, limit int) (*paginator.PaginatedResponse[QuestionView], error) {
	res, err := q.paginate.PaginateQuery(ctx, "SELECT id, text, kind, options FROM daily_questions ORDER BY id ASC", nil, page, limit)
	if err != nil {
		return nil, fault.NewInternalError("list questions", err)
	}

	items := make([]QuestionView, 0, len(res.Items))
	for i := range res.Items {
		view, err := toQuestionView(&res.Items[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *view)
	}

	return &paginator.PaginatedResponse[QuestionView]{
		Items:       items,
		CurrentPage: res.CurrentPage,
		TotalPages:  res.TotalPages,
		PrevPage:    res.PrevPage,
		NextPage:    res.NextPage,
		TotalItems:  res.TotalItems,
	}, nil
}

func (q *questionBankImpl) Add(ctx context.Context, text string, kind models.QuestionKind, options []string) (*QuestionView, error) {
	dto, err := newQuestionDTO(text, kind, options)
	if err != nil {
		return nil, err
	}

	created, err := q.questions.Create(ctx, dto)
	if err != nil {
		return nil, fault.NewInternalError("create question", err)
	}

	return toQuestionView(created.(*models.Question))
}

func (q *questionBankImpl) Seed(ctx context.Context, entries []catalog.Entry) (int, error) {
	existing, err := q.catalogIDs(ctx)
	if err != nil {
		return 0, fault.NewInternalError("count questions", err)
	}
	if len(existing) > 0 {
		log.Infof("Already %d questions in database, skipping seed", len(existing))
		return 0, nil
	}

	for i, e := range entries {
		kind := models.FreeText
		if len(e.Options) > 0 {
			kind = models.Options
		}
		if _, err := q.Add(ctx, e.Text, kind, e.Options); err != nil {
			return i, fmt.Errorf("seed question %d: %w", i+1, err)
		}
	}

	log.Infof("Seeded %d questions", len(entries))
	return len(entries), nil
}

func newQuestionDTO(text string, kind models.QuestionKind, options []string) (models.QuestionDTO, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.QuestionDTO{}, fault.NewFieldError("text", "text is required")
	}
	if utf8.RuneCountInString(text) > maxQuestionLength {
		return models.QuestionDTO{}, fault.NewFieldError("text", fmt.Sprintf("text must be at most %d characters", maxQuestionLength))
	}

	dto := models.QuestionDTO{Text: text, Kind: kind}

	switch kind {
	case models.FreeText:
		if len(options) > 0 {
			return models.QuestionDTO{}, fault.NewFieldError("options", "free text questions take no options")
		}
	case models.Options:
		if len(options) == 0 {
			return models.QuestionDTO{}, fault.NewFieldError("options", "at least one option is required")
		}
		for _, o := range options {
			if strings.TrimSpace(o) == "" {
				return models.QuestionDTO{}, fault.NewFieldError("options", "options must not be blank")
			}
		}
		raw, err := json.Marshal(options)
		if err != nil {
			return models.QuestionDTO{}, fault.NewInternalError("encode options", err)
		}
		dto.Options = sql.NullString{String: string(raw), Valid: true}
	default:
		return models.QuestionDTO{}, fault.NewFieldError("type", fmt.Sprintf("unknown question type %q", kind))
	}

	return dto, nil
}

func toQuestionView(q *models.Question) (*QuestionView, error) {
	view := &QuestionView{ID: q.ID, Text: q.Text, Type: q.Kind}
	if q.Options.Valid && q.Options.String != "" {
		if err := json.Unmarshal([]byte(q.Options.String), &view.Options); err != nil {
			return nil, fault.NewInternalError(fmt.Sprintf("decode options of question %d", q.ID), err)
		}
	}
	return view, nil
}
