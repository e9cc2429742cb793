package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/paulexconde/together/internal/models"
	"github.com/paulexconde/together/internal/services"
)

type QuestionRequest struct {
	Text    string              `json:"text"`
	Type    models.QuestionKind `json:"type"`
	Options []string            `json:"options"`
}

func ListQuestions(questions services.QuestionBank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		res, err := questions.List(r.Context(), page, limit)
		if err != nil {
			writeError(w, r, "questions.list", err)
			return
		}
		render.JSON(w, r, res)
	}
}

func CreateQuestion(questions services.QuestionBank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := QuestionRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			badRequest(w, r, "questions.create.parse_body", "invalid request body")
			return
		}
		if req.Type == "" {
			req.Type = models.FreeText
		}

		q, err := questions.Add(r.Context(), req.Text, req.Type, req.Options)
		if err != nil {
			writeError(w, r, "questions.create", err)
			return
		}
		respond(w, r, http.StatusCreated, q)
	}
}
