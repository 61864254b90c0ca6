package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/toeicgenius/assessment_service/internal/errors"
	"github.com/toeicgenius/assessment_service/internal/service"
	"github.com/toeicgenius/assessment_service/pkg/response"
)

// WritingHandler handles the writing assessment endpoints.
type WritingHandler struct {
	log            zerolog.Logger
	writing        *service.WritingService
	validate       *validator.Validate
	maxUploadBytes int64
}

func NewWritingHandler(log zerolog.Logger, writing *service.WritingService, maxUploadMB int64) *WritingHandler {
	return &WritingHandler{
		log:            log,
		writing:        writing,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: maxUploadMB << 20,
	}
}

// AssessRequest is the JSON body for the email and essay parts.
type AssessRequest struct {
	Text           string `json:"text" validate:"required,min=1"`
	PartType       string `json:"part_type" validate:"required,oneof=respond_request opinion_essay"`
	QuestionNumber int    `json:"question_number" validate:"required,min=1,max=8"`
	Prompt         string `json:"prompt"`
}

// Assess handles POST /api/v1/assess/writing (parts 2 and 3).
func (h *WritingHandler) Assess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, errors.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.handleError(w, errors.Validationf("invalid request: %v", err))
		return
	}

	result, err := h.writing.Assess(ctx, service.WritingRequest{
		Text:           req.Text,
		PartType:       req.PartType,
		QuestionNumber: req.QuestionNumber,
		Prompt:         req.Prompt,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// AssessSentence handles POST /api/v1/assess/writing/sentence (part 1).
//
// Request: multipart/form-data with fields
//
//	text             the sentence (required)
//	question_number  int 1-5 (required)
//	image            picture file (required)
func (h *WritingHandler) AssessSentence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.handleError(w, errors.Validation("failed to parse multipart form"))
		return
	}

	text := r.FormValue("text")
	if text == "" {
		h.handleError(w, errors.Validation("text is required"))
		return
	}
	questionNumber, err := strconv.Atoi(r.FormValue("question_number"))
	if err != nil || questionNumber < 1 || questionNumber > 5 {
		h.handleError(w, errors.Validation("question_number must be between 1 and 5"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.handleError(w, errors.Validation("image is required"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		h.handleError(w, errors.Validation("failed to read image"))
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	result, err := h.writing.Assess(ctx, service.WritingRequest{
		Text:           text,
		PartType:       service.PartWriteSentence,
		QuestionNumber: questionNumber,
		Image:          image,
		ImageMime:      mimeType,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *WritingHandler) handleError(w http.ResponseWriter, err error) {
	if _, ok := err.(*errors.AppError); !ok {
		h.log.Error().Err(err).Msg("writing assessment failed")
	}
	response.Error(w, err)
}
