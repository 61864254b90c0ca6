package http

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toeicgenius/assessment_service/internal/errors"
	"github.com/toeicgenius/assessment_service/internal/service"
	"github.com/toeicgenius/assessment_service/pkg/response"
)

// SpeakingHandler handles the speaking assessment endpoint.
type SpeakingHandler struct {
	log            zerolog.Logger
	speaking       *service.SpeakingService
	maxUploadBytes int64
}

func NewSpeakingHandler(log zerolog.Logger, speaking *service.SpeakingService, maxUploadMB int64) *SpeakingHandler {
	return &SpeakingHandler{
		log:            log,
		speaking:       speaking,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// Assess handles POST /api/v1/assess/speaking.
//
// Request: multipart/form-data with fields
//
//	file             wav audio (required)
//	question_type    read_aloud | describe_picture | respond_questions |
//	                 respond_with_info | express_opinion (required)
//	question_number  int (optional)
//	reference_text   required for read_aloud
//	picture          image file for describe_picture
//	expected_content alternative picture reference for describe_picture
//	question_context schedule text or question prompt
func (h *SpeakingHandler) Assess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.handleError(w, errors.Validation("failed to parse multipart form"))
		return
	}

	questionType := r.FormValue("question_type")
	if questionType == "" {
		h.handleError(w, errors.Validation("question_type is required"))
		return
	}
	questionNumber, _ := strconv.Atoi(r.FormValue("question_number"))

	file, _, err := r.FormFile("file")
	if err != nil {
		h.handleError(w, errors.Validation("file is required"))
		return
	}
	defer file.Close()

	audioPath, err := h.saveAudio(file)
	if err != nil {
		h.handleError(w, errors.InternalWrap("failed to store audio upload", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(filepath.Dir(audioPath)); err != nil {
			h.log.Warn().Err(err).Str("path", audioPath).Msg("temp audio cleanup failed")
		}
	}()

	req := service.SpeakingRequest{
		AudioPath:       audioPath,
		TaskType:        questionType,
		QuestionNumber:  questionNumber,
		ReferenceText:   r.FormValue("reference_text"),
		ExpectedContent: r.FormValue("expected_content"),
		QuestionContext: r.FormValue("question_context"),
	}

	if picture, header, err := r.FormFile("picture"); err == nil {
		defer picture.Close()
		image, err := io.ReadAll(picture)
		if err != nil {
			h.handleError(w, errors.Validation("failed to read picture"))
			return
		}
		req.Image = image
		req.ImageMime = header.Header.Get("Content-Type")
		if req.ImageMime == "" {
			req.ImageMime = "image/jpeg"
		}
	}

	result, err := h.speaking.Assess(ctx, req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// saveAudio writes the upload to its own temp directory so the local
// audio measurements can work from a file path.
func (h *SpeakingHandler) saveAudio(file io.Reader) (string, error) {
	dir, err := os.MkdirTemp("", "assess-audio-")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, uuid.NewString()+".wav")

	out, err := os.Create(path)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}

func (h *SpeakingHandler) handleError(w http.ResponseWriter, err error) {
	if _, ok := err.(*errors.AppError); !ok {
		h.log.Error().Err(err).Msg("speaking assessment failed")
	}
	response.Error(w, err)
}
