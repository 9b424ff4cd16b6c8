package syncx

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mind-engage/mindengage-tka/internal/exam"
)

// ErrInvalidPayload is returned for sync documents and backup files that are
// missing a required field or do not have the expected shape.
var ErrInvalidPayload = errors.New("invalid payload")

// Payload is the validated content of a remote sync document or backup file.
type Payload struct {
	Questions []exam.Question
	Settings  exam.SchoolSettings
}

// Backup is the document produced by Export and accepted by Merger.Import.
type Backup struct {
	Questions []exam.Question     `json:"questions"`
	Settings  exam.SchoolSettings `json:"settings"`
	Timestamp time.Time           `json:"timestamp"`
}

// DecodePayload parses raw and checks that both questions and settings are
// present, well-formed and individually valid. Any other fields are ignored.
func DecodePayload(raw []byte) (Payload, error) {
	var doc struct {
		Questions json.RawMessage `json:"questions"`
		Settings  json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var merr *multierror.Error
	if missing(doc.Questions) {
		merr = multierror.Append(merr, errors.New("questions: required"))
	}
	if missing(doc.Settings) {
		merr = multierror.Append(merr, errors.New("settings: required"))
	}
	if err := merr.ErrorOrNil(); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var p Payload
	if err := json.Unmarshal(doc.Questions, &p.Questions); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("questions: %v", err))
	} else if err := exam.ValidateQuestions(p.Questions); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := json.Unmarshal(doc.Settings, &p.Settings); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("settings: %v", err))
	} else if err := exam.ValidateSettings(p.Settings); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if p.Questions == nil {
		p.Questions = []exam.Question{}
	}
	return p, nil
}

func missing(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
