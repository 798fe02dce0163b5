package forms

import (
	"context"
	"strings"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/validate"
)

type ProgressSubmitter interface {
	SubmitProgress(ctx context.Context, challengeID string, req types.ProgressRequest) error
}

// ProgressForm records progress against one milestone of a challenge
type ProgressForm struct {
	ChallengeID string
	MilestoneID string
	Description string
	Attachments []string
}

type progressInput struct {
	MilestoneID string `json:"milestone" validate:"required"`
	Description string `json:"description" validate:"required,min=1"`
}

var progressMessages = map[string]string{
	"milestone":   "Select a milestone",
	"description": "Describe your progress",
}

func (f *ProgressForm) Validate() FieldErrors {
	return validate.Struct(progressInput{
		MilestoneID: f.MilestoneID,
		Description: strings.TrimSpace(f.Description),
	}, progressMessages)
}

// Submit sends the progress entry when the form is valid
func (f *ProgressForm) Submit(ctx context.Context, api ProgressSubmitter) error {
	if errs := f.Validate(); errs != nil {
		return errs
	}

	attachments := make([]string, 0, len(f.Attachments))
	for _, a := range f.Attachments {
		if a = strings.TrimSpace(a); a != "" {
			attachments = append(attachments, a)
		}
	}
	if len(attachments) == 0 {
		attachments = nil
	}

	return api.SubmitProgress(ctx, f.ChallengeID, types.ProgressRequest{
		MilestoneID: f.MilestoneID,
		Description: strings.TrimSpace(f.Description),
		Attachments: attachments,
	})
}
