package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/validate"
)

// Choices offered by the challenge form
var (
	Categories  = []string{"Programming", "Design", "Writing", "Fitness", "Learning", "Personal Development"}
	Frequencies = []string{"daily", "weekly", "monthly", "custom"}
	ProofTypes  = []string{"text", "photo", "video", "integration"}
)

var difficultyMap = map[types.Difficulty]types.Difficulty{
	types.DifficultyEasy:   types.DifficultyBeginner,
	types.DifficultyMedium: types.DifficultyIntermediate,
	types.DifficultyHard:   types.DifficultyAdvanced,
}

type MilestoneInput struct {
	Title       string
	Description string
	Points      int
}

// ChallengeData is everything the creation flow collects
type ChallengeData struct {
	Title           string
	Description     string
	Category        string
	Difficulty      types.Difficulty
	StartDate       time.Time
	EndDate         time.Time
	Frequency       string
	ProofType       string
	MaxParticipants int
	Points          int
	IsTeamChallenge bool
	MinTeamSize     int
	MaxTeamSize     int
	Achievement     types.CustomAchievement
	Milestones      []MilestoneInput
}

type basicInfo struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

type logistics struct {
	StartDate       time.Time `json:"startDate" validate:"required"`
	EndDate         time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
	Frequency       string    `json:"frequency" validate:"required,oneof=daily weekly monthly custom"`
	ProofType       string    `json:"proofType" validate:"required,oneof=text photo video integration"`
	MaxParticipants int       `json:"maxParticipants" validate:"gte=0"`
}

type rewards struct {
	Points int `json:"points" validate:"gt=0"`
}

type teamSizes struct {
	MinTeamSize int `json:"minTeamSize" validate:"gte=2"`
	MaxTeamSize int `json:"maxTeamSize" validate:"gtefield=MinTeamSize"`
}

type milestone struct {
	Title string `json:"title" validate:"required"`
}

var challengeMessages = map[string]string{
	"title":            "Title is required",
	"description":      "Description is required",
	"category":         "Category is required",
	"difficulty":       "Difficulty is required",
	"startDate":        "Start date is required",
	"endDate.required": "End date is required",
	"endDate.gtfield":  "End date must be after start date",
	"frequency":        "Frequency is required",
	"proofType":        "Proof type is required",
	"maxParticipants":  "Max participants cannot be negative",
	"points":           "Valid points required",
	"minTeamSize":      "Min 2 team members",
	"maxTeamSize":      "Max team size must be >= min size",
}

var milestoneMessages = map[string]string{
	"title": "Milestone title required",
}

// Challenge creation steps
const (
	StepBasicInfo = iota
	StepLogistics
	StepRewards
	StepMilestones
)

func checkBasicInfo(d *ChallengeData) FieldErrors {
	return validate.Struct(basicInfo{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Category:    d.Category,
		Difficulty:  string(d.Difficulty),
	}, challengeMessages)
}

func checkLogistics(d *ChallengeData) FieldErrors {
	return validate.Struct(logistics{
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		Frequency:       d.Frequency,
		ProofType:       d.ProofType,
		MaxParticipants: d.MaxParticipants,
	}, challengeMessages)
}

func checkRewards(d *ChallengeData) FieldErrors {
	errs := validate.Struct(rewards{Points: d.Points}, challengeMessages)
	if !d.IsTeamChallenge {
		return errs
	}
	for field, msg := range validate.Struct(teamSizes{MinTeamSize: d.MinTeamSize, MaxTeamSize: d.MaxTeamSize}, challengeMessages) {
		if errs == nil {
			errs = FieldErrors{}
		}
		errs[field] = msg
	}
	return errs
}

func checkMilestones(d *ChallengeData) FieldErrors {
	var errs FieldErrors
	for i, m := range d.Milestones {
		for field, msg := range validate.Struct(milestone{Title: strings.TrimSpace(m.Title)}, milestoneMessages) {
			if errs == nil {
				errs = FieldErrors{}
			}
			errs[fmt.Sprintf("milestones[%d].%s", i, field)] = msg
		}
	}
	return errs
}

// ChallengeCreator issues the create request
type ChallengeCreator interface {
	CreateChallenge(ctx context.Context, req types.CreateChallengeRequest) (types.ChallengeSummary, error)
}

// ChallengeForm is the four-step challenge creation flow
type ChallengeForm struct {
	*Wizard[ChallengeData]
}

// NewChallengeForm starts a form with the usual defaults: 100 points, teams
// of 2 to 5 and one empty milestone
func NewChallengeForm() *ChallengeForm {
	return &ChallengeForm{Wizard: NewWizard(ChallengeData{
		Points:      100,
		MinTeamSize: 2,
		MaxTeamSize: 5,
		Milestones:  []MilestoneInput{{Points: 50}},
	},
		Step[ChallengeData]{Title: "Basic Info", Validate: checkBasicInfo},
		Step[ChallengeData]{Title: "Time & Logistics", Validate: checkLogistics},
		Step[ChallengeData]{Title: "Teams & Rewards", Validate: checkRewards},
		Step[ChallengeData]{Title: "Milestones", Validate: checkMilestones},
	)}
}

// AddMilestone appends an empty milestone
func (f *ChallengeForm) AddMilestone() {
	d := f.Data()
	d.Milestones = append(d.Milestones, MilestoneInput{Points: 50})
}

// RemoveMilestone drops milestone i. The last milestone cannot be removed.
func (f *ChallengeForm) RemoveMilestone(i int) bool {
	d := f.Data()
	if len(d.Milestones) <= 1 || i < 0 || i >= len(d.Milestones) {
		return false
	}
	d.Milestones = append(d.Milestones[:i:i], d.Milestones[i+1:]...)
	return true
}

// Request maps the form onto the backend request shape
func (f *ChallengeForm) Request(creator string) types.CreateChallengeRequest {
	d := f.Data()

	difficulty, ok := difficultyMap[d.Difficulty]
	if !ok {
		difficulty = d.Difficulty
	}
	if creator == "" {
		creator = "anonymous"
	}

	req := types.CreateChallengeRequest{
		Name:            strings.TrimSpace(d.Title),
		Description:     strings.TrimSpace(d.Description),
		Category:        strings.ToLower(d.Category),
		Difficulty:      difficulty,
		Frequency:       d.Frequency,
		ProofType:       d.ProofType,
		StartDate:       d.StartDate.UTC().Format(time.RFC3339),
		EndDate:         d.EndDate.UTC().Format(time.RFC3339),
		Points:          d.Points,
		IsTeamChallenge: d.IsTeamChallenge,
		Creator:         creator,
	}
	if d.MaxParticipants > 0 {
		n := d.MaxParticipants
		req.MaxParticipants = &n
	}
	if d.IsTeamChallenge {
		req.TeamSettings = &types.TeamSettings{MinSize: d.MinTeamSize, MaxSize: d.MaxTeamSize}
	}
	if strings.TrimSpace(d.Achievement.Title) != "" {
		a := d.Achievement
		req.CustomAchievement = &a
	}
	for _, m := range d.Milestones {
		if strings.TrimSpace(m.Title) == "" {
			continue
		}
		req.Milestones = append(req.Milestones, types.Milestone{
			Title:       strings.TrimSpace(m.Title),
			Description: m.Description,
			Points:      m.Points,
		})
	}
	return req
}

// Submit validates every step and sends one create request. A validation
// failure moves the wizard to the offending step and returns its
// FieldErrors. A server failure is returned as is and the form keeps its
// contents for correction.
func (f *ChallengeForm) Submit(ctx context.Context, api ChallengeCreator, creator string) (types.ChallengeSummary, error) {
	if step, errs := f.Validate(); errs != nil {
		f.current = step
		f.errors = errs
		return types.ChallengeSummary{}, errs
	}
	return api.CreateChallenge(ctx, f.Request(creator))
}
