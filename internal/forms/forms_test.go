package forms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/session"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

type progressRecorder struct {
	id  string
	req types.ProgressRequest
}

func (p *progressRecorder) SubmitProgress(ctx context.Context, id string, req types.ProgressRequest) error {
	p.id, p.req = id, req
	return nil
}

func TestProgressForm(t *testing.T) {
	rec := &progressRecorder{}

	f := ProgressForm{ChallengeID: "c1", Description: "   "}
	err := f.Submit(context.Background(), rec)
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "milestone")
	assert.Contains(t, fe, "description")
	assert.Empty(t, rec.id)

	f = ProgressForm{ChallengeID: "c1", MilestoneID: "m1", Description: " ran 5k ", Attachments: []string{"", "proof.jpg"}}
	require.NoError(t, f.Submit(context.Background(), rec))
	assert.Equal(t, "c1", rec.id)
	assert.Equal(t, types.ProgressRequest{MilestoneID: "m1", Description: "ran 5k", Attachments: []string{"proof.jpg"}}, rec.req)
}

type authRecorder struct {
	calls int
}

func (a *authRecorder) Login(ctx context.Context, email, password string) session.Result {
	a.calls++
	return session.Result{Success: true}
}

func (a *authRecorder) Register(ctx context.Context, email, password, firstName, lastName string) session.Result {
	a.calls++
	return session.Result{Success: true}
}

func TestRegisterForm(t *testing.T) {
	auth := &authRecorder{}

	f := RegisterForm{FirstName: "Ana", LastName: "Lee", Email: "ana@example.com", Password: "secret1", ConfirmPassword: "secret2"}
	res, errs := f.Submit(context.Background(), auth)
	assert.False(t, res.Success)
	assert.Equal(t, "Passwords do not match", errs["confirmPassword"])
	assert.Zero(t, auth.calls)

	f.Password, f.ConfirmPassword = "abc", "abc"
	assert.Equal(t, "Password must be at least 6 characters long", f.Validate()["password"])

	f.Password, f.ConfirmPassword = "secret1", "secret1"
	res, errs = f.Submit(context.Background(), auth)
	assert.Nil(t, errs)
	assert.True(t, res.Success)
	assert.Equal(t, 1, auth.calls)
}

func TestLoginForm(t *testing.T) {
	auth := &authRecorder{}

	res, errs := LoginForm{Email: "nope", Password: "password123"}.Submit(context.Background(), auth)
	assert.Equal(t, "Enter a valid email address", res.Error)
	assert.Len(t, errs, 1)

	res, errs = LoginForm{Email: "demo@example.com", Password: "password123"}.Submit(context.Background(), auth)
	assert.True(t, res.Success)
	assert.Nil(t, errs)
}
