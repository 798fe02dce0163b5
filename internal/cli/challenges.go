package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/princekumarofficial/challenge-tracker/internal/forms"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate"
)

func NewChallengesCommand(opts *RootOptions) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "challenges",
		Short: "List challenges",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			src, err := app.source()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ch, stop := app.channel(ctx, follow)
			defer stop()

			list := viewstate.NewChallengeList(src, ch, app.feed, app.logger)
			defer list.Unmount()

			state, err := load(ctx, list.View)
			if err != nil {
				return err
			}
			show := func(s viewstate.ChallengeListState) error { return printChallenges(app.out, s.Challenges) }
			if err := show(state); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return watch(ctx, list.View, show)
		}),
	}
	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "keep printing live updates until interrupted")
	return cmd
}

func printChallenges(p *Printer, list []types.ChallengeSummary) error {
	return p.Emit(list, func(w io.Writer) error {
		rows := make([][]string, 0, len(list))
		for _, c := range list {
			rows = append(rows, []string{
				c.ID, c.Title, c.Category, c.Difficulty,
				strconv.Itoa(c.ParticipantCount), strconv.Itoa(c.LikeCount),
				strconv.Itoa(c.PointsReward), strconv.Itoa(c.DaysRemaining),
			})
		}
		return table(w, []string{"ID", "TITLE", "CATEGORY", "DIFFICULTY", "PARTICIPANTS", "LIKES", "POINTS", "DAYS LEFT"}, rows)
	})
}

func NewChallengeCommand(opts *RootOptions) *cobra.Command {
	var (
		like    bool
		join    bool
		remove  bool
		comment string
		title   string
		follow  bool
	)

	cmd := &cobra.Command{
		Use:   "challenge <id>",
		Short: "Show one challenge, optionally joining, commenting on or toggling its like",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			src, err := app.source()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id := args[0]

			if join || remove || comment != "" || title != "" {
				if err := app.requireSession(); err != nil {
					return err
				}
			}
			if remove {
				if err := app.client.DeleteChallenge(ctx, id); err != nil {
					return err
				}
				return app.out.Message("Challenge deleted")
			}
			if title != "" {
				if _, err := app.client.UpdateChallenge(ctx, id, types.ChallengePatch{ID: id, Title: &title}); err != nil {
					return err
				}
			}
			if join {
				if err := app.client.JoinChallenge(ctx, id); err != nil {
					return err
				}
			}
			if comment != "" {
				if err := app.client.Comment(ctx, id, comment); err != nil {
					return err
				}
			}

			ch, stop := app.channel(ctx, follow)
			defer stop()

			detail := viewstate.NewChallengeDetail(id, src, ch, app.feed, app.logger)
			defer detail.Unmount()

			if _, err := load(ctx, detail.View); err != nil {
				return err
			}
			if like {
				if err := detail.ToggleLike(ctx); err != nil {
					return err
				}
			}

			show := func(s viewstate.ChallengeDetailState) error { return printChallenge(app.out, s) }
			state, _, _ := detail.Snapshot()
			if err := show(state); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return watch(ctx, detail.View, show)
		}),
	}
	fl := cmd.Flags()
	fl.BoolVar(&like, "like", false, "toggle your like")
	fl.BoolVar(&join, "join", false, "join the challenge")
	fl.StringVar(&comment, "comment", "", "post a comment")
	fl.StringVar(&title, "title", "", "rename a challenge you created")
	fl.BoolVar(&remove, "delete", false, "delete a challenge you created")
	fl.BoolVarP(&follow, "watch", "w", false, "keep printing live updates until interrupted")
	cmd.MarkFlagsMutuallyExclusive("delete", "join")
	cmd.MarkFlagsMutuallyExclusive("delete", "like")
	cmd.MarkFlagsMutuallyExclusive("delete", "watch")
	return cmd
}

func printChallenge(p *Printer, s viewstate.ChallengeDetailState) error {
	return p.Emit(s, func(w io.Writer) error {
		c := s.Challenge
		fmt.Fprintf(w, "%s  [%s, %s]\n", c.Title, c.Category, c.Difficulty)
		if c.Description != "" {
			fmt.Fprintf(w, "%s\n", c.Description)
		}
		fmt.Fprintf(w, "Progress: %.0f%%  Participants: %d  Likes: %d  Liked: %s  Points: %d  Days left: %d\n",
			c.ProgressPercent, c.ParticipantCount, c.LikeCount, yesNo(c.IsLiked), c.PointsReward, c.DaysRemaining)
		for _, pj := range s.Participants {
			fmt.Fprintf(w, "  + %s joined\n", pj.Username)
		}
		return nil
	})
}

type createFlags struct {
	difficulty  string
	start       string
	end         string
	milestones  []string
	achievement string
}

func NewCreateCommand(opts *RootOptions) *cobra.Command {
	form := forms.NewChallengeForm()
	data := form.Data()
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a challenge",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			if err := f.apply(data); err != nil {
				return err
			}

			created, err := form.Submit(cmd.Context(), app.client, app.session.Current().DisplayName)
			var fieldErrs forms.FieldErrors
			if errors.As(err, &fieldErrs) {
				return fmt.Errorf("%s: %w", form.Title(), fieldErrs)
			}
			if err != nil {
				return err
			}
			return app.out.Emit(created, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created challenge %s (%s)\n", created.Title, created.ID)
				return err
			})
		}),
	}

	fl := cmd.Flags()
	fl.StringVar(&data.Title, "title", "", "challenge title")
	fl.StringVar(&data.Description, "description", "", "what participants do")
	fl.StringVar(&data.Category, "category", "", fmt.Sprintf("one of %v", forms.Categories))
	fl.StringVar(&f.difficulty, "difficulty", "", "easy, medium or hard")
	fl.StringVar(&f.start, "start", "", "start date (YYYY-MM-DD, default today)")
	fl.StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	fl.StringVar(&data.Frequency, "frequency", "daily", fmt.Sprintf("one of %v", forms.Frequencies))
	fl.StringVar(&data.ProofType, "proof", "text", fmt.Sprintf("one of %v", forms.ProofTypes))
	fl.IntVar(&data.MaxParticipants, "max-participants", 0, "participant cap (0 for none)")
	fl.IntVar(&data.Points, "points", data.Points, "points for completing")
	fl.BoolVar(&data.IsTeamChallenge, "team", false, "team challenge")
	fl.IntVar(&data.MinTeamSize, "min-team", data.MinTeamSize, "minimum team size")
	fl.IntVar(&data.MaxTeamSize, "max-team", data.MaxTeamSize, "maximum team size")
	fl.StringArrayVar(&f.milestones, "milestone", nil, "milestone title (repeatable)")
	fl.StringVar(&f.achievement, "achievement", "", "custom achievement title")
	return cmd
}

const dateLayout = "2006-01-02"

func (f *createFlags) apply(d *forms.ChallengeData) error {
	d.Difficulty = types.Difficulty(f.difficulty)

	d.StartDate = time.Now().UTC().Truncate(24 * time.Hour)
	if f.start != "" {
		t, err := time.Parse(dateLayout, f.start)
		if err != nil {
			return fmt.Errorf("invalid --start %q: %w", f.start, err)
		}
		d.StartDate = t
	}
	if f.end != "" {
		t, err := time.Parse(dateLayout, f.end)
		if err != nil {
			return fmt.Errorf("invalid --end %q: %w", f.end, err)
		}
		d.EndDate = t
	}

	if len(f.milestones) > 0 {
		d.Milestones = d.Milestones[:0]
		for _, title := range f.milestones {
			d.Milestones = append(d.Milestones, forms.MilestoneInput{Title: title, Points: 50})
		}
	}
	d.Achievement.Title = f.achievement
	return nil
}

func NewProgressCommand(opts *RootOptions) *cobra.Command {
	form := &forms.ProgressForm{}

	cmd := &cobra.Command{
		Use:   "progress <challenge-id>",
		Short: "Log progress on a joined challenge",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			form.ChallengeID = args[0]
			if err := form.Submit(cmd.Context(), app.client); err != nil {
				return err
			}
			return app.out.Message("Progress recorded")
		}),
	}
	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "what you did")
	cmd.Flags().StringVarP(&form.MilestoneID, "milestone", "m", "1", "milestone the entry counts toward")
	cmd.Flags().StringArrayVar(&form.Attachments, "attach", nil, "attachment reference (repeatable)")
	return cmd
}
