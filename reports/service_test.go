package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamreports/models"
	"teamreports/sheets"
	"teamreports/store"
	"teamreports/store/storetest"
	"teamreports/templates"
)

type fakeSyncer struct {
	err     error
	entries []sheets.Entry
}

func (f *fakeSyncer) Sync(ctx context.Context, e sheets.Entry) error {
	f.entries = append(f.entries, e)
	return f.err
}

type recordingFeed struct {
	reports []*models.Report
}

func (r *recordingFeed) Publish(report *models.Report) {
	r.reports = append(r.reports, report)
}

type fixture struct {
	store    *store.Store
	registry *templates.Registry
	service  *Service
	syncer   *fakeSyncer
	feed     *recordingFeed
	team     *models.Team
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.New(storetest.OpenDB(t))
	reg, err := templates.NewRegistry(s, templates.DefaultCatalog())
	require.NoError(t, err)

	require.NoError(t, s.CreateUser(ctx, &models.User{TelegramID: 1, FirstName: "Ann"}))
	team := &models.Team{Name: "Ops", CreatedBy: 1}
	require.NoError(t, s.CreateTeam(ctx, team))

	syncer := &fakeSyncer{}
	feed := &recordingFeed{}
	svc := NewService(s, reg).WithSyncer(syncer, 0).WithPublisher(feed)
	return &fixture{store: s, registry: reg, service: svc, syncer: syncer, feed: feed, team: team}
}

func validGeneral() models.Answers {
	return models.Answers{
		"title":       models.Text("Quarterly review"),
		"description": models.Text("All good"),
		"date":        models.Text("2024-05-01"),
	}
}

func validActivity() models.Answers {
	return models.Answers{
		"event_name":      models.Text("Sports day"),
		"start_date":      models.Text("2024-05-01"),
		"end_date":        models.Text("2024-05-02T18:00:00Z"),
		"total_students":  models.Number(40),
		"first_year":      models.Text("10"),
		"second_year":     models.Number(10),
		"third_year":      models.Number(10),
		"fourth_year":     models.Number(5),
		"masters":         models.Number(5),
		"male_students":   models.Number(20),
		"female_students": models.Number(20),
	}
}

func TestSubmitLegacyDefaults(t *testing.T) {
	f := newFixture(t)

	res, err := f.service.Submit(context.Background(), Submission{
		UserID: 1, TeamID: f.team.ID,
		Title: " t ", Description: "d", Category: "Other",
	})
	require.NoError(t, err)
	r := res.Report
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "t", r.Title)
	assert.Nil(t, r.TemplateID)
	assert.Equal(t, models.PriorityMedium, *r.Priority)
	assert.Equal(t, models.StatusPending, *r.Status)
	assert.Empty(t, res.SyncWarning)

	require.Len(t, f.syncer.entries, 1)
	assert.Nil(t, f.syncer.entries[0].Template)
	assert.Len(t, f.feed.reports, 1)
}

func TestSubmitLegacyCollectsAllErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Submit(context.Background(), Submission{
		UserID: 1, TeamID: f.team.ID, Title: "  ", Priority: "urgent",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "category")
	assert.Contains(t, verr.Fields, "priority")

	reports, err := f.store.ListReports(context.Background(), store.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Empty(t, f.syncer.entries)
}

func TestSubmitRequiresUserAndTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Submit(ctx, Submission{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "userId")
	assert.Contains(t, verr.Fields, "teamId")

	_, err = f.service.Submit(ctx, Submission{UserID: 1, TeamID: "missing"})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	_, err = f.service.Submit(ctx, Submission{UserID: 404, TeamID: f.team.ID})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSubmitEveryRequiredFieldIsEnforced(t *testing.T) {
	for _, tpl := range templates.DefaultCatalog() {
		valid := validGeneral()
		if tpl.Key != "general" {
			valid = validActivity()
		}
		for _, field := range tpl.Fields {
			if !field.Required {
				continue
			}
			t.Run(tpl.Key+"/"+field.ID, func(t *testing.T) {
				f := newFixture(t)
				answers := models.Answers{}
				for k, v := range valid {
					if k != field.ID {
						answers[k] = v
					}
				}
				answers["unrelated"] = models.Text("x")

				_, err := f.service.Submit(context.Background(), Submission{
					UserID: 1, TeamID: f.team.ID, TemplateID: tpl.ID, Answers: answers,
				})
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, field.ID)
				assert.Len(t, verr.Fields, 1)
			})
		}
	}
}

func TestSubmitTemplatedSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Submit(ctx, Submission{
		UserID: 1, TeamID: f.team.ID, TemplateID: "student_activity", Answers: validActivity(),
	})
	require.NoError(t, err)
	r := res.Report
	require.NotNil(t, r.TemplateID)
	assert.Equal(t, "student_activity_template", *r.TemplateID)
	assert.Equal(t, "Sports day", r.Title)
	assert.Nil(t, r.Priority)
	assert.True(t, f.registry.Synced())

	stored, err := f.store.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, validActivity(), stored.Answers)

	require.Len(t, f.syncer.entries, 1)
	assert.Equal(t, "Student Activity Report", f.syncer.entries[0].Template.Name)
}

func TestSubmitNumberBounds(t *testing.T) {
	f := newFixture(t)
	answers := validActivity()
	answers["total_students"] = models.Number(-1)
	answers["masters"] = models.Text("many")
	answers["start_date"] = models.Text("yesterday")

	_, err := f.service.Submit(context.Background(), Submission{
		UserID: 1, TeamID: f.team.ID, TemplateID: "student_activity_template", Answers: answers,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, verr.Fields["total_students"], "at least 0")
	assert.Contains(t, verr.Fields["masters"], "must be a number")
	assert.Contains(t, verr.Fields, "start_date")
}

func TestSubmitUsesTeamTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.registry.EnsureSynced(ctx))
	_, err := f.store.UpdateTeam(ctx, f.team.ID, store.TeamPatch{TemplateID: models.Some("general_report_template")})
	require.NoError(t, err)

	_, err = f.service.Submit(ctx, Submission{UserID: 1, TeamID: f.team.ID, Title: "t", Description: "d", Category: "c"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Answers are required", verr.Fields["answers"])

	res, err := f.service.Submit(ctx, Submission{UserID: 1, TeamID: f.team.ID, Answers: validGeneral()})
	require.NoError(t, err)
	assert.Equal(t, "Quarterly review", res.Report.Title)
}

func TestSubmitDanglingTeamTemplateFallsBackToLegacy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateTemplate(ctx, &models.Template{ID: "retired", Key: "retired", Name: "Retired"}))
	_, err := f.store.UpdateTeam(ctx, f.team.ID, store.TeamPatch{TemplateID: models.Some("retired")})
	require.NoError(t, err)

	res, err := f.service.Submit(ctx, Submission{UserID: 1, TeamID: f.team.ID, Title: "t", Description: "d", Category: "c"})
	require.NoError(t, err)
	assert.Nil(t, res.Report.TemplateID)
}

func TestSubmitUnknownExplicitTemplate(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Submit(context.Background(), Submission{
		UserID: 1, TeamID: f.team.ID, TemplateID: "nope", Answers: validGeneral(),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "template not found", verr.Fields["templateId"])
}

func TestSubmitSurvivesSheetFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.syncer.err = errors.New("sheets down")

	res, err := f.service.Submit(ctx, Submission{UserID: 1, TeamID: f.team.ID, Title: "t", Description: "d", Category: "c"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SyncWarning)

	_, err = f.store.GetReport(ctx, res.Report.ID)
	assert.NoError(t, err)
}

func TestSubmitCanSkipSheetSync(t *testing.T) {
	f := newFixture(t)
	off := false

	_, err := f.service.Submit(context.Background(), Submission{
		UserID: 1, TeamID: f.team.ID, Title: "t", Description: "d", Category: "c", SyncToSheets: &off,
	})
	require.NoError(t, err)
	assert.Empty(t, f.syncer.entries)
}

func TestTemplatedTitleFallback(t *testing.T) {
	tpl := &models.Template{Name: "Weekly"}
	assert.Equal(t, "Weekly report", templatedTitle(Submission{}, tpl))
	assert.Equal(t, "req", templatedTitle(Submission{Title: "req"}, tpl))
	assert.Equal(t, "ev", templatedTitle(Submission{Title: "req", Answers: models.Answers{"event_name": models.Text("ev")}}, tpl))
}

func TestValidateAnswersSelect(t *testing.T) {
	tpl := &models.Template{Fields: []models.TemplateField{
		{ID: "shift", Label: "Shift", Type: models.FieldSelect, Options: []string{"day", "night"}},
	}}
	assert.Empty(t, ValidateAnswers(tpl, models.Answers{"shift": models.Text("night")}))
	assert.Contains(t, ValidateAnswers(tpl, models.Answers{"shift": models.Text("noon")}), "shift")
	assert.Empty(t, ValidateAnswers(tpl, models.Answers{}))
}

func TestUpdateValidatesEnums(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.service.Submit(ctx, Submission{UserID: 1, TeamID: f.team.ID, Title: "t", Description: "d", Category: "c"})
	require.NoError(t, err)

	bad := "done"
	_, err = f.service.Update(ctx, res.Report.ID, store.ReportPatch{Status: &bad})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	good := models.StatusCompleted
	updated, err := f.service.Update(ctx, res.Report.ID, store.ReportPatch{Status: &good})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, *updated.Status)

	_, err = f.service.Update(ctx, "missing", store.ReportPatch{Status: &good})
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestSubmitRejectsNonDecimalNumbers(t *testing.T) {
	f := newFixture(t)
	answers := validActivity()
	answers["total_students"] = models.Text("NaN")
	answers["first_year"] = models.Text("Inf")
	answers["second_year"] = models.Text("0x1p4")
	answers["third_year"] = models.Text("1_000")
	answers["masters"] = models.Text(" 3.5 ")

	_, err := f.service.Submit(context.Background(), Submission{
		UserID: 1, TeamID: f.team.ID, TemplateID: "student_activity", Answers: answers,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	for _, id := range []string{"total_students", "first_year", "second_year", "third_year"} {
		assert.Contains(t, verr.Fields[id], "must be a number", id)
	}

	reports, err := f.store.ListReports(context.Background(), store.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestUpdateRevalidatesAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.service.Submit(ctx, Submission{
		UserID: 1, TeamID: f.team.ID, TemplateID: "general", Answers: validGeneral(),
	})
	require.NoError(t, err)
	id := res.Report.ID

	var verr *ValidationError
	_, err = f.service.Update(ctx, id, store.ReportPatch{Answers: models.Answers{}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "answers")

	_, err = f.service.Update(ctx, id, store.ReportPatch{Answers: models.Answers{"title": models.Text("Only a title")}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "date")

	stored, err := f.store.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, validGeneral(), stored.Answers)

	next := validGeneral()
	next["date"] = models.Text("2024-06-01")
	updated, err := f.service.Update(ctx, id, store.ReportPatch{Answers: next})
	require.NoError(t, err)
	assert.Equal(t, next, updated.Answers)
}

func TestUpdateKeepsReportShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	templated, err := f.service.Submit(ctx, Submission{
		UserID: 1, TeamID: f.team.ID, TemplateID: "general", Answers: validGeneral(),
	})
	require.NoError(t, err)
	high, done := models.PriorityHigh, models.StatusCompleted
	_, err = f.service.Update(ctx, templated.Report.ID, store.ReportPatch{Priority: &high, Status: &done})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "priority")
	assert.Contains(t, verr.Fields, "status")

	legacy, err := f.service.Submit(ctx, Submission{UserID: 1, TeamID: f.team.ID, Title: "t", Description: "d", Category: "c"})
	require.NoError(t, err)
	blank := " "
	_, err = f.service.Update(ctx, legacy.Report.ID, store.ReportPatch{
		Answers:     validGeneral(),
		Description: &blank,
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "answers")
	assert.Contains(t, verr.Fields, "description")

	stored, err := f.store.GetReport(ctx, legacy.Report.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Answers)
	assert.Equal(t, "d", *stored.Description)
}
