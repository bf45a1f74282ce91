package service

import (
	"context"
	"testing"

	"formbox/internal/codec"
	"formbox/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormImportExportRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	forms, _, bus, _, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	doc := []byte(`{
  "title": "Imported",
  "steps": [
    {"id": "s1", "title": "One", "questions": [
      {"id": "q1", "type": "short-text", "title": "Name", "required": true}
    ]}
  ]
}`)

	form, err := forms.ImportForm(ctx, "tester", doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "Imported", form.Title)
	assert.Equal(t, 1, form.Version)
	assert.True(t, bus.has("form.created"))

	exported, err := forms.ExportForm(ctx, form.ID)
	require.NoError(t, err)

	again, err := codec.Decode(exported)
	require.NoError(t, err)
	assert.Equal(t, form.Config, *again)
}

func TestFormImportRejectsGarbage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	forms, _, _, _, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	_, err := forms.ImportForm(ctx, "tester", []byte("not json"), nil)
	var parseErr *codec.ParseError
	assert.ErrorAs(t, err, &parseErr)

	_, err = forms.ImportForm(ctx, "tester", []byte(`{"title": "no steps"}`), nil)
	var validationErr *codec.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestFormUpdateBumpsVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	forms, _, _, _, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	form, err := forms.CreateForm(ctx, CreateFormInput{CreatedBy: "tester", Config: conditionalForm()})
	require.NoError(t, err)
	require.Equal(t, 1, form.Version)

	config := form.Config
	config.Title = "Renamed"
	updated, err := forms.UpdateForm(ctx, form.ID, UpdateFormInput{Config: &config})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestFormDeleteHidesForm(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	forms, _, _, _, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	form, err := forms.CreateForm(ctx, CreateFormInput{CreatedBy: "tester", Config: conditionalForm()})
	require.NoError(t, err)

	require.NoError(t, forms.DeleteForm(ctx, form.ID))

	_, err = forms.GetForm(ctx, form.ID)
	assert.ErrorIs(t, err, ErrFormNotFound)

	assert.ErrorIs(t, forms.DeleteForm(ctx, form.ID), ErrFormNotFound)
}

func TestLintFormSurfacesIssues(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	forms, _, _, _, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	config := &model.FormConfig{
		Title:    "Sloppy",
		Settings: model.DefaultSettings(),
		Steps: []model.Step{
			{ID: "s1", Title: "One", Questions: []model.Question{
				{ID: "q1", Type: model.TypeSingleChoice, Title: "No options"},
			}},
		},
	}

	form, err := forms.CreateForm(ctx, CreateFormInput{CreatedBy: "tester", Config: config})
	require.NoError(t, err)

	issues, err := forms.LintForm(ctx, form.ID)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, "missing-options", issues[0].Code)
}
