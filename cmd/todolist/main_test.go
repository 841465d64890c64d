package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dori/tasklist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memService struct {
	tasks []model.Task
	err   error
}

func (m *memService) List(context.Context) ([]model.Task, error) {
	return m.tasks, m.err
}

func (m *memService) Create(_ context.Context, title string) (model.Task, error) {
	t := model.Task{ID: "c0ffee00-0000", Title: title}
	m.tasks = append(m.tasks, t)
	return t, m.err
}

func (m *memService) Update(_ context.Context, id string, p model.TaskPatch) (model.Task, error) {
	i := model.IndexOf(m.tasks, id)
	if i < 0 {
		return model.Task{}, errors.New("not found")
	}
	m.tasks[i] = p.Apply(m.tasks[i])
	return m.tasks[i], nil
}

func (m *memService) Delete(_ context.Context, id string) error {
	i := model.IndexOf(m.tasks, id)
	if i < 0 {
		return errors.New("not found")
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func TestListCommand(t *testing.T) {
	svc := &memService{tasks: []model.Task{
		{ID: "aaaaaaaa-1111", Title: "Buy milk"},
		{ID: "bbbbbbbb-2222", Title: "Wash car", Completed: true},
	}}
	var out bytes.Buffer

	require.NoError(t, runCommand(context.Background(), &out, svc, "list", nil))
	assert.Contains(t, out.String(), "[ ]  aaaaaaaa  Buy milk")
	assert.Contains(t, out.String(), "[x]  bbbbbbbb  Wash car")
}

func TestListCommandEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runCommand(context.Background(), &out, &memService{}, "list", nil))
	assert.Equal(t, "No tasks.\n", out.String())
}

func TestAddCommandJoinsArgs(t *testing.T) {
	svc := &memService{}
	var out bytes.Buffer

	require.NoError(t, runCommand(context.Background(), &out, svc, "add", []string{"Wash", "car"}))
	require.Len(t, svc.tasks, 1)
	assert.Equal(t, "Wash car", svc.tasks[0].Title)

	err := runCommand(context.Background(), &out, svc, "add", []string{"  "})
	assert.Error(t, err)
}

func TestDoneUndoneByPrefix(t *testing.T) {
	svc := &memService{tasks: []model.Task{{ID: "aaaaaaaa-1111", Title: "Buy milk"}}}
	var out bytes.Buffer

	require.NoError(t, runCommand(context.Background(), &out, svc, "done", []string{"aaa"}))
	assert.True(t, svc.tasks[0].Completed)

	require.NoError(t, runCommand(context.Background(), &out, svc, "undone", []string{"aaaaaaaa-1111"}))
	assert.False(t, svc.tasks[0].Completed)
}

func TestRemoveCommand(t *testing.T) {
	svc := &memService{tasks: []model.Task{{ID: "aaaaaaaa-1111"}, {ID: "bbbbbbbb-2222"}}}
	var out bytes.Buffer

	require.NoError(t, runCommand(context.Background(), &out, svc, "rm", []string{"b"}))
	assert.Equal(t, []model.Task{{ID: "aaaaaaaa-1111"}}, svc.tasks)
}

func TestResolveIDErrors(t *testing.T) {
	svc := &memService{tasks: []model.Task{{ID: "ab1"}, {ID: "ab2"}}}

	_, err := resolveID(context.Background(), svc, "ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveID(context.Background(), svc, "zz")
	assert.ErrorContains(t, err, "no task")

	id, err := resolveID(context.Background(), svc, "ab2")
	require.NoError(t, err)
	assert.Equal(t, "ab2", id)
}

func TestCommandErrors(t *testing.T) {
	svc := &memService{err: errors.New("service down")}
	var out bytes.Buffer

	assert.Error(t, runCommand(context.Background(), &out, svc, "list", nil))
	assert.Error(t, runCommand(context.Background(), &out, svc, "done", nil))
	assert.Error(t, runCommand(context.Background(), &out, svc, "frobnicate", nil))
}
