package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/kaneo-automation/internal/cli"
	"github.com/nhle/kaneo-automation/internal/labels"
	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
	"github.com/nhle/kaneo-automation/internal/tasklink"
	"github.com/nhle/kaneo-automation/tests/testutil"
)

type env struct {
	dir    string
	config string
	dbPath string
	ring   keyring.Keyring
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	cfg := model.DefaultAppConfig()
	cfg.Database.Path = filepath.Join(dir, "data", "kaneo.db")
	cfg.Log.Level = "error"
	cfg.Credentials.FileDir = filepath.Join(dir, "credentials")

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, model.SaveConfig(path, cfg))

	return &env{dir: dir, config: path, dbPath: cfg.Database.Path, ring: keyring.NewArrayKeyring(nil)}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand(cli.WithKeyring(e.ring))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.Execute()
	return out.String(), err
}

// runJSON runs a command with --json and decodes its output into v.
func (e *env) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := e.run(t, append(args, "--json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func (e *env) createProject(t *testing.T) model.Project {
	t.Helper()
	var project model.Project
	e.runJSON(t, &project, "project", "create", "Kaneo", "--slug", "kan")
	return project
}

func TestProjectCreateAndList(t *testing.T) {
	e := newEnv(t)
	project := e.createProject(t)
	assert.Equal(t, "kan", project.Slug)

	var projects []model.Project
	e.runJSON(t, &projects, "project", "list")
	require.Len(t, projects, 1)
	assert.Equal(t, project.ID, projects[0].ID)

	var columns []model.Column
	e.runJSON(t, &columns, "project", "columns", "kan")
	require.Len(t, columns, len(model.Statuses))
	assert.Equal(t, string(model.StatusToDo), columns[0].Slug)
}

func TestProjectCreateDerivesSlug(t *testing.T) {
	e := newEnv(t)

	var project model.Project
	e.runJSON(t, &project, "project", "create", "Widget Factory")
	assert.Equal(t, "wid", project.Slug)
}

func TestIntegrationAddAndRemove(t *testing.T) {
	e := newEnv(t)
	e.createProject(t)

	var in model.Integration
	e.runJSON(t, &in, "integration", "add",
		"--project", "kan", "--type", "github", "--repo", "acme/widgets",
		"--secret", "s3cret", "--token", "ghp_abc", "--import")
	assert.Equal(t, "acme/widgets", in.Repository)
	assert.True(t, in.ImportIssues)

	item, err := e.ring.Get(in.WebhookSecretKey())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(item.Data))
	item, err = e.ring.Get(in.TokenKey())
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", string(item.Data))

	var listed []model.Integration
	e.runJSON(t, &listed, "integration", "list")
	require.Len(t, listed, 1)

	_, err = e.run(t, "integration", "remove", in.ID)
	require.NoError(t, err)

	_, err = e.ring.Get(in.WebhookSecretKey())
	assert.True(t, errors.Is(err, keyring.ErrKeyNotFound))

	e.runJSON(t, &listed, "integration", "list")
	assert.Empty(t, listed)
}

func TestIntegrationAddValidation(t *testing.T) {
	e := newEnv(t)
	e.createProject(t)

	_, err := e.run(t, "integration", "add", "--project", "kan", "--type", "gitea", "--repo", "acme/widgets")
	assert.ErrorContains(t, err, "base-url")

	_, err = e.run(t, "integration", "add", "--project", "kan", "--type", "gitlab", "--repo", "acme/widgets")
	assert.ErrorContains(t, err, "unknown integration type")

	_, err = e.run(t, "integration", "add", "--project", "kan", "--type", "github", "--repo", "widgets")
	assert.ErrorContains(t, err, "owner/name")

	_, err = e.run(t, "integration", "add", "--project", "nope", "--type", "github", "--repo", "acme/widgets")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRuleSetRetargetsAndDeletes(t *testing.T) {
	e := newEnv(t)
	e.createProject(t)

	var columns []model.Column
	e.runJSON(t, &columns, "project", "columns", "kan")
	bySlug := map[string]string{}
	for _, c := range columns {
		bySlug[c.Slug] = c.ID
	}

	var first model.WorkflowRule
	e.runJSON(t, &first, "rule", "set", "--project", "kan", "--event", "pr_merged", "--column", "done")
	assert.Equal(t, bySlug["done"], first.ColumnID)

	var second model.WorkflowRule
	e.runJSON(t, &second, "rule", "set", "--project", "kan", "--event", "pr_merged", "--column", bySlug["in-progress"])
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, bySlug["in-progress"], second.ColumnID)

	var rules []model.WorkflowRule
	e.runJSON(t, &rules, "rule", "list", "--project", "kan")
	require.Len(t, rules, 1)

	_, err := e.run(t, "rule", "delete", first.ID)
	require.NoError(t, err)
	e.runJSON(t, &rules, "rule", "list", "--project", "kan")
	assert.Empty(t, rules)
}

func TestRuleListRendersHeaderAndRows(t *testing.T) {
	e := newEnv(t)
	e.createProject(t)

	var rule model.WorkflowRule
	e.runJSON(t, &rule, "rule", "set", "--project", "kan", "--event", "issue_closed", "--column", "done")

	out, err := e.run(t, "rule", "list", "--project", "kan")
	require.NoError(t, err)
	assert.Contains(t, out, "Kaneo workflow rules")
	assert.Contains(t, out, rule.ID)
	assert.Contains(t, out, "issue_closed")
	assert.Contains(t, out, "Done")
}

func TestLabelPaletteListsColors(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "label", "palette")
	require.NoError(t, err)
	assert.Contains(t, out, "Label palette")
	assert.Contains(t, out, "priority:urgent")
	assert.Contains(t, out, "#EF4444")
	assert.Contains(t, out, "#"+labels.FallbackColor)
}

func TestRuleSetRejectsUnknownEvent(t *testing.T) {
	e := newEnv(t)
	e.createProject(t)

	_, err := e.run(t, "rule", "set", "--project", "kan", "--event", "deploy", "--column", "done")
	assert.ErrorIs(t, err, store.ErrInvalidRule)
}

func TestLinkCommands(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(e.dbPath), 0o755))

	s, err := store.NewSQLiteStore(e.dbPath)
	require.NoError(t, err)
	board := testutil.SeedBoard(t, s, "Kaneo", "kan")
	parent := testutil.SeedTask(t, s, board, "Epic")
	child := testutil.SeedTask(t, s, board, "Story")
	require.NoError(t, s.Close())

	var link model.TaskLink
	e.runJSON(t, &link, "link", "add", parent.ID, child.ID, "--type", "parent", "--by", "alice")
	assert.Equal(t, model.LinkParent, link.Type)

	var views []tasklink.LinkView
	e.runJSON(t, &views, "link", "list", child.ID)
	require.Len(t, views, 1)
	assert.Equal(t, model.LinkChild, views[0].DisplayType)
	assert.Equal(t, "Epic", views[0].TaskTitle)

	_, err = e.run(t, "link", "add", parent.ID, parent.ID)
	assert.ErrorIs(t, err, tasklink.ErrSelfLink)

	_, err = e.run(t, "link", "delete", child.ID, link.ID)
	require.NoError(t, err)
	e.runJSON(t, &views, "link", "list", child.ID)
	assert.Empty(t, views)
}

func TestLabelClassify(t *testing.T) {
	e := newEnv(t)

	var c labels.Classification
	e.runJSON(t, &c, "label", "classify", "bug", "priority:urgent", "status:done")
	assert.Equal(t, model.PriorityUrgent, c.Priority)
	assert.Equal(t, model.StatusDone, c.Status)
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	fresh := filepath.Join(e.dir, "nested", "config.yaml")
	root := cli.NewRootCommand(cli.WithKeyring(e.ring))
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", fresh, "config", "init"})
	require.NoError(t, root.Execute())

	cfg, err := model.LoadConfig(fresh)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAppConfig().Server.Addr, cfg.Server.Addr)
}
