package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/materialmgr/internal/material"
)

// cliTest runs commands against one document in a temp directory.
type cliTest struct {
	t   *testing.T
	doc string
}

func newCLITest(t *testing.T) *cliTest {
	t.Helper()
	return &cliTest{t: t, doc: filepath.Join(t.TempDir(), "scene.hcl")}
}

// exec runs args with stdin and returns stdout.
func (c *cliTest) exec(stdin string, args ...string) (string, error) {
	c.t.Helper()
	out, _, err := c.execWithLogs(stdin, args...)
	return out, err
}

// execWithLogs runs args with stdin and returns stdout and the log output.
func (c *cliTest) execWithLogs(stdin string, args ...string) (string, string, error) {
	c.t.Helper()
	var out, errW bytes.Buffer
	full := append(append([]string{}, args...), "-d", c.doc, "--no-color")
	err := Execute(context.Background(), full, strings.NewReader(stdin), &out, &errW)
	if os.Getenv("MATERIALMGR_TEST_LOGS") == "true" {
		c.t.Logf("--- %v ---\n%s", args, errW.String())
	}
	return out.String(), errW.String(), err
}

func (c *cliTest) run(args ...string) string {
	c.t.Helper()
	out, err := c.exec("", args...)
	require.NoError(c.t, err, "command %v", args)
	return out
}

func (c *cliTest) list() []listEntry {
	c.t.Helper()
	var got []listEntry
	require.NoError(c.t, json.Unmarshal([]byte(c.run("ls", "--json")), &got))
	return got
}

func (c *cliTest) names() []string {
	c.t.Helper()
	var out []string
	for _, e := range c.list() {
		out = append(out, e.Name)
	}
	return out
}

func (c *cliTest) show(name string) detailView {
	c.t.Helper()
	var got detailView
	require.NoError(c.t, json.Unmarshal([]byte(c.run("show", name, "--json")), &got))
	return got
}

func requireUsageError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestCommands_MaterialLifecycle(t *testing.T) {
	c := newCLITest(t)

	out := c.run("init")
	assert.Contains(t, out, "DiffuseColor, SpecularColor")

	assert.Contains(t, c.run("ls"), "No materials.")

	c.run("create", "Rust", "--color", "DiffuseColor=red")
	c.run("create", "Wood")
	assert.Equal(t, []string{"Wood", "Rust"}, c.names(), "newest material is on top")

	rust := c.show("Rust")
	assert.Equal(t, 1, rust.Position)
	assert.True(t, rust.Visible)
	require.Len(t, rust.Inputs, 3)
	assert.Equal(t, "DiffuseColor", rust.Inputs[0].Input)
	assert.Equal(t, "Rust_DiffuseColor", rust.Inputs[0].Channel)
	require.NotNil(t, rust.Inputs[0].BaseColor)
	assert.Equal(t, 1.0, rust.Inputs[0].BaseColor.R)

	c.run("order", "Rust", "Wood")
	assert.Equal(t, []string{"Rust", "Wood"}, c.names())

	c.run("move", "down", "-m", "Rust")
	assert.Equal(t, []string{"Wood", "Rust"}, c.names())

	c.run("visibility", "off", "-m", "Wood")
	assert.Contains(t, c.run("ls"), "Wood (hidden)")
	assert.False(t, c.list()[0].Visible)
	c.run("visibility", "toggle", "-m", "Wood")
	assert.True(t, c.list()[0].Visible)

	c.run("rename", "Iron", "-m", "Rust")
	assert.ElementsMatch(t, []string{"Wood", "Iron"}, c.names())

	c.run("duplicate", "Copper", "-m", "Iron")
	assert.ElementsMatch(t, []string{"Wood", "Iron", "Copper"}, c.names())

	c.run("rm", "-m", "Copper")
	assert.ElementsMatch(t, []string{"Wood", "Iron"}, c.names())
}

func TestCommands_Elements(t *testing.T) {
	c := newCLITest(t)
	c.run("init", "Diffuse")
	c.run("create", "Rust")

	c.run("element", "add", "Rust", "Scratches", "--color", "Diffuse=white")
	rust := c.show("Rust")
	require.Len(t, rust.Elements, 1)
	assert.Equal(t, "Scratches", rust.Elements[0].Name)
	assert.Equal(t, 1.0, rust.Elements[0].BaseColors["Diffuse"].G)

	c.run("base-color", "Diffuse", "black", "-m", "Rust", "--element", "Scratches")
	assert.Equal(t, 0.0, c.show("Rust").Elements[0].BaseColors["Diffuse"].G)

	c.run("element", "rm", "Rust", "Scratches")
	assert.Empty(t, c.show("Rust").Elements)
}

func TestCommands_BaseColor(t *testing.T) {
	c := newCLITest(t)
	c.run("init", "Diffuse")
	c.run("create", "Rust")

	c.run("base-color", "Diffuse", "blue", "-m", "Rust")
	color := c.show("Rust").Inputs[0].BaseColor
	require.NotNil(t, color)
	assert.Equal(t, 1.0, color.B)

	out, err := c.exec("#00ff00\n", "base-color", "Diffuse", "--pick", "-m", "Rust")
	require.NoError(t, err)
	assert.Contains(t, out, "Rust Diffuse")
	color = c.show("Rust").Inputs[0].BaseColor
	assert.Equal(t, 1.0, color.G)
	assert.Equal(t, 0.0, color.B)

	out, err = c.exec("\n", "base-color", "Diffuse", "--pick", "-m", "Rust")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing done: cancelled.")
	assert.Equal(t, 1.0, c.show("Rust").Inputs[0].BaseColor.G)
}

func TestCommands_SkipWithoutSelection(t *testing.T) {
	c := newCLITest(t)
	c.run("init")
	c.run("create", "Rust")

	for _, args := range [][]string{
		{"rename", "Iron"},
		{"move", "up"},
		{"visibility", "off"},
		{"rm"},
	} {
		out, logs, err := c.execWithLogs("", append(args, "--log-level", "debug")...)
		require.NoError(t, err, "%v", args)
		assert.Empty(t, out, "%v prints nothing without a selection", args)
		assert.Contains(t, logs, "No material selected", "%v", args)
	}
	assert.Equal(t, []string{"Rust"}, c.names())
}

func TestCommands_MoveAtBoundary(t *testing.T) {
	c := newCLITest(t)
	c.run("init")
	c.run("create", "Rust")

	out := c.run("move", "up", "-m", "Rust")
	assert.Contains(t, out, "Nothing done: "+string(material.ReasonAtBoundary))
}

func TestCommands_UsageErrors(t *testing.T) {
	c := newCLITest(t)
	c.run("init")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing argument", args: []string{"show"}},
		{name: "extra argument", args: []string{"ls", "extra"}},
		{name: "unknown flag", args: []string{"ls", "--nope"}},
		{name: "unknown command", args: []string{"frobnicate"}},
		{name: "bad color flag", args: []string{"create", "Rust", "--color", "DiffuseColor"}},
		{name: "bad color", args: []string{"base-color", "DiffuseColor", "mauvish", "-m", "Rust"}},
		{name: "nan color flag", args: []string{"create", "Rust", "--color", "DiffuseColor=nan,0,0"}},
		{name: "infinite color", args: []string{"base-color", "DiffuseColor", "0,inf,0", "-m", "Rust"}},
		{name: "color without pick", args: []string{"base-color", "DiffuseColor", "-m", "Rust"}},
		{name: "pick with color", args: []string{"base-color", "DiffuseColor", "red", "--pick"}},
		{name: "bad direction", args: []string{"move", "sideways"}},
		{name: "bad visibility", args: []string{"visibility", "maybe"}},
		{name: "bad policy", args: []string{"ls", "--policy", "sometimes"}},
		{name: "bad log level", args: []string{"ls", "--log-level", "loud"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.exec("", tc.args...)
			requireUsageError(t, err)
		})
	}
}

func TestCommands_EngineErrors(t *testing.T) {
	c := newCLITest(t)

	_, err := c.exec("", "ls")
	require.ErrorIs(t, err, os.ErrNotExist)

	c.run("init")
	_, err = c.exec("", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	c.run("create", "Rust")
	_, err = c.exec("", "create", "Rust")
	require.ErrorIs(t, err, material.ErrNameCollision)

	_, err = c.exec("", "order", "Nope")
	require.ErrorIs(t, err, material.ErrNotFound)

	_, err = c.exec("", "show", "Nope")
	require.ErrorIs(t, err, material.ErrNotFound)
}

func TestCommands_DryRun(t *testing.T) {
	c := newCLITest(t)
	c.run("init")

	out := c.run("create", "Rust", "--dry-run")
	assert.Contains(t, out, "Material Rust created.")
	assert.Empty(t, c.list())
}

func TestCommands_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "from-config.hcl")
	cfgPath := filepath.Join(dir, "materialmgr.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("document = \""+filepath.ToSlash(doc)+"\"\n"), 0o600))

	var out, errW bytes.Buffer
	err := Execute(context.Background(), []string{"init", "--config", cfgPath}, strings.NewReader(""), &out, &errW)
	require.NoError(t, err)
	assert.FileExists(t, doc)

	err = Execute(context.Background(), []string{"ls", "--config", filepath.Join(dir, "missing.toml")}, strings.NewReader(""), &out, &errW)
	requireUsageError(t, err)
}
