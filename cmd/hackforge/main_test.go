package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/hackforge/internal/devserver"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// newEnv points the CLI at a seeded devserver and an empty home directory.
// Sessions persist in the file store between invocations, as they would
// between real runs.
func newEnv(t *testing.T) {
	t.Helper()
	api := devserver.New(nil)
	require.NoError(t, api.Seed())
	srv := httptest.NewServer(api)
	t.Cleanup(func() {
		api.Close()
		srv.Close()
	})

	t.Setenv("HOME", t.TempDir())
	t.Setenv("HACKFORGE_API_URL", srv.URL)
	t.Setenv("HACKFORGE_STORAGE_BACKEND", "file")
	t.Setenv("HACKFORGE_LOG_LEVEL", "error")
	t.Chdir(t.TempDir())
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := &cli{}
	root := newRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	require.NoError(t, c.close())
	return out.String(), err
}

func login(t *testing.T) {
	t.Helper()
	out, err := execute(t, "", "login", "--email", "ada@hackforge.dev", "--password", devserver.DemoPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as Ada Organizer")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "hackforge dev\n", out)
}

func TestSessionSurvivesInvocations(t *testing.T) {
	newEnv(t)
	login(t)

	out, err := execute(t, "", "whoami", "-o", "json")
	require.NoError(t, err)
	var u domain.UserProfile
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, "ada@hackforge.dev", u.Email)
	assert.Equal(t, domain.RoleOrganizer, u.Role)

	out, err = execute(t, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out.\n", out)

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	out, err = execute(t, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Already logged out.\n", out)
}

func TestLoginPromptsForMissingPassword(t *testing.T) {
	newEnv(t)
	out, err := execute(t, devserver.DemoPassword+"\n", "login", "--email", "grace@hackforge.dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Grace Judge")
}

func TestSecretPromptReadsPipedFile(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	_, err = w.WriteString("s3cret pass\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	cmd := &cobra.Command{}
	cmd.SetIn(r)
	var prompt bytes.Buffer
	cmd.SetErr(&prompt)

	p := newPrompter(cmd)
	assert.Equal(t, -1, p.fd, "a pipe is not a terminal")
	var pw string
	require.NoError(t, p.askSecret("password", &pw))
	assert.Equal(t, "s3cret pass", pw)
	assert.Equal(t, "password: ", prompt.String())

	// Values given as flags are never prompted for.
	pw = "from-flag"
	require.NoError(t, p.askSecret("password", &pw))
	assert.Equal(t, "from-flag", pw)
}

func TestLoginRejected(t *testing.T) {
	newEnv(t)
	_, err := execute(t, "", "login", "--email", "ada@hackforge.dev", "--password", "nope-nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")

	_, err = execute(t, "", "login", "--email", "not-an-email", "--password", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestRegisterSignsIn(t *testing.T) {
	newEnv(t)
	out, err := execute(t, "", "register", "--first-name", "Linus", "--last-name", "T", "--email", "linus@example.com", "--password", "penguin1")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Linus T.")

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "linus@example.com")
}

func TestHackathonsList(t *testing.T) {
	newEnv(t)

	out, err := execute(t, "", "hackathons", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Climate Hack")
	assert.Contains(t, out, "Web3 Builders")
	assert.Contains(t, out, "page 1/1 · 3 total")

	out, err = execute(t, "", "hackathons", "list", "--status", "ongoing", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: AI for Good")
	assert.NotContains(t, out, "Climate Hack")

	out, err = execute(t, "", "hackathons", "list", "--theme", "web3", "--theme", "climate", "-o", "json")
	require.NoError(t, err)
	var page domain.Page[domain.Hackathon]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)

	out, err = execute(t, "", "hackathons", "list", "--limit", "1", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "page 2/3 · 3 total")

	_, err = execute(t, "", "hackathons", "list", "--status", "cancelled")
	assert.Error(t, err)
}

func TestHackathonShowAndJudging(t *testing.T) {
	newEnv(t)

	out, err := execute(t, "", "hackathons", "list", "--search", "Climate", "-o", "json")
	require.NoError(t, err)
	var page domain.Page[domain.Hackathon]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Items, 1)
	id := page.Items[0].ID

	out, err = execute(t, "", "hackathons", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Grand prize $5,000")
	assert.Contains(t, out, "http://localhost:3000/hackathons/"+id)

	out, err = execute(t, "", "hackathons", "judges", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Judge")

	out, err = execute(t, "", "hackathons", "evaluations", id, "-o", "json")
	require.NoError(t, err)
	var evals []domain.Evaluation
	require.NoError(t, json.Unmarshal([]byte(out), &evals))
	require.Len(t, evals, 1)
	assert.Equal(t, 24, evals[0].Total)

	_, err = execute(t, "", "hackathons", "show", "missing")
	assert.Error(t, err)
}

func TestTeamsAndProjects(t *testing.T) {
	newEnv(t)

	out, err := execute(t, "", "teams", "list", "--looking")
	require.NoError(t, err)
	assert.Contains(t, out, "Neural Nomads")
	assert.NotContains(t, out, "Carbon Crunchers")

	out, err = execute(t, "", "projects", "list", "--search", "triage")
	require.NoError(t, err)
	assert.Contains(t, out, "Triage Assistant")
	assert.NotContains(t, out, "Footprint Lens")
}

func TestAvatar(t *testing.T) {
	newEnv(t)
	img := filepath.Join(t.TempDir(), "me.png")
	// Smallest valid PNG header is enough for content sniffing.
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	_, err := execute(t, "", "avatar", img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")

	login(t)
	out, err := execute(t, "", "avatar", img)
	require.NoError(t, err)
	assert.Contains(t, out, "/uploads/")
}

func TestUnknownOutputFormat(t *testing.T) {
	newEnv(t)
	_, err := execute(t, "", "teams", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestWriteYAMLUsesAPIFieldNames(t *testing.T) {
	var buf bytes.Buffer
	h := domain.Hackathon{ID: "h1", Title: "Open Data Jam", Status: domain.StatusOngoing, Themes: []string{"ai"}}
	require.NoError(t, writeYAML(&buf, h))
	out := buf.String()
	assert.Contains(t, out, "status: ongoing")
	assert.Contains(t, out, "participantCount: 0")
	assert.Contains(t, out, "themes:\n  - ai")
	assert.Contains(t, out, "title: Open Data Jam")
}
