package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/piglet/internal/model"
)

const petstore = `
openapi: 3.0.0
info:
  title: Petstore
  version: "1.0"
servers:
  - url: /v1
paths:
  /pets:
    get:
      operationId: listPets
      tags: [pets]
      responses:
        "200":
          description: OK
`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := RootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestImportToStdout(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "petstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0644))

	out, _, err := execute(t, "", "import", "--backend", "direct", "--origin", "https://api.example.com", "--seed", "3", path)
	require.NoError(t, err)

	var collections []model.Collection
	require.NoError(t, json.Unmarshal([]byte(out), &collections))
	require.Len(t, collections, 1)
	require.Equal(t, "Petstore", collections[0].Name)
	require.Equal(t, "https://api.example.com/v1", collections[0].Auth.BaseURL)
	require.NotNil(t, collections[0].Folder("pets"))
	require.Contains(t, out, "\n  ")
}

func TestImportFromStdinToFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	outPath := filepath.Join(dir, "out.json")

	stdout, stderr, err := execute(t, petstore, "import", "--backend", "direct", "--pretty=false", "-o", outPath, "-")
	require.NoError(t, err)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "Written: "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.False(t, strings.Contains(strings.TrimSpace(string(data)), "\n"))

	var collections []model.Collection
	require.NoError(t, json.Unmarshal(data, &collections))
	require.Len(t, collections, 1)
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"no files", []string{"import"}, "requires at least 1 arg"},
		{"missing file", []string{"import", "--backend", "direct", filepath.Join(dir, "nope.yaml")}, "reading spec file"},
		{"invalid document", []string{"import", "--backend", "direct", bad}, "invalid_file_format"},
		{"invalid backend", []string{"import", "--backend", "threads", bad}, "invalid backend mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestImportUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "petstore.yaml"), []byte(petstore), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "piglet.yaml"), []byte("origin: http://from-config\nbackend:\n  mode: direct\n"), 0644))

	out, _, err := execute(t, "", "import", "petstore.yaml")
	require.NoError(t, err)

	var collections []model.Collection
	require.NoError(t, json.Unmarshal([]byte(out), &collections))
	require.Equal(t, "http://from-config/v1", collections[0].Auth.BaseURL)
}
