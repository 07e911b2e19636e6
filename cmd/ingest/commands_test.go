package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadMapping_AcceptsFencedReply(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "mapping.json", "Sure:\n```json\n"+`{
  "fieldMappings": {"models.name": {"from": "Name"}},
  "mediaMappings": {"model_media.link": {"from": ["Photos"]}}
}`+"\n```")

	m, err := readMapping(path)
	require.NoError(t, err)
	assert.Equal(t, domain.Sources{"Name"}, m.FieldMappings["models.name"].From)
}

func TestReadMapping_BadShape(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "mapping.json", "no mapping here")

	_, err := readMapping(path)
	var shape *domain.MappingShapeError
	assert.ErrorAs(t, err, &shape)
}

func TestReadMapping_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := readMapping(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadUpload_UsesBaseName(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "women_newfaces.csv", "Name\nAda\n")

	in, err := readUpload(path, "female")
	require.NoError(t, err)
	assert.Equal(t, "women_newfaces.csv", in.Filename)
	assert.Equal(t, "female", in.Gender)
	assert.Equal(t, "Name\nAda\n", string(in.Data))
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	t.Parallel()
	root := newRootCmd()
	for _, name := range []string{"upload", "check", "preview", "regenerate", "confirm", "delete", "enrich", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRegenerateCmd_FeedbackOptional(t *testing.T) {
	t.Parallel()
	cmd := newRegenerateCmd()

	feedback := cmd.Flags().Lookup("feedback")
	require.NotNil(t, feedback)
	_, required := feedback.Annotations[cobra.BashCompOneRequiredFlag]
	assert.False(t, required, "feedback must be optional")

	mapping := cmd.Flags().Lookup("mapping")
	require.NotNil(t, mapping)
	assert.Equal(t, []string{"true"}, mapping.Annotations[cobra.BashCompOneRequiredFlag])
}
