package sink

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/models"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCreateWritesHeader(t *testing.T) {
	dir := t.TempDir()

	s, err := Create(dir, "profiles_{timestamp}.csv")
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, strings.HasPrefix(s.Filename(), "profiles_"))
	assert.True(t, strings.HasSuffix(s.Filename(), ".csv"))

	rows := readRows(t, s.Path())
	require.Len(t, rows, 1)
	assert.Equal(t, models.CSVHeader(), rows[0])
}

func TestAppend(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "out.csv")
	require.NoError(t, err)

	records := []models.Record{
		{Name: "Jane Doe", Occupation: "Engineer", UniversityNames: []string{"TU Berlin"}},
		{Name: "John Roe", Location: "Lisbon"},
	}
	require.NoError(t, s.Append(records))
	require.NoError(t, s.Close())

	rows := readRows(t, s.Path())
	require.Len(t, rows, 3)
	assert.Equal(t, "Jane Doe", rows[1][0])
	assert.Equal(t, "TU Berlin", rows[1][3])
	assert.Equal(t, "John Roe", rows[2][0])
	assert.Equal(t, "Lisbon", rows[2][2])
}

func TestOpenAppendsWithoutNewHeader(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "out.csv")
	require.NoError(t, err)
	require.NoError(t, s.Append([]models.Record{{Name: "First"}}))
	require.NoError(t, s.Close())

	reopened, err := Open(s.Path())
	require.NoError(t, err)
	require.NoError(t, reopened.Append([]models.Record{{Name: "Second"}}))
	require.NoError(t, reopened.Close())

	rows := readRows(t, s.Path())
	require.Len(t, rows, 3)
	assert.Equal(t, models.CSVHeader(), rows[0])
	assert.Equal(t, "First", rows[1][0])
	assert.Equal(t, "Second", rows[2][0])
}

func TestOpenMissingFileFails(t *testing.T) {
	_, err := Open(t.TempDir() + "/nope.csv")
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "profiles_{timestamp}.csv")

	s, err := store.Create()
	require.NoError(t, err)
	name := s.Filename()
	require.NoError(t, s.Close())

	assert.True(t, store.Exists(name))
	assert.False(t, store.Exists("other.csv"))

	reopened, err := store.Open(name)
	require.NoError(t, err)
	assert.Equal(t, name, reopened.Filename())
	require.NoError(t, reopened.Close())
}

func TestExpandPattern(t *testing.T) {
	assert.True(t, strings.HasSuffix(expandPattern("run_{date}"), ".csv"))
	assert.NotContains(t, expandPattern("p_{timestamp}.csv"), "{timestamp}")
	assert.Equal(t, "fixed.csv", expandPattern("fixed.csv"))
}
