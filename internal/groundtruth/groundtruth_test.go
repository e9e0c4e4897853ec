// internal/groundtruth/groundtruth_test.go
package groundtruth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ground_truth.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndLookup(t *testing.T) {
	path := writeCSV(t, `application_id,full_name,emirates_id,age,marital_status
app-001,Fatima Al Mansouri,784-1990-12345678-1,34,married
app-002,Omar Hassan,784-1985-87654321-2,40,single
`)

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	rec, ok := table.Lookup("app-001")
	require.True(t, ok)
	assert.Equal(t, "Fatima Al Mansouri", rec.FullName)
	assert.Equal(t, "784-1990-12345678-1", rec.NationalID)
	assert.Equal(t, 34, rec.Age)
	assert.Equal(t, "married", rec.MaritalStatus)

	_, ok = table.Lookup("app-999")
	assert.False(t, ok)
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeCSV(t, `application_id,full_name,age
app-001,Fatima Al Mansouri,34
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emirates_id")
}

func TestLoadSkipsBlankIDs(t *testing.T) {
	path := writeCSV(t, `application_id,full_name,emirates_id,age,marital_status
,No One,784-0000-00000000-0,0,single
app-003,Layla Ahmed,784-1992-11112222-3,32,divorced
`)

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}
