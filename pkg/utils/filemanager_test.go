package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "in"),
		filepath.Join(root, "out"),
		filepath.Join(root, "in_archive"),
		filepath.Join(root, "out_archive"),
	)
	fm.Now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	touch(t, filepath.Join(fm.InputDir, "b.csv"), "x")
	touch(t, filepath.Join(fm.InputDir, "a.XLSX"), "x")
	touch(t, filepath.Join(fm.InputDir, "notes.md"), "x")
	touch(t, filepath.Join(fm.InputDir, ".hidden.csv"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "sub.csv"), 0o755))

	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.XLSX"),
		filepath.Join(fm.InputDir, "b.csv"),
	}, files)
}

func TestWriteOutputFile(t *testing.T) {
	fm := newTestManager(t)

	path, err := fm.WriteOutputFile("requests.json", []byte("[]\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.OutputDir, "requests.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	entries, err := os.ReadDir(fm.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchive(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true

	input := filepath.Join(fm.InputDir, "BP.csv")
	touch(t, input, "data")

	archived, err := fm.ArchiveInputFile(input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "2024", "03", "05", "BP.csv"), archived)
	assert.NoFileExists(t, input)
	assert.FileExists(t, archived)

	output, err := fm.WriteOutputFile("out.json", []byte("[]"))
	require.NoError(t, err)
	copied, err := fm.ArchiveOutputFile(output)
	require.NoError(t, err)
	assert.FileExists(t, output)
	assert.FileExists(t, copied)
}

func TestGenerateOutputFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 1, 0, time.UTC)

	name := GenerateOutputFileName("{profile}_{org}_{timestamp}", map[string]string{"profile": "sap de", "org": "1000"}, now)
	assert.Equal(t, "sap_de_1000_20240305_143001.json", name)

	name = GenerateOutputFileName("{uuid}.json", nil, now)
	assert.Len(t, strings.TrimSuffix(name, ".json"), 36)
	assert.NotEqual(t, name, GenerateOutputFileName("{uuid}.json", nil, now))
}

func TestWriteErrorLog(t *testing.T) {
	fm := newTestManager(t)

	path, err := fm.WriteErrorLog(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = fm.WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    fm.Now(),
		FileName:     "BP.csv",
		ErrorType:    "Validation",
		ErrorMessage: "field is required",
		LineNumber:   4,
		PartnerCode:  "100047",
		FieldName:    "Name1",
	}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.OutputDir, "error_log_20240305_143000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Errors: 1")
	assert.Contains(t, string(data), "Partner Code: 100047")
	assert.Contains(t, string(data), "Line:         4")
}

func TestWriteSummaryLog(t *testing.T) {
	fm := newTestManager(t)

	path, err := fm.WriteSummaryLog(ProcessingSummary{
		StartTime:       fm.Now(),
		EndTime:         fm.Now().Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		ProcessedFiles:  []ProcessedFileInfo{{InputFile: "a.csv", OutputFile: "a.json", Requests: 3}},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.csv", ErrorMessage: "boom"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Duration:          2s")
	assert.Contains(t, string(data), "Requests:     3")
	assert.Contains(t, string(data), "Error: boom")
}

func TestCleanOldArchives(t *testing.T) {
	fm := newTestManager(t)

	old := filepath.Join(fm.InputArchiveDir, "old.csv")
	fresh := filepath.Join(fm.OutputArchiveDir, "fresh.json")
	touch(t, old, "x")
	touch(t, fresh, "x")
	oldTime := fm.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, oldTime, oldTime))
	freshTime := fm.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(fresh, freshTime, freshTime))

	removed, err := fm.CleanOldArchives(0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = fm.CleanOldArchives(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}
