package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMainConfig_Defaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./profiles", cfg.ProfilesDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadMainConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
input_dir: /data/in
log_level: debug
max_concurrency: 2
database:
  dsn: user:pw@tcp(db:3306)/erp
`)
	t.Setenv("SAPIMPORT_OUTPUT_DIR", "/data/out")
	t.Setenv("SAPIMPORT_DATABASE_MAX_OPEN_CONNS", "3")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, "user:pw@tcp(db:3306)/erp", cfg.Database.DSN)
	assert.Equal(t, 3, cfg.Database.MaxOpenConns)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "log_level: loud\nmax_concurrency: 0\n")

	_, err := LoadMainConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "max_concurrency")
}

const validProfile = `
profile_name: SAP Germany
profile_code: sapde
org_code: "1000"
external_system_config_id: 540001
partner_code_group_length: 6
file_matching_patterns:
  - "BP_*.csv"
  - "BP_*.xlsx"
parameters:
  SAPBPartnerImportSettings: '[{"seqNo":10,"partnerCodePattern":"^9","isSingleBPartner":true,"bpGroupName":"Intercompany"}]'
`

func TestLoadProfile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sapde.yaml", validProfile)

	profile, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "sapde", profile.ProfileCode)
	assert.Equal(t, "1000", profile.OrgCode)
	assert.EqualValues(t, 540001, profile.ExternalSystemConfigID)
	assert.Equal(t, 6, profile.PartnerCodeGroupLength)
	assert.Equal(t, ";", profile.CSVSettings.Delimiter)
	assert.Equal(t, 2, profile.CSVSettings.DataStartRow)
	assert.Equal(t, 1, profile.XLSXSettings.HeaderRow)
	assert.Equal(t, "PartnerCode", profile.ColumnMapping.PartnerCode)
	assert.Equal(t, "VatRegNo", profile.ColumnMapping.VATRegNo)

	require.Equal(t, 1, profile.ImportSettings.Len())
	assert.True(t, profile.ImportSettings.IsSingle("900001"))

	assert.True(t, profile.MatchesFile("/in/BP_20240101.csv"))
	assert.False(t, profile.MatchesFile("/in/orders.csv"))
}

func TestLoadProfile_CodeFromFileName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "austria.yaml", `
org_code: "2000"
external_system_config_id: 7
file_matching_patterns: ["*.csv"]
parameters:
  SAPBPartnerImportSettings: '[]'
`)

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "austria", profile.ProfileCode)
	assert.Equal(t, "austria", profile.ProfileName)
	assert.Equal(t, 0, profile.ImportSettings.Len())
}

func TestLoadProfile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing org",
			content: "external_system_config_id: 1\nfile_matching_patterns: ['*.csv']\nparameters: {SAPBPartnerImportSettings: '[]'}\n",
			wantErr: "org_code",
		},
		{
			name:    "missing settings parameter",
			content: "org_code: '1'\nexternal_system_config_id: 1\nfile_matching_patterns: ['*.csv']\n",
			wantErr: "SAPBPartnerImportSettings",
		},
		{
			name:    "malformed settings",
			content: "org_code: '1'\nexternal_system_config_id: 1\nfile_matching_patterns: ['*.csv']\nparameters: {SAPBPartnerImportSettings: 'not json'}\n",
			wantErr: "malformed",
		},
		{
			name:    "bad pattern",
			content: "org_code: '1'\nexternal_system_config_id: 1\nfile_matching_patterns: ['[']\nparameters: {SAPBPartnerImportSettings: '[]'}\n",
			wantErr: "file pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "p.yaml", tt.content)
			_, err := LoadProfile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProfiles_DuplicateCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", validProfile)
	writeFile(t, dir, "b.yml", validProfile)

	_, err := LoadProfiles(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate profile code")
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sapde.yaml", validProfile)

	profiles, err := LoadProfiles(dir)
	require.NoError(t, err)
	require.Contains(t, profiles, "sapde")
}

func TestShippedConfiguration(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join("..", "..", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, cfg.ArchiveRetention)
	assert.True(t, cfg.ArchiveDateSubdirs)

	profiles, err := LoadProfiles(filepath.Join("..", "..", "profiles"))
	require.NoError(t, err)
	require.Contains(t, profiles, "sapde")

	sapde := profiles["sapde"]
	assert.Equal(t, 2, sapde.ImportSettings.Len())
	assert.True(t, sapde.ImportSettings.IsSingle("900100"))
	assert.False(t, sapde.ImportSettings.IsSingle("100047"))
	assert.True(t, sapde.MatchesFile("input/BP_DE_20240102.csv"))
	assert.Equal(t, "ISO-8859-1", sapde.CSVSettings.Encoding)
}
