// =============================================================================
// SAP Partner Import - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the import profiles.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings, read with
//      viper so that every key can be overridden from the environment
//      (SAPIMPORT_INPUT_DIR, SAPIMPORT_DATABASE_DSN, ...).
//   2. Import Profiles (profiles/*.yaml): one file per organisation / SAP
//      system, describing how its extract files are read and mapped.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sap-partner-import/internal/importsettings"
)

// EnvPrefix is the prefix of environment variables overriding the main config.
const EnvPrefix = "SAPIMPORT"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// InputDir is scanned for SAP extract files.
	InputDir string `mapstructure:"input_dir"`

	// OutputDir receives the generated upsert request documents, error logs
	// and processing summaries.
	OutputDir string `mapstructure:"output_dir"`

	// InputArchiveDir receives extract files after successful processing.
	InputArchiveDir string `mapstructure:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated document.
	OutputArchiveDir string `mapstructure:"output_archive_dir"`

	// ProfilesDir contains the import profile YAML files.
	ProfilesDir string `mapstructure:"profiles_dir"`

	// LogFile is written in addition to stdout. Empty disables file logging.
	LogFile string `mapstructure:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// OutputNameFormat defines the output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {profile}   - Profile code
	//   {org}       - Organisation code
	OutputNameFormat string `mapstructure:"output_name_format"`

	// MaxConcurrency is the maximum number of files processed at once.
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// ContinueOnError skips invalid rows instead of failing the file.
	ContinueOnError bool `mapstructure:"continue_on_error"`

	// ArchiveRetention removes archived files older than this after each
	// run. Zero keeps archives forever.
	ArchiveRetention time.Duration `mapstructure:"archive_retention"`

	// ArchiveDateSubdirs stores archives under YYYY/MM/DD subdirectories.
	ArchiveDateSubdirs bool `mapstructure:"archive_date_subdirs"`

	// Database is used by the contract-log command.
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// =============================================================================
// IMPORT PROFILE STRUCTURE
// =============================================================================

// ImportProfile describes how the extracts of one SAP system are imported.
type ImportProfile struct {
	// ProfileName is the human-readable name used in logs.
	ProfileName string `yaml:"profile_name"`

	// ProfileCode is a short code used in output file names.
	ProfileCode string `yaml:"profile_code"`

	// OrgCode is the organisation the partners are imported into.
	OrgCode string `yaml:"org_code"`

	// ExternalSystemConfigID identifies the SAP external system config in the ERP.
	ExternalSystemConfigID int64 `yaml:"external_system_config_id"`

	// Language of imported partners. Default: de_DE
	Language string `yaml:"language"`

	// PartnerCodeGroupLength is the number of leading characters of a raw
	// partner code shared by all sections of a legal entity. 0 keeps the
	// whole code.
	PartnerCodeGroupLength int `yaml:"partner_code_group_length"`

	// FileMatchingPatterns are glob patterns matched against file names.
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings is used for .csv and .txt extracts.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// XLSXSettings is used for .xlsx extracts.
	XLSXSettings XLSXSettings `yaml:"xlsx_settings"`

	// ColumnMapping maps partner row fields to extract column headers.
	ColumnMapping ColumnMapping `yaml:"column_mapping"`

	// TransformationRules are applied to extract fields before mapping.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// StrictValidation skips rows with validation warnings (empty name or
	// country, bad formats, oversized fields). Off by default: only rows
	// without partner code or section are skipped.
	StrictValidation bool `yaml:"strict_validation"`

	// Parameters are the external system parameters. The import settings
	// rules are stored as a JSON array under SAPBPartnerImportSettings.
	Parameters map[string]string `yaml:"parameters"`

	// ImportSettings are parsed from Parameters when the profile is loaded.
	ImportSettings importsettings.Settings `yaml:"-"`

	// SourceFile is the path the profile was loaded from.
	SourceFile string `yaml:"-"`
}

// CSVSettings contains settings for parsing CSV extracts.
type CSVSettings struct {
	// Delimiter separates fields. SAP exports commonly use ";" or tab.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins. Default: HeaderRows+1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding of the file: UTF-8 (default, BOM stripped), ISO-8859-1,
	// ISO-8859-15 or Windows-1252.
	Encoding string `yaml:"encoding"`
}

// XLSXSettings contains settings for reading XLSX extracts.
type XLSXSettings struct {
	// SheetName is the sheet to read. Default: the first sheet.
	SheetName string `yaml:"sheet_name"`

	// HeaderRow is the 1-based row holding the column headers. Default: 1
	HeaderRow int `yaml:"header_row"`
}

// ColumnMapping names the extract column of every partner row field.
type ColumnMapping struct {
	PartnerCode          string `yaml:"partner_code"`
	Section              string `yaml:"section"`
	PartnerCategory      string `yaml:"partner_category"`
	Name1                string `yaml:"name1"`
	Name2                string `yaml:"name2"`
	Street               string `yaml:"street"`
	Street2              string `yaml:"street2"`
	Street3              string `yaml:"street3"`
	Street4              string `yaml:"street4"`
	Street5              string `yaml:"street5"`
	City                 string `yaml:"city"`
	PostalCode           string `yaml:"postal_code"`
	CountryKey           string `yaml:"country_key"`
	VATRegNo             string `yaml:"vat_reg_no"`
	PaymentMethod        string `yaml:"payment_method"`
	SalesPaymentTerms    string `yaml:"sales_payment_terms"`
	PurchasePaymentTerms string `yaml:"purchase_payment_terms"`
}

// TransformationRule defines transformations applied to one extract field.
type TransformationRule struct {
	// Field is the column header the actions apply to.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is one of:
	//   - "prepend_string"      : Add Value to the beginning
	//   - "append_string"       : Add Value to the end
	//   - "pad_zeros_to_length" : Pad with leading zeros to length Value
	//   - "strip_leading_zeros" : Remove leading zeros (SAP ALPHA conversion)
	//   - "ensure_length"       : Truncate to length Value
	//   - "uppercase"           : Convert to uppercase
	//   - "lowercase"           : Convert to lowercase
	//   - "trim"                : Remove surrounding whitespace
	//   - "replace"             : Replace Find with Value
	//   - "regex_replace"       : Replace pattern Find with Value
	//   - "lookup"              : Replace using LookupTable
	//   - "lookup_with_default" : Replace using LookupTable, Value if absent
	//   - "default_if_empty"    : Use Value when the field is blank
	//   - "if_empty_use_field"  : Use the column named Value when blank
	//   - "normalize_whitespace": Collapse runs of whitespace
	//   - "extract_digits"      : Keep digits only
	Type string `yaml:"type"`

	// Value is the parameter of the action.
	Value string `yaml:"value"`

	// Find is used by "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable is used by "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// MAIN CONFIGURATION LOADING
// =============================================================================

// NewViper returns a viper instance with all defaults and env bindings registered.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("output_archive_dir", "./output_archive")
	v.SetDefault("profiles_dir", "./profiles")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("output_name_format", "{profile}_{timestamp}_{uuid}.json")
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("continue_on_error", true)
	v.SetDefault("archive_retention", "0s")
	v.SetDefault("archive_date_subdirs", false)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadMainConfig loads the main configuration from a YAML file.
// A missing file is not an error: defaults and environment overrides apply.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	v := NewViper()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg MainConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateMainConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validateMainConfig validates the main configuration.
func validateMainConfig(cfg *MainConfig) error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, fmt.Sprintf("log_level (%q) must be one of: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.MaxConcurrency <= 0 {
		errs = append(errs, "max_concurrency must be positive")
	}
	if cfg.ArchiveRetention < 0 {
		errs = append(errs, "archive_retention must not be negative")
	}
	if cfg.OutputNameFormat == "" {
		errs = append(errs, "output_name_format must not be empty")
	}
	for name, dir := range map[string]string{
		"input_dir":    cfg.InputDir,
		"output_dir":   cfg.OutputDir,
		"profiles_dir": cfg.ProfilesDir,
	} {
		if dir == "" {
			errs = append(errs, name+" must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// =============================================================================
// IMPORT PROFILE LOADING
// =============================================================================

// LoadProfiles loads all import profiles from a directory, keyed by profile code.
func LoadProfiles(profilesDir string) (map[string]*ImportProfile, error) {
	profiles := make(map[string]*ImportProfile)

	files, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		profile, err := LoadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		if _, dup := profiles[profile.ProfileCode]; dup {
			return nil, fmt.Errorf("duplicate profile code %q in %s", profile.ProfileCode, file)
		}
		profiles[profile.ProfileCode] = profile
	}

	return profiles, nil
}

// LoadProfile loads and validates a single profile file. The import settings
// parameter is parsed here, so a malformed rule list fails the whole load.
func LoadProfile(filePath string) (*ImportProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile ImportProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	profile.SourceFile = filePath
	applyProfileDefaults(&profile)

	if err := validateProfile(&profile); err != nil {
		return nil, err
	}

	settings, err := importsettings.FromParameters(profile.Parameters)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.ProfileCode, err)
	}
	profile.ImportSettings = settings

	return &profile, nil
}

// applyProfileDefaults sets default values for profile settings.
func applyProfileDefaults(p *ImportProfile) {
	if p.ProfileCode == "" {
		base := filepath.Base(p.SourceFile)
		p.ProfileCode = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if p.ProfileName == "" {
		p.ProfileName = p.ProfileCode
	}

	if p.CSVSettings.Delimiter == "" {
		p.CSVSettings.Delimiter = ";"
	}
	if p.CSVSettings.HeaderRows == 0 {
		p.CSVSettings.HeaderRows = 1
	}
	if p.CSVSettings.DataStartRow == 0 {
		p.CSVSettings.DataStartRow = p.CSVSettings.HeaderRows + 1
	}
	if p.CSVSettings.Encoding == "" {
		p.CSVSettings.Encoding = "UTF-8"
	}

	if p.XLSXSettings.HeaderRow == 0 {
		p.XLSXSettings.HeaderRow = 1
	}

	p.ColumnMapping.applyDefaults()
}

func (m *ColumnMapping) applyDefaults() {
	setDefault := func(field *string, header string) {
		if *field == "" {
			*field = header
		}
	}

	setDefault(&m.PartnerCode, "PartnerCode")
	setDefault(&m.Section, "Section")
	setDefault(&m.PartnerCategory, "PartnerCategory")
	setDefault(&m.Name1, "Name1")
	setDefault(&m.Name2, "Name2")
	setDefault(&m.Street, "Street")
	setDefault(&m.Street2, "Street2")
	setDefault(&m.Street3, "Street3")
	setDefault(&m.Street4, "Street4")
	setDefault(&m.Street5, "Street5")
	setDefault(&m.City, "City")
	setDefault(&m.PostalCode, "PostalCode")
	setDefault(&m.CountryKey, "CountryKey")
	setDefault(&m.VATRegNo, "VatRegNo")
	setDefault(&m.PaymentMethod, "PaymentMethod")
	setDefault(&m.SalesPaymentTerms, "SalesPaymentTerms")
	setDefault(&m.PurchasePaymentTerms, "PurchasePaymentTerms")
}

func validateProfile(p *ImportProfile) error {
	var errs []string

	if p.OrgCode == "" {
		errs = append(errs, "org_code is required")
	}
	if p.ExternalSystemConfigID <= 0 {
		errs = append(errs, "external_system_config_id must be positive")
	}
	if p.PartnerCodeGroupLength < 0 {
		errs = append(errs, "partner_code_group_length must not be negative")
	}
	if len(p.FileMatchingPatterns) == 0 {
		errs = append(errs, "file_matching_patterns must not be empty")
	}
	for _, pattern := range p.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Sprintf("file pattern %q is invalid: %v", pattern, err))
		}
	}
	if p.CSVSettings.DataStartRow <= p.CSVSettings.HeaderRows {
		errs = append(errs, "csv_settings.data_start_row must be after the header rows")
	}

	if len(errs) > 0 {
		return fmt.Errorf("profile %s: %s", p.ProfileCode, strings.Join(errs, "; "))
	}
	return nil
}

// MatchesFile reports whether the file name matches one of the profile's patterns.
func (p *ImportProfile) MatchesFile(filePath string) bool {
	fileName := filepath.Base(filePath)
	for _, pattern := range p.FileMatchingPatterns {
		if matched, err := filepath.Match(pattern, fileName); err == nil && matched {
			return true
		}
	}
	return false
}
