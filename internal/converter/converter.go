// =============================================================================
// SAP Partner Import - Core Converter Logic
// =============================================================================
//
// This module orchestrates the import of one SAP extract file. It ties the
// parsers, the transformer, the validator and the request builder together.
//
// PROCESSING PIPELINE:
//   1. Read the extract (CSV or XLSX, by extension)
//   2. Check that the mapped key columns exist
//   3. Apply the profile's transformation rules
//   4. Map records to partner rows
//   5. Validate rows (skip invalid rows or fail the file)
//   6. Group rows by partner code and build one upsert request per group
//   7. Serialise the requests as one JSON document
//   8. Write the document to the outbox and archive input and output
//
// A Converter handles exactly one file and shares no mutable state with other
// converters, so files can be processed concurrently.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/sap-partner-import/internal/bpartner"
	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/csvparser"
	"github.com/ginjaninja78/sap-partner-import/internal/jsonwriter"
	"github.com/ginjaninja78/sap-partner-import/internal/types"
	"github.com/ginjaninja78/sap-partner-import/internal/validation"
	"github.com/ginjaninja78/sap-partner-import/internal/xlsxparser"
	"github.com/ginjaninja78/sap-partner-import/pkg/utils"
)

var (
	// ErrNoProfile is returned when no profile matches a file name.
	ErrNoProfile = errors.New("no import profile matches file")

	// ErrAmbiguousProfile is returned when several profiles match a file name.
	ErrAmbiguousProfile = errors.New("several import profiles match file")

	// ErrUnsupportedFile is returned for extensions the importer cannot read.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrMissingColumn is returned when a key column is absent from the extract.
	ErrMissingColumn = errors.New("required column missing")

	// ErrValidationFailed is returned when rows are invalid and continue_on_error is off.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNoValidRows is returned when every row of a non-empty extract is invalid.
	ErrNoValidRows = errors.New("no valid partner rows")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result contains the outcome of processing a single file.
type Result struct {
	FilePath    string
	ProfileCode string

	// OutputFile is the outbox document. Empty in dry-run mode or when the
	// extract held no rows.
	OutputFile  string
	ArchivePath string

	Success bool
	Error   error

	// Document is the generated JSON document.
	Document []byte

	// Requests are the upsert requests, one per partner group.
	Requests []types.BPUpsertRequest

	// Findings holds every validation error and warning.
	Findings []*validation.ValidationError

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	RowsRead         int
	RowsSkipped      int
	Requests         int
	Items            int
	ValidationErrors int
	ProcessingTime   time.Duration
}

// =============================================================================
// CONVERTER
// =============================================================================

// Options configures a Converter.
type Options struct {
	// DryRun builds the document without writing or archiving anything.
	DryRun bool

	Logger *zap.Logger
	Files  *utils.FileManager

	// Now is the clock used for output names.
	Now func() time.Time
}

// Converter handles the conversion of a single extract file.
type Converter struct {
	filePath    string
	profile     *config.ImportProfile
	mainConfig  *config.MainConfig
	transformer *Transformer
	validator   *validation.Validator
	opts        Options
	logger      *zap.Logger
}

// New creates a Converter for one file. It fails when the profile's
// transformation rules are invalid.
func New(filePath string, profile *config.ImportProfile, mainConfig *config.MainConfig, opts Options) (*Converter, error) {
	transformer, err := NewTransformer(profile.TransformationRules)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.ProfileCode, err)
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Files == nil {
		opts.Files = utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir,
			mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
	}

	return &Converter{
		filePath:    filePath,
		profile:     profile,
		mainConfig:  mainConfig,
		transformer: transformer,
		validator:   newValidator(profile),
		opts:        opts,
		logger: opts.Logger.With(
			zap.String("file", filepath.Base(filePath)),
			zap.String("profile", profile.ProfileCode),
		),
	}, nil
}

func newValidator(profile *config.ImportProfile) *validation.Validator {
	options := validation.DefaultValidationOptions()
	options.TreatWarningsAsErrors = profile.StrictValidation
	return validation.NewValidatorWithOptions(options)
}

// Run executes the full pipeline and returns the result. Errors are reported
// in Result.Error rather than returned, so one failing file does not stop
// the others.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{
		FilePath:    c.filePath,
		ProfileCode: c.profile.ProfileCode,
	}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	if err := c.run(ctx, &result); err != nil {
		result.Error = err
		c.logger.Error("File failed", zap.Error(err))
		return result
	}

	result.Success = true
	return result
}

func (c *Converter) run(ctx context.Context, result *Result) error {
	c.logger.Info("Processing file")

	// -------------------------------------------------------------------------
	// STEP 1: Read the extract
	// -------------------------------------------------------------------------

	extract, err := ReadExtract(c.filePath, c.profile)
	if err != nil {
		return err
	}
	result.Stats.RowsRead = len(extract.Records)
	c.logger.Debug("Read extract", zap.Int("records", len(extract.Records)))

	if err := CheckColumns(extract, c.profile.ColumnMapping); err != nil {
		return err
	}

	// -------------------------------------------------------------------------
	// STEP 2: Transform and map
	// -------------------------------------------------------------------------

	rows := make([]bpartner.Row, 0, len(extract.Records))
	for _, record := range extract.Records {
		record = c.transformer.TransformRecord(record)
		rows = append(rows, MapRecord(record, c.profile.ColumnMapping, c.profile.PartnerCodeGroupLength))
	}

	// -------------------------------------------------------------------------
	// STEP 3: Validate
	// -------------------------------------------------------------------------

	validationResult := c.validator.ValidateAll(rows)
	result.Findings = validationResult.Errors
	result.Stats.ValidationErrors = validationResult.ErrorCount

	for _, finding := range validationResult.Errors {
		c.logger.Warn("Validation finding",
			zap.String("severity", finding.Severity),
			zap.Int("line", finding.LineNumber),
			zap.String("partnerCode", finding.PartnerCode),
			zap.String("field", finding.Field),
			zap.String("message", finding.Message))
	}

	if !validationResult.IsValid {
		if !c.mainConfig.ContinueOnError {
			return fmt.Errorf("%w: %d error(s)", ErrValidationFailed, validationResult.ErrorCount)
		}
		valid := validationResult.ValidRows(rows)
		result.Stats.RowsSkipped = len(rows) - len(valid)
		rows = valid
		if len(rows) == 0 {
			return ErrNoValidRows
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// -------------------------------------------------------------------------
	// STEP 4: Build the upsert requests
	// -------------------------------------------------------------------------

	requests, err := BuildRequests(ctx, rows, c.builderOptions())
	if err != nil {
		return err
	}
	result.Requests = requests
	result.Stats.Requests = len(requests)
	result.Stats.Items = jsonwriter.ItemCount(requests)

	document, err := jsonwriter.Generate(requests)
	if err != nil {
		return err
	}
	result.Document = document

	c.logger.Info("Built upsert requests",
		zap.Int("requests", result.Stats.Requests),
		zap.Int("items", result.Stats.Items),
		zap.Int("skippedRows", result.Stats.RowsSkipped))

	if c.opts.DryRun {
		return nil
	}

	// -------------------------------------------------------------------------
	// STEP 5: Write and archive
	// -------------------------------------------------------------------------

	if len(requests) > 0 {
		outputPath, err := c.opts.Files.WriteOutputFile(c.outputFileName(), document)
		if err != nil {
			return err
		}
		result.OutputFile = outputPath
		c.logger.Info("Wrote output", zap.String("output", outputPath))

		if _, err := c.opts.Files.ArchiveOutputFile(outputPath); err != nil {
			c.logger.Warn("Failed to archive output", zap.Error(err))
		}
	}

	archivePath, err := c.opts.Files.ArchiveInputFile(c.filePath)
	if err != nil {
		c.logger.Warn("Failed to archive input", zap.Error(err))
	} else {
		result.ArchivePath = archivePath
	}

	return nil
}

func (c *Converter) builderOptions() bpartner.Options {
	return bpartner.Options{
		OrgCode:                c.profile.OrgCode,
		ExternalSystemConfigID: c.profile.ExternalSystemConfigID,
		Settings:               c.profile.ImportSettings,
		Language:               c.profile.Language,
	}
}

func (c *Converter) outputFileName() string {
	return utils.GenerateOutputFileName(c.mainConfig.OutputNameFormat, map[string]string{
		"profile": c.profile.ProfileCode,
		"org":     c.profile.OrgCode,
		"source":  strings.TrimSuffix(filepath.Base(c.filePath), filepath.Ext(c.filePath)),
	}, c.opts.Now())
}

// =============================================================================
// PIPELINE STEPS
// =============================================================================

// ReadExtract parses the file with the parser matching its extension.
func ReadExtract(filePath string, profile *config.ImportProfile) (*types.Extract, error) {
	var (
		extract *types.Extract
		err     error
	)

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv", ".txt":
		extract, err = csvparser.Parse(filePath, profile.CSVSettings)
	case ".xlsx":
		extract, err = xlsxparser.Parse(filePath, profile.XLSXSettings)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(filePath))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read extract: %w", err)
	}
	return extract, nil
}

// CheckColumns verifies that the key columns of the mapping exist.
func CheckColumns(extract *types.Extract, mapping config.ColumnMapping) error {
	var missing []string
	for _, header := range []string{mapping.PartnerCode, mapping.Section, mapping.Name1} {
		if !extract.HasHeader(header) {
			missing = append(missing, header)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// MapRecord builds a partner row from a transformed record.
func MapRecord(record types.Record, m config.ColumnMapping, groupLength int) bpartner.Row {
	get := func(header string) string {
		return strings.TrimSpace(record.Get(header))
	}

	return bpartner.Row{
		PartnerCode:          bpartner.NewPartnerCode(get(m.PartnerCode), groupLength),
		Section:              get(m.Section),
		Category:             bpartner.CategoryOf(get(m.PartnerCategory)),
		Name1:                get(m.Name1),
		Name2:                get(m.Name2),
		Street:               get(m.Street),
		Street2:              get(m.Street2),
		Street3:              get(m.Street3),
		Street4:              get(m.Street4),
		Street5:              get(m.Street5),
		City:                 get(m.City),
		PostalCode:           get(m.PostalCode),
		CountryKey:           get(m.CountryKey),
		VATRegNo:             get(m.VATRegNo),
		PaymentMethod:        get(m.PaymentMethod),
		SalesPaymentTerms:    get(m.SalesPaymentTerms),
		PurchasePaymentTerms: get(m.PurchasePaymentTerms),
		LineNumber:           record.Line,
	}
}

// BuildRequests groups rows by partner code and builds one request per group,
// in order of first appearance.
func BuildRequests(ctx context.Context, rows []bpartner.Row, opts bpartner.Options) ([]types.BPUpsertRequest, error) {
	groups := bpartner.Group(rows, opts)
	requests := make([]types.BPUpsertRequest, 0, len(groups))

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		request, err := group.Build()
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, nil
}

// SelectProfile returns the single profile whose file patterns match filePath.
func SelectProfile(profiles map[string]*config.ImportProfile, filePath string) (*config.ImportProfile, error) {
	codes := make([]string, 0, len(profiles))
	for code := range profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var matched []*config.ImportProfile
	for _, code := range codes {
		if profiles[code].MatchesFile(filePath) {
			matched = append(matched, profiles[code])
		}
	}

	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoProfile, filepath.Base(filePath))
	case 1:
		return matched[0], nil
	default:
		names := make([]string, len(matched))
		for i, p := range matched {
			names[i] = p.ProfileCode
		}
		return nil, fmt.Errorf("%w: %s (%s)", ErrAmbiguousProfile, filepath.Base(filePath), strings.Join(names, ", "))
	}
}

// ErrorLogEntries converts a result into error log entries, one per fatal
// finding plus one for a file-level error.
func ErrorLogEntries(result Result, now time.Time) []utils.ErrorLogEntry {
	fileName := filepath.Base(result.FilePath)
	var entries []utils.ErrorLogEntry

	for _, finding := range result.Findings {
		if !finding.IsFatal() {
			continue
		}
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     fileName,
			ErrorType:    "Validation",
			ErrorMessage: finding.Message,
			LineNumber:   finding.LineNumber,
			PartnerCode:  finding.PartnerCode,
			FieldName:    finding.Field,
			FieldValue:   finding.Value,
		})
	}

	if result.Error != nil {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     fileName,
			ErrorType:    "Processing",
			ErrorMessage: result.Error.Error(),
		})
	}

	return entries
}
