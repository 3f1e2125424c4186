package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/pivot/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic Classification
// ============================================================================
// Inspects raw rows (CSV, XLSX, SQL) and generates a schema.Config.
//
// Classification pipeline per column:
//   1. Sample values → detect type (number, time, bool, string)
//   2. Type + cardinality → classify role (dimension, measure, skipped)
//   3. Pattern matching → detect temporal columns and their layout
//   4. Cross-column check → detect parent/child hierarchies
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect (0 = all). Default: 1000
	RecoverColumns []string // Force-include columns that were auto-skipped
	Name           string   // Dataset name override
	Source         string   // Recorded as DiscoveredFrom
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV generates a schema.Config by inspecting CSV data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Source == "" {
		opt.Source = "CSV"
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: CSV has no header", ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}

	var rows [][]string
	for len(rows) < limit {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	return DiscoverFromRows(headers, rows, opt)
}

// DiscoverFromRows generates a schema.Config from a header and raw string
// rows. Every header becomes one FieldMeta, in column order.
func DiscoverFromRows(headers []string, rows [][]string, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrNoData)
	}
	if opt.SampleSize > 0 && len(rows) > opt.SampleSize {
		rows = rows[:opt.SampleSize]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrNoData)
	}

	columns := make([]columnAnalysis, len(headers))
	for i, header := range headers {
		columns[i] = analyzeColumn(strings.TrimSpace(header), i, rows)
	}

	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[strings.ToLower(col)] = true
	}
	for i := range columns {
		col := &columns[i]
		if col.role == RoleSkipped && col.recoverable && recoverSet[strings.ToLower(col.header)] {
			col.role = RoleDimension
			col.skipReason = ""
		}
	}

	detectHierarchies(columns, rows)

	config := &Config{
		Name:           opt.Name,
		DiscoveredFrom: opt.Source,
		DiscoveredAt:   time.Now().Format(time.RFC3339),
		SampledRows:    len(rows),
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}
	for _, col := range columns {
		config.Fields = append(config.Fields, col.toFieldMeta())
	}
	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnAnalysis struct {
	header      string
	index       int
	colType     engine.FieldType
	role        Role
	skipReason  string
	recoverable bool

	// Stats
	uniqueCount int
	totalCount  int
	nullCount   int
	sampleVals  []string
	hasDecimals bool

	// Special type detection
	isTemporal      bool
	temporalFormat  string
	timeLayout      string
	cardinalityHint string
	parent          string
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string) columnAnalysis {
	col := columnAnalysis{
		header:     header,
		index:      index,
		totalCount: len(rows),
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)

	for _, row := range rows {
		if index >= len(row) || IsNull(row[index]) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		values = append(values, val)
		uniqueSet[val] = true
	}

	col.uniqueCount = len(uniqueSet)

	if len(values) == 0 {
		col.role = RoleSkipped
		col.skipReason = "All values are empty/null"
		return col
	}

	col.sampleVals = collectSamples(uniqueSet, 10)

	// Step 1: Detect type
	col.colType, col.timeLayout = detectType(values)

	if col.colType == engine.TypeNumber {
		for _, v := range values {
			if strings.Contains(v, ".") {
				col.hasDecimals = true
				break
			}
		}
	}

	// Step 2: Detect temporal patterns BEFORE role classification
	switch col.colType {
	case engine.TypeTime:
		col.isTemporal = true
		col.temporalFormat = "date"
	case engine.TypeString:
		col.isTemporal, col.temporalFormat = detectTemporalPattern(col.sampleVals)
	case engine.TypeNumber:
		if !col.hasDecimals && isYearColumn(values) {
			col.isTemporal, col.temporalFormat = true, "yyyy"
		}
	}

	// Step 3: Classify role based on type + cardinality
	col.classifyRole()

	// Step 4: Set cardinality hint
	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}

	return col
}

// classifyRole determines dimension vs measure vs skip.
func (col *columnAnalysis) classifyRole() {
	totalRows := col.totalCount

	switch col.colType {
	case engine.TypeNumber:
		if col.isTemporal {
			col.role = RoleDimension
			return
		}
		if col.uniqueCount == totalRows && totalRows > 10 && !col.hasDecimals {
			// Every value unique → likely an ID
			col.role = RoleSkipped
			col.skipReason = "Unique per row, likely an ID column"
			col.recoverable = true
			return
		}
		// Continuous data is always a measure
		if col.hasDecimals {
			col.role = RoleMeasure
			return
		}
		// Few unique values AND a low ratio → coded dimension (e.g., priority 1-5)
		uniqueRatio := float64(col.uniqueCount) / float64(totalRows)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = RoleDimension
			return
		}
		col.role = RoleMeasure

	case engine.TypeTime, engine.TypeBool:
		col.role = RoleDimension

	default:
		if col.uniqueCount == totalRows && totalRows > 10 {
			// Every value unique → likely an ID or free text
			col.role = RoleSkipped
			col.skipReason = "Unique per row, likely an identifier"
			col.recoverable = true
			return
		}
		if col.uniqueCount > totalRows/2 && col.uniqueCount > 50 {
			col.role = RoleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values), not useful for grouping", col.uniqueCount)
			col.recoverable = true
			return
		}
		col.role = RoleDimension
	}
}

func (col *columnAnalysis) toFieldMeta() FieldMeta {
	meta := FieldMeta{
		Name:           col.header,
		DisplayName:    toDisplayName(col.header),
		Type:           col.colType,
		Role:           col.role,
		SampleValues:   col.sampleVals,
		Cardinality:    col.cardinalityHint,
		IsTemporal:     col.isTemporal,
		TemporalFormat: col.temporalFormat,
		TimeLayout:     col.timeLayout,
		Parent:         col.parent,
		SkipReason:     col.skipReason,
	}
	if col.role == RoleMeasure {
		meta.DefaultAggregate = defaultAggregate(col.header)
	}
	return meta
}

// Ratios and scores are averaged; everything else is summed.
var averagedHints = []string{"percent", "pct", "rate", "ratio", "score", "avg", "average"}

func defaultAggregate(header string) engine.AggregateFunc {
	lower := strings.ToLower(header)
	for _, hint := range averagedHints {
		if strings.Contains(lower, hint) {
			return engine.AggregateAvg
		}
	}
	return engine.AggregateSum
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for number/time/bool.
// For time columns the first matching layout is returned too.
func detectType(values []string) (engine.FieldType, string) {
	if len(values) == 0 {
		return engine.TypeString, ""
	}

	numCount := 0
	boolCount := 0
	layoutCount := make([]int, len(timeLayouts))

	for _, v := range values {
		if _, ok := ParseNumber(v); ok {
			numCount++
		}
		if _, ok := ParseBool(v); ok {
			boolCount++
		}
		for i, layout := range timeLayouts {
			if _, err := time.Parse(layout, v); err == nil {
				layoutCount[i]++
			}
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	if boolCount >= threshold {
		return engine.TypeBool, ""
	}
	for i, n := range layoutCount {
		if n >= threshold {
			return engine.TypeTime, timeLayouts[i]
		}
	}
	if numCount >= threshold {
		return engine.TypeNumber, ""
	}
	return engine.TypeString, ""
}

// Year-only values are kept numeric; see isYearColumn.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseNumber parses numbers as found in exports: thousands separators,
// a leading sign and a currency symbol are accepted.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// ParseBool accepts true/false and yes/no in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

// IsNull reports whether a raw cell is one of the null markers.
func IsNull(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "NULL", "N/A", "n/a", "NA", "-":
		return true
	}
	return false
}

// ============================================================================
// SPECIAL PATTERN DETECTION
// ============================================================================

var monthPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^[A-Z][a-z]{2}-\d{4}$`), "MMM-yyyy"},  // Jan-2026
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},           // 2026-01
	{regexp.MustCompile(`^Q[1-4]-\d{4}$`), "QN-yyyy"},          // Q1-2026
	{regexp.MustCompile(`^Q[1-4]\s+\d{4}$`), "QN yyyy"},        // Q1 2026
	{regexp.MustCompile(`^\d{4}$`), "yyyy"},                    // 2026
	{regexp.MustCompile(`^[A-Z][a-z]+ \d{4}$`), "MMMM yyyy"},   // January 2026
}

// detectTemporalPattern checks if values match known month/quarter/year patterns.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}

	for _, pattern := range monthPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(strings.TrimSpace(s)) {
				matches++
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, pattern.format
		}
	}

	return false, ""
}

// isYearColumn reports whether every value is a plausible four digit year.
func isYearColumn(values []string) bool {
	for _, v := range values {
		if len(v) != 4 {
			return false
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1900 || n > 2100 {
			return false
		}
	}
	return true
}

// ============================================================================
// HIERARCHY DETECTION
// ============================================================================

// detectHierarchies finds parent/child relationships between dimensions.
// If every value of dimension B maps to exactly one value of dimension A,
// and A has fewer unique values, then A is parent of B.
// When multiple valid parents exist, picks the closest (highest cardinality).
func detectHierarchies(columns []columnAnalysis, rows [][]string) {
	for i := range columns {
		child := &columns[i]
		if child.role != RoleDimension {
			continue
		}

		bestParent := ""
		bestParentUniques := 0

		for j := range columns {
			parent := &columns[j]
			if i == j || parent.role != RoleDimension {
				continue
			}
			if parent.uniqueCount >= child.uniqueCount {
				continue
			}
			if parent.uniqueCount <= bestParentUniques {
				continue
			}
			if isFunctionOf(rows, child.index, parent.index) {
				bestParent = parent.header
				bestParentUniques = parent.uniqueCount
			}
		}

		child.parent = bestParent
	}
}

// isFunctionOf reports whether every child value maps to exactly one parent
// value, over at least two distinct child values.
func isFunctionOf(rows [][]string, childIdx, parentIdx int) bool {
	childToParent := make(map[string]string)
	for _, row := range rows {
		if childIdx >= len(row) || parentIdx >= len(row) {
			continue
		}
		if IsNull(row[childIdx]) || IsNull(row[parentIdx]) {
			continue
		}
		child := strings.TrimSpace(row[childIdx])
		parent := strings.TrimSpace(row[parentIdx])

		if existing, ok := childToParent[child]; ok {
			if existing != parent {
				return false
			}
		} else {
			childToParent[child] = parent
		}
	}
	return len(childToParent) > 1
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "assignee" → "Assignee"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
