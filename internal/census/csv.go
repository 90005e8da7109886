package census

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jengzang/popquery-backend-go/internal/models"
)

// Layout of the census block group file. The first line is a header; every
// other line has TokensPerLine comma separated fields.
const (
	TokensPerLine   = 7
	PopulationIndex = 4
	LatitudeIndex   = 5
	LongitudeIndex  = 6
)

// ParseError reports a malformed line in a census file
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("census: line %d: %s", e.Line, e.Reason)
}

// ParseCSV reads census records from r. The first line is skipped. Any line
// that does not hold exactly (population, latitude, longitude) at the expected
// positions aborts the parse with a *ParseError.
func ParseCSV(r io.Reader) ([]models.CensusRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var records []models.CensusRecord
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		rec, err := parseLine(text)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error()}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("census: failed to read input: %w", err)
	}
	return records, nil
}

func parseLine(text string) (models.CensusRecord, error) {
	tokens := strings.Split(text, ",")
	if len(tokens) != TokensPerLine {
		return models.CensusRecord{}, fmt.Errorf("expected %d fields, got %d", TokensPerLine, len(tokens))
	}

	pop, err := strconv.ParseInt(strings.TrimSpace(tokens[PopulationIndex]), 10, 64)
	if err != nil {
		return models.CensusRecord{}, fmt.Errorf("invalid population %q", tokens[PopulationIndex])
	}
	if pop < 0 {
		return models.CensusRecord{}, fmt.Errorf("negative population %d", pop)
	}
	lat, err := parseCoordinate(tokens[LatitudeIndex])
	if err != nil {
		return models.CensusRecord{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := parseCoordinate(tokens[LongitudeIndex])
	if err != nil {
		return models.CensusRecord{}, fmt.Errorf("invalid longitude: %w", err)
	}

	return models.CensusRecord{Population: pop, Latitude: lat, Longitude: lon}, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("coordinate must be finite")
	}
	return v, nil
}

// LoadFile parses the census file at path into a Store
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("census: failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ParseCSV(f)
	if err != nil {
		return nil, err
	}
	return NewStore(records), nil
}
