package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/brainjam-arena/backend/types"
)

// Archive entries are "<kind>_<order>.in" / "<kind>_<order>.out" where
// kind is "sample" or "hidden" and orders are consecutive from 0
// within each kind.
var testCaseFilenamePattern = regexp.MustCompile(`^(sample|hidden)_(\d+)\.(in|out)$`)

const maxTestCaseFileBytes = 16 << 20

// ParseTestCaseArchive reads a tar.gz archive of test case files and
// returns the canonical test case list: samples first, then hidden
// cases, each ordered by their archive order. Every case must have
// both an .in and an .out file.
func ParseTestCaseArchive(filename string, data []byte) ([]types.TestCase, error) {
	if len(data) == 0 {
		return nil, errors.New("empty archive")
	}

	lower := strings.ToLower(strings.TrimSpace(filename))
	if !strings.HasSuffix(lower, ".tar.gz") && !strings.HasSuffix(lower, ".tgz") {
		return nil, errors.New("unsupported archive format, expected .tar.gz")
	}

	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New("invalid tar.gz archive")
	}
	defer gr.Close()

	type caseFiles struct {
		input    *string
		expected *string
	}
	cases := map[string]map[int]*caseFiles{
		"sample": {},
		"hidden": {},
	}

	tr := tar.NewReader(gr)
	count := 0
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New("invalid tar.gz archive")
		}
		if header.FileInfo().IsDir() {
			continue
		}
		if !header.FileInfo().Mode().IsRegular() {
			return nil, errors.New("archive contains unsupported entries")
		}

		base, err := cleanEntryName(header.Name)
		if err != nil {
			return nil, err
		}
		matches := testCaseFilenamePattern.FindStringSubmatch(base)
		if matches == nil {
			return nil, fmt.Errorf("invalid test case filename: %s", base)
		}
		kind := matches[1]
		order, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, fmt.Errorf("invalid test case filename: %s", base)
		}

		content, err := io.ReadAll(io.LimitReader(tr, maxTestCaseFileBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s", base)
		}
		if len(content) > maxTestCaseFileBytes {
			return nil, fmt.Errorf("test case file too large: %s", base)
		}
		text := string(content)

		files := cases[kind][order]
		if files == nil {
			files = &caseFiles{}
			cases[kind][order] = files
		}
		switch matches[3] {
		case "in":
			if files.input != nil {
				return nil, fmt.Errorf("duplicate test case input: %s", base)
			}
			files.input = &text
		case "out":
			if files.expected != nil {
				return nil, fmt.Errorf("duplicate test case output: %s", base)
			}
			files.expected = &text
		}
		count++
	}

	if count == 0 {
		return nil, errors.New("archive has no test cases")
	}

	testCases := make([]types.TestCase, 0)
	order := 0
	for _, kind := range []string{"sample", "hidden"} {
		byOrder := cases[kind]
		orders := make([]int, 0, len(byOrder))
		for o := range byOrder {
			orders = append(orders, o)
		}
		sort.Ints(orders)

		for expected, o := range orders {
			if o != expected {
				return nil, fmt.Errorf("%s test case orders must be consecutive from 0", kind)
			}
			files := byOrder[o]
			if files.input == nil || files.expected == nil {
				return nil, fmt.Errorf("test case %s_%d must have both .in and .out files", kind, o)
			}
			testCases = append(testCases, types.TestCase{
				Input:          *files.input,
				ExpectedOutput: *files.expected,
				IsSample:       kind == "sample",
				CaseOrder:      order,
			})
			order++
		}
	}

	return testCases, nil
}

func cleanEntryName(name string) (string, error) {
	clean := path.Clean(name)
	if clean == "." {
		return "", errors.New("invalid test case filename")
	}
	base := path.Base(clean)
	if base != clean {
		return "", errors.New("archive must not contain directories")
	}
	if strings.Contains(base, `\`) {
		return "", errors.New("invalid test case filename")
	}
	return base, nil
}
