// internal/pipeline/discovery.go

// Package pipeline discovers application bundles on disk and runs each
// one through extraction, assembly, validation, scoring and decision.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/models"
)

// Filename patterns for the six documents, matched case-sensitively
// inside each application directory.
var documentPatterns = map[models.DocumentKind]string{
	models.DocBankStatement:     "*bank_statement*.pdf",
	models.DocEmiratesID:        "*emirates_id*.png",
	models.DocEmploymentLetter:  "*employment_letter*.pdf",
	models.DocResume:            "*resume*.pdf",
	models.DocAssetsLiabilities: "*assets_liabilities*.xlsx",
	models.DocCreditReport:      "*credit_report*.json",
}

// Bundle is one application directory with whatever documents were found.
// Missing kinds are simply absent from Documents.
type Bundle struct {
	ApplicationID string
	Dir           string
	Documents     map[models.DocumentKind]string
}

// DiscoverBundle scans a single application directory. When a pattern
// matches more than one file the lexically first match wins, so repeated
// runs see the same bundle.
func DiscoverBundle(root, applicationID string) (*Bundle, error) {
	dir := filepath.Join(root, applicationID)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, commonerrors.NewApplicationNotFoundError(applicationID)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("application path %s is not a directory", dir)
	}

	bundle := &Bundle{
		ApplicationID: applicationID,
		Dir:           dir,
		Documents:     make(map[models.DocumentKind]string),
	}

	for kind, pattern := range documentPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s for %s: %w", pattern, applicationID, err)
		}
		if len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		bundle.Documents[kind] = matches[0]
	}

	return bundle, nil
}

// DiscoverApplications lists every application directory under root in
// lexical order. Non-directories at the top level are ignored.
func DiscoverApplications(root string) ([]Bundle, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read applications dir: %w", err)
	}

	var bundles []Bundle
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		bundle, err := DiscoverBundle(root, entry.Name())
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, *bundle)
	}

	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].ApplicationID < bundles[j].ApplicationID
	})

	return bundles, nil
}
