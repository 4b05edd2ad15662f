package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/filingchat/internal/model"
)

var (
	// https://www.sec.gov/Archives/edgar/data/320193/000032019324000006/aapl-20231230.htm
	secArchiveRe = regexp.MustCompile(`sec\.gov/Archives/edgar/data/(\d+)/(\d+)/`)
	// exhibit21, ex-21, ex21, a10-kexhibit21109282024.htm
	exhibitFileRe   = regexp.MustCompile(`(?i)exhibit\d+|ex[-_]?\d+`)
	exhibitNumberRe = regexp.MustCompile(`(?i)(?:exhibit|ex[-_]?)(\d+)`)
	exhibitNameRe   = regexp.MustCompile(`EX-(\d+)`)
	htmlExtRe       = regexp.MustCompile(`(?i)\.(htm|html|txt)$`)
)

// Standard SEC exhibit type descriptions, used when the index carries none.
var exhibitDescriptions = map[string]string{
	"3":   "Articles of Incorporation/Bylaws",
	"4":   "Instruments Defining Rights of Security Holders",
	"10":  "Material Contracts",
	"14":  "Code of Ethics",
	"19":  "Insider Trading Policy",
	"21":  "Subsidiaries of the Registrant",
	"23":  "Consent of Experts and Counsel",
	"24":  "Power of Attorney",
	"31":  "Rule 13a-14(a) Certification",
	"32":  "Section 1350 Certification",
	"95":  "Mine Safety Disclosure",
	"97":  "Clawback Policy",
	"99":  "Additional Exhibits",
	"101": "Interactive Data Files",
}

type edgarIndex struct {
	Directory struct {
		Item []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"item"`
	} `json:"directory"`
}

// ParseCIKAccession extracts the CIK and accession number from an EDGAR
// archive URL. Returns false when the URL is not an archive path.
func ParseCIKAccession(sourceURL string) (string, string, bool) {
	match := secArchiveRe.FindStringSubmatch(sourceURL)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}

func (f *EDGARFetcher) ListExhibits(ctx context.Context, filingURL string) ([]model.Exhibit, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("filing_url", filingURL))
	cik, accession, ok := ParseCIKAccession(filingURL)
	if !ok {
		logger.Warn("cannot parse cik/accession from filing url")
		return nil, fmt.Errorf("not an edgar archive url: %s", filingURL)
	}
	baseURL := fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/", cik, accession)
	body, err := f.get(ctx, baseURL+"index.json")
	if err != nil {
		logger.Warn("fetch edgar index failed", zap.Error(err))
		return nil, err
	}
	var index edgarIndex
	if err := json.Unmarshal(body, &index); err != nil {
		logger.Warn("parse edgar index failed", zap.Error(err))
		return nil, fmt.Errorf("parse edgar index: %w", err)
	}

	var exhibits []model.Exhibit
	for _, item := range index.Directory.Item {
		if !exhibitFileRe.MatchString(item.Name) {
			continue
		}
		name := ParseExhibitName(item.Name)
		description := item.Description
		if description == "" {
			if match := exhibitNameRe.FindStringSubmatch(name); match != nil {
				description = exhibitDescription(match[1])
			}
		}
		if description == "" {
			description = name
		}
		exhibits = append(exhibits, model.Exhibit{
			Name:        name,
			Description: description,
			URL:         baseURL + item.Name,
		})
	}
	sort.Slice(exhibits, func(i, j int) bool {
		return exhibits[i].Name < exhibits[j].Name
	})
	logger.Info("exhibits listed", zap.Int("count", len(exhibits)))
	return exhibits, nil
}

// ParseExhibitName normalizes an exhibit filename into the EX-nn[.m] form,
// e.g. "a10-kexhibit31109282024.htm" -> "EX-31.1".
func ParseExhibitName(filename string) string {
	match := exhibitNumberRe.FindStringSubmatch(filename)
	if match == nil {
		return strings.ToUpper(htmlExtRe.ReplaceAllString(filename, ""))
	}
	digits := match[1]
	if len(digits) < 2 {
		return "EX-" + digits
	}
	num := digits[:2]
	if len(digits) > 2 {
		return fmt.Sprintf("EX-%s.%c", num, digits[2])
	}
	return "EX-" + num
}

func exhibitDescription(num string) string {
	base := strings.SplitN(num, ".", 2)[0]
	for _, key := range []string{base, prefix(base, 2), prefix(base, 1)} {
		if key == "" {
			continue
		}
		if desc, ok := exhibitDescriptions[key]; ok {
			return desc
		}
	}
	return ""
}

func prefix(s string, n int) string {
	if len(s) < n {
		return ""
	}
	return s[:n]
}
