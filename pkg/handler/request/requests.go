package request

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yumyai/unirefcmp/pkg/uniprot"
)

// Compare two proteins
type CompareRequest struct {
	ID_A        string `json:"a"`
	ID_B        string `json:"b"`
	WithMembers bool   `json:"members"`
}

func ParseCompareRequest(q url.Values) (CompareRequest, error) {
	req := CompareRequest{
		ID_A: strings.TrimSpace(q.Get("a")),
		ID_B: strings.TrimSpace(q.Get("b")),
	}
	if req.ID_A == "" || req.ID_B == "" {
		return req, fmt.Errorf("both a and b identifiers are required")
	}

	if raw := q.Get("members"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("members need to be bool-like string")
		}
		req.WithMembers = b
	}
	return req, nil
}

// ParseMappingRequest reads the five mapping fields from q. Empty fields are
// left for the client defaults.
func ParseMappingRequest(q url.Values) (uniprot.MappingRequest, error) {
	req := uniprot.MappingRequest{
		Query:   strings.TrimSpace(q.Get("query")),
		From:    q.Get("from"),
		To:      q.Get("to"),
		Format:  q.Get("format"),
		Columns: q.Get("columns"),
	}
	if req.Query == "" {
		return req, fmt.Errorf("query is required")
	}
	return req, nil
}

// ParseQueryRequest reads a bulk query from form or query values. include and
// compress accept yes/no as well as anything strconv.ParseBool understands.
func ParseQueryRequest(q url.Values) (uniprot.QueryRequest, error) {
	req := uniprot.QueryRequest{
		Query:   q.Get("query"),
		Format:  q.Get("format"),
		Columns: q.Get("columns"),
	}

	var errorMessages []string
	var err error

	if req.IncludeIsoforms, err = parseYesNo(q.Get("include")); err != nil {
		errorMessages = append(errorMessages, "Invalid include value")
	}
	if req.Compress, err = parseYesNo(q.Get("compress")); err != nil {
		errorMessages = append(errorMessages, "Invalid compress value")
	}
	if req.Limit, err = parseNonNegative(q.Get("limit")); err != nil {
		errorMessages = append(errorMessages, "Invalid limit value")
	}
	if req.Offset, err = parseNonNegative(q.Get("offset")); err != nil {
		errorMessages = append(errorMessages, "Invalid offset value")
	}

	if len(errorMessages) > 0 {
		return req, fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return req, nil
}

func parseYesNo(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "no":
		return false, nil
	case "yes":
		return true, nil
	}
	return strconv.ParseBool(v)
}

func parseNonNegative(v string) (int, error) {
	if strings.TrimSpace(v) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
