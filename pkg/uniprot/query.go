package uniprot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yumyai/unirefcmp/logger"
	"go.uber.org/zap"
)

// QueryRequest is a free text query against the UniProtKB search endpoint.
// An empty Query matches every entry; Limit 0 means no limit.
type QueryRequest struct {
	Query           string
	Format          string
	Columns         string
	IncludeIsoforms bool
	Compress        bool
	Limit           int
	Offset          int
}

func (q QueryRequest) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", q.Limit)
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset must be >= 0, got %d", q.Offset)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// BuildQueryString glues the parameters as key=value pairs in the fixed order
// query, format, columns, include, compress, limit, offset. Spaces become '+'.
// Values are otherwise not escaped.
func BuildQueryString(q QueryRequest) string {
	format := q.Format
	if format == "" {
		format = FormatList
	}

	params := [][2]string{
		{"query", q.Query},
		{"format", format},
		{"columns", q.Columns},
		{"include", yesNo(q.IncludeIsoforms)},
		{"compress", yesNo(q.Compress)},
		{"limit", strconv.Itoa(q.Limit)},
		{"offset", strconv.Itoa(q.Offset)},
	}

	var sb strings.Builder
	for _, p := range params {
		sb.WriteString(p[0])
		sb.WriteByte('=')
		sb.WriteString(p[1])
		sb.WriteByte('&')
	}

	return strings.TrimSuffix(strings.ReplaceAll(sb.String(), " ", "+"), "&")
}

func (c *Client) QueryURL(q QueryRequest) string {
	return c.BaseURL + "/uniprot/?" + BuildQueryString(q)
}

// Query downloads the result of q into dest and returns dest.
func (c *Client) Query(ctx context.Context, q QueryRequest, dest string) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	if dest == "" {
		return "", &FilesystemError{Path: dest, Err: fmt.Errorf("empty destination path")}
	}

	target := c.QueryURL(q)
	logger.Debug("bulk query", zap.String("url", target), zap.String("dest", dest))

	n, err := c.Transport.Download(ctx, NewGetRequest(target), dest)
	if err != nil {
		return "", err
	}

	logger.Info("bulk query downloaded", zap.String("dest", dest), zap.Int64("bytes", n))
	return dest, nil
}
