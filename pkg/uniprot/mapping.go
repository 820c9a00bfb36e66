package uniprot

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/yumyai/unirefcmp/internal/util"
	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/fasta"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://www.uniprot.org"

// Database and format names understood by the mapping service. They are
// passed through unchecked; these are just the ones used here.
const (
	DBAccession = "ACC"
	DBUniRef50  = "NF50"

	FormatList  = "list"
	FormatFasta = "fasta"
)

// MappingRequest describes one call to the identifier mapping service.
// Query holds one or more identifiers separated by whitespace or newlines.
// Empty From, To and Format fall back to ACC, ACC and fasta.
type MappingRequest struct {
	Query   string
	From    string
	To      string
	Format  string
	Columns string

	// Destination is only used by MapIdentifiersToFile.
	Destination string
}

// Form encodes the request as the five form fields the service expects.
func (m MappingRequest) Form() url.Values {
	from, to, format := m.From, m.To, m.Format
	if from == "" {
		from = DBAccession
	}
	if to == "" {
		to = DBAccession
	}
	if format == "" {
		format = FormatFasta
	}
	return url.Values{
		"query":   {m.Query},
		"from":    {from},
		"to":      {to},
		"format":  {format},
		"columns": {m.Columns},
	}
}

// Client talks to the mapping and bulk query endpoints of one UniProt host.
type Client struct {
	BaseURL   string
	Transport *Transport
}

func NewClient(baseURL string, transport *Transport) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if transport == nil {
		transport = NewTransport(nil)
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Transport: transport,
	}
}

func (c *Client) mappingURL() string {
	return c.BaseURL + "/uploadlists/"
}

// MapIdentifiers returns the raw mapping response.
func (c *Client) MapIdentifiers(ctx context.Context, req MappingRequest) (string, error) {
	logger.Debug("mapping identifiers",
		zap.String("query", req.Query), zap.String("from", req.From), zap.String("to", req.To))

	return c.Transport.Send(ctx, NewFormRequest(c.mappingURL(), req.Form()))
}

// MapIdentifiersToFile maps like MapIdentifiers, writes the response text to
// req.Destination (replacing any existing file) and returns that path.
func (c *Client) MapIdentifiersToFile(ctx context.Context, req MappingRequest) (string, error) {
	if req.Destination == "" {
		return "", &FilesystemError{Path: req.Destination, Err: os.ErrInvalid}
	}

	text, err := c.MapIdentifiers(ctx, req)
	if err != nil {
		return "", err
	}

	if err := util.EnsureParentDir(req.Destination); err != nil {
		return "", &FilesystemError{Path: req.Destination, Err: err}
	}
	if err := os.WriteFile(req.Destination, []byte(text), 0o644); err != nil {
		return "", &FilesystemError{Path: req.Destination, Err: err}
	}
	return req.Destination, nil
}

// Canonicalize maps an accession onto itself, which yields the current
// accession when the given one has been merged or renamed.
func (c *Client) Canonicalize(ctx context.Context, id string) (string, error) {
	return c.mapSingle(ctx, MappingRequest{
		Query:  id,
		From:   DBAccession,
		To:     DBAccession,
		Format: FormatList,
	})
}

// ClusterID returns the UniRef50 cluster the accession belongs to.
func (c *Client) ClusterID(ctx context.Context, id string) (string, error) {
	return c.mapSingle(ctx, MappingRequest{
		Query:  id,
		From:   DBAccession,
		To:     DBUniRef50,
		Format: FormatList,
	})
}

// ClusterMembers fetches every member of a UniRef50 cluster as FASTA and
// parses it.
func (c *Client) ClusterMembers(ctx context.Context, clusterID string) (fasta.Collection, error) {
	text, err := c.MapIdentifiers(ctx, MappingRequest{
		Query:  clusterID,
		From:   DBUniRef50,
		To:     DBAccession,
		Format: FormatFasta,
	})
	if err != nil {
		return nil, err
	}

	members, err := fasta.Parse(text)
	if err != nil {
		return nil, &MalformedResponseError{Msg: "cluster " + clusterID + " members", Err: err}
	}
	if len(members) == 0 {
		return nil, &MalformedResponseError{Msg: "cluster " + clusterID + " has no members"}
	}
	return members, nil
}

func (c *Client) mapSingle(ctx context.Context, req MappingRequest) (string, error) {
	text, err := c.MapIdentifiers(ctx, req)
	if err != nil {
		return "", err
	}

	id := firstListEntry(text)
	if id == "" {
		return "", &MalformedResponseError{
			Msg: "empty " + req.To + " list for " + strings.TrimSpace(req.Query),
		}
	}
	return id, nil
}

// firstListEntry trims a list-format response and returns its first line.
func firstListEntry(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return text
}
