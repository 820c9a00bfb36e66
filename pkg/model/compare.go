// Model for comparing two proteins through their UniRef50 clusters

package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/fasta"
	"go.uber.org/zap"
)

var ErrEmptyIdentifier = errors.New("identifier is empty")

// Mapper resolves identifiers against the mapping service.
// *uniprot.Client satisfies it.
type Mapper interface {
	Canonicalize(ctx context.Context, id string) (string, error)
	ClusterID(ctx context.Context, id string) (string, error)
	ClusterMembers(ctx context.Context, clusterID string) (fasta.Collection, error)
}

// Comparison holds everything resolved for a pair of proteins. It is filled
// once by NewComparison and never changes afterwards.
type Comparison struct {
	inputA, inputB     string
	idA, idB           string
	clusterA, clusterB string
	membersA, membersB fasta.Collection
	withMembers        bool
}

// NewComparison resolves both identifiers to their current accession, then
// to their UniRef50 cluster and, when withMembers is set, fetches the members
// of both clusters. Calls are made one after another and the first failure
// aborts the comparison.
func NewComparison(ctx context.Context, m Mapper, rawA, rawB string, withMembers bool) (*Comparison, error) {
	c := &Comparison{
		inputA:      strings.TrimSpace(rawA),
		inputB:      strings.TrimSpace(rawB),
		withMembers: withMembers,
	}
	if c.inputA == "" || c.inputB == "" {
		return nil, ErrEmptyIdentifier
	}

	var err error

	if c.idA, err = m.Canonicalize(ctx, c.inputA); err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w", c.inputA, err)
	}
	if c.idB, err = m.Canonicalize(ctx, c.inputB); err != nil {
		return nil, fmt.Errorf("canonicalize %s: %w", c.inputB, err)
	}

	if c.clusterA, err = m.ClusterID(ctx, c.idA); err != nil {
		return nil, fmt.Errorf("cluster of %s: %w", c.idA, err)
	}
	if c.clusterB, err = m.ClusterID(ctx, c.idB); err != nil {
		return nil, fmt.Errorf("cluster of %s: %w", c.idB, err)
	}

	if withMembers {
		if c.membersA, err = m.ClusterMembers(ctx, c.clusterA); err != nil {
			return nil, fmt.Errorf("members of %s: %w", c.clusterA, err)
		}
		if c.membersB, err = m.ClusterMembers(ctx, c.clusterB); err != nil {
			return nil, fmt.Errorf("members of %s: %w", c.clusterB, err)
		}
	}

	logger.Info("comparison resolved",
		zap.String("id_a", c.idA), zap.String("cluster_a", c.clusterA),
		zap.String("id_b", c.idB), zap.String("cluster_b", c.clusterB),
		zap.Int("members_a", len(c.membersA)), zap.Int("members_b", len(c.membersB)),
	)

	return c, nil
}

func (c *Comparison) IDA() string      { return c.idA }
func (c *Comparison) IDB() string      { return c.idB }
func (c *Comparison) ClusterA() string { return c.clusterA }
func (c *Comparison) ClusterB() string { return c.clusterB }

// MembersA returns a copy of cluster A's members, nil without members.
func (c *Comparison) MembersA() fasta.Collection { return copyCollection(c.membersA) }

// MembersB returns a copy of cluster B's members, nil without members.
func (c *Comparison) MembersB() fasta.Collection { return copyCollection(c.membersB) }

func (c *Comparison) WithMembers() bool { return c.withMembers }

// SharedCluster reports whether both proteins sit in the same UniRef50 cluster.
func (c *Comparison) SharedCluster() bool {
	return c.clusterA == c.clusterB
}

// SharedMembers lists the accessions present in both member sets, sorted.
func (c *Comparison) SharedMembers() []string {
	shared := make([]string, 0)
	for id := range c.membersA {
		if _, ok := c.membersB[id]; ok {
			shared = append(shared, id)
		}
	}
	sort.Strings(shared)
	return shared
}

// Summary flattens the comparison for JSON and templates. Sequences are only
// included when withSequences is set.
func (c *Comparison) Summary(withSequences bool) *ComparisonSummary {
	return &ComparisonSummary{
		A:             side(c.inputA, c.idA, c.clusterA, c.membersA, withSequences),
		B:             side(c.inputB, c.idB, c.clusterB, c.membersB, withSequences),
		SharedCluster: c.SharedCluster(),
		SharedMembers: c.SharedMembers(),
		WithMembers:   c.withMembers,
	}
}

func side(input, id, cluster string, members fasta.Collection, withSequences bool) ProteinSide {
	s := ProteinSide{
		InputID:     input,
		ID:          id,
		ClusterID:   cluster,
		MemberCount: len(members),
	}
	for _, mid := range members.IDs() {
		m := &Member{ID: mid, Length: len(members[mid])}
		if withSequences {
			m.Sequence = members[mid]
		}
		s.Members = append(s.Members, m)
	}
	return s
}

func copyCollection(src fasta.Collection) fasta.Collection {
	if src == nil {
		return nil
	}
	dst := make(fasta.Collection, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
