package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/unirefcmp/pkg/fasta"
	"github.com/yumyai/unirefcmp/pkg/uniprot"
)

// fakeMapper answers from fixed tables and records the call sequence.
type fakeMapper struct {
	canonical map[string]string
	clusters  map[string]string
	members   map[string]fasta.Collection
	failOn    string
	calls     []string
}

func (f *fakeMapper) Canonicalize(_ context.Context, id string) (string, error) {
	f.calls = append(f.calls, "canonicalize:"+id)
	if f.failOn == "canonicalize:"+id {
		return "", fmt.Errorf("boom: %w", uniprot.ErrRetriesExhausted)
	}
	return f.canonical[id], nil
}

func (f *fakeMapper) ClusterID(_ context.Context, id string) (string, error) {
	f.calls = append(f.calls, "cluster:"+id)
	if f.failOn == "cluster:"+id {
		return "", fmt.Errorf("boom: %w", uniprot.ErrRetriesExhausted)
	}
	return f.clusters[id], nil
}

func (f *fakeMapper) ClusterMembers(_ context.Context, clusterID string) (fasta.Collection, error) {
	f.calls = append(f.calls, "members:"+clusterID)
	if f.failOn == "members:"+clusterID {
		return nil, &uniprot.MalformedResponseError{Msg: "bad fasta"}
	}
	return f.members[clusterID], nil
}

func newFakeMapper() *fakeMapper {
	return &fakeMapper{
		canonical: map[string]string{"P0AFL3": "P0AFL3", "OLD123": "P23869"},
		clusters:  map[string]string{"P0AFL3": "UniRef50_P0AFL3", "P23869": "UniRef50_P23869"},
		members: map[string]fasta.Collection{
			"UniRef50_P0AFL3": {"P0AFL3": "MFKST", "A0A140NCT3": "MFKSTLA", "Q00001": "MK"},
			"UniRef50_P23869": {"P23869": "MVTFH", "Q00001": "MK"},
		},
	}
}

func TestNewComparison_CallOrder(t *testing.T) {
	m := newFakeMapper()

	c, err := NewComparison(context.Background(), m, " P0AFL3 ", "OLD123", true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"canonicalize:P0AFL3",
		"canonicalize:OLD123",
		"cluster:P0AFL3",
		"cluster:P23869",
		"members:UniRef50_P0AFL3",
		"members:UniRef50_P23869",
	}, m.calls)

	assert.Equal(t, "P0AFL3", c.IDA())
	assert.Equal(t, "P23869", c.IDB())
	assert.Equal(t, "UniRef50_P0AFL3", c.ClusterA())
	assert.Equal(t, "UniRef50_P23869", c.ClusterB())
	assert.Len(t, c.MembersA(), 3)
	assert.Len(t, c.MembersB(), 2)
	assert.False(t, c.SharedCluster())
	assert.Equal(t, []string{"Q00001"}, c.SharedMembers())
}

func TestNewComparison_WithoutMembers(t *testing.T) {
	m := newFakeMapper()

	c, err := NewComparison(context.Background(), m, "P0AFL3", "P0AFL3", false)
	require.NoError(t, err)

	assert.Len(t, m.calls, 4)
	assert.Nil(t, c.MembersA())
	assert.Nil(t, c.MembersB())
	assert.True(t, c.SharedCluster())
	assert.Empty(t, c.SharedMembers())
	assert.False(t, c.WithMembers())
}

func TestNewComparison_StopsAtFirstFailure(t *testing.T) {
	tests := []struct {
		failOn    string
		wantCalls int
	}{
		{"canonicalize:P0AFL3", 1},
		{"canonicalize:OLD123", 2},
		{"cluster:P23869", 4},
		{"members:UniRef50_P0AFL3", 5},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			m := newFakeMapper()
			m.failOn = tt.failOn

			c, err := NewComparison(context.Background(), m, "P0AFL3", "OLD123", true)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Len(t, m.calls, tt.wantCalls)
		})
	}
}

func TestNewComparison_PropagatesErrorKind(t *testing.T) {
	m := newFakeMapper()
	m.failOn = "cluster:P0AFL3"

	_, err := NewComparison(context.Background(), m, "P0AFL3", "OLD123", false)
	assert.ErrorIs(t, err, uniprot.ErrRetriesExhausted)

	m = newFakeMapper()
	m.failOn = "members:UniRef50_P23869"
	_, err = NewComparison(context.Background(), m, "P0AFL3", "OLD123", true)
	var merr *uniprot.MalformedResponseError
	assert.True(t, errors.As(err, &merr))
}

func TestNewComparison_EmptyInput(t *testing.T) {
	m := newFakeMapper()

	_, err := NewComparison(context.Background(), m, "  ", "P0AFL3", false)
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
	assert.Empty(t, m.calls)
}

func TestComparison_MembersAreCopies(t *testing.T) {
	c, err := NewComparison(context.Background(), newFakeMapper(), "P0AFL3", "OLD123", true)
	require.NoError(t, err)

	members := c.MembersA()
	members["INJECTED"] = "XXX"
	delete(members, "P0AFL3")

	assert.Len(t, c.MembersA(), 3)
	assert.Contains(t, c.MembersA(), "P0AFL3")
}

func TestComparison_Summary(t *testing.T) {
	c, err := NewComparison(context.Background(), newFakeMapper(), "P0AFL3", "OLD123", true)
	require.NoError(t, err)

	s := c.Summary(false)
	assert.Equal(t, "OLD123", s.B.InputID)
	assert.Equal(t, "P23869", s.B.ID)
	assert.Equal(t, 3, s.A.MemberCount)
	require.Len(t, s.A.Members, 3)
	assert.Equal(t, "A0A140NCT3", s.A.Members[0].ID)
	assert.Equal(t, 7, s.A.Members[0].Length)
	assert.Empty(t, s.A.Members[0].Sequence)

	withSeq := c.Summary(true)
	assert.Equal(t, "MFKSTLA", withSeq.A.Members[0].Sequence)
}

// End to end against a stand-in mapping service.
func TestNewComparison_MockedService(t *testing.T) {
	answers := map[string]string{
		"ACC:ACC:list:P0AFL3":            "P0AFL3\n",
		"ACC:ACC:list:P23869":            "P23869\n",
		"ACC:NF50:list:P0AFL3":           "UniRef50_P0AFL3\n",
		"ACC:NF50:list:P23869":           "UniRef50_P23869\n",
		"NF50:ACC:fasta:UniRef50_P0AFL3": ">sp|P0AFL3|PPIA_ECOLI\nMFKST\nLAAM\n>tr|A0A140NCT3|X\nMFK\n",
		"NF50:ACC:fasta:UniRef50_P23869": ">sp|P23869|PPIB_ECOLI\nMVTFH\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		key := r.PostForm.Get("from") + ":" + r.PostForm.Get("to") + ":" +
			r.PostForm.Get("format") + ":" + r.PostForm.Get("query")
		fmt.Fprint(w, answers[key])
	}))
	defer srv.Close()

	tr := uniprot.NewTransport(srv.Client())
	tr.Sleep = func(context.Context, time.Duration) error { return nil }
	client := uniprot.NewClient(srv.URL, tr)

	c, err := NewComparison(context.Background(), client, "P0AFL3", "P23869", true)
	require.NoError(t, err)

	assert.Equal(t, "P0AFL3", c.IDA())
	assert.Equal(t, "P23869", c.IDB())
	assert.Equal(t, "UniRef50_P0AFL3", c.ClusterA())
	assert.Equal(t, "UniRef50_P23869", c.ClusterB())
	assert.Len(t, c.MembersA(), 2)
	assert.Len(t, c.MembersB(), 1)
	assert.Equal(t, "MFKSTLAAM", c.MembersA()["P0AFL3"])
}
