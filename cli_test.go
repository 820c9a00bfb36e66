package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/unirefcmp/internal/config"
	"github.com/yumyai/unirefcmp/pkg/db"
	"github.com/yumyai/unirefcmp/pkg/handler"
	"github.com/yumyai/unirefcmp/pkg/model"
)

// fakeService answers mapping requests keyed by "from:to:format:query" and
// bulk queries with a fixed list.
func fakeService(t *testing.T) *httptest.Server {
	t.Helper()
	answers := map[string]string{
		"ACC:ACC:list:P0AFL3":            "P0AFL3\n",
		"ACC:ACC:list:OLD123":            "P23869\n",
		"ACC:NF50:list:P0AFL3":           "UniRef50_P0AFL3\n",
		"ACC:NF50:list:P23869":           "UniRef50_P23869\n",
		"NF50:ACC:fasta:UniRef50_P0AFL3": ">sp|P0AFL3|PPIA_ECOLI\nMFKST\n>tr|Q00001|X\nMK\n",
		"NF50:ACC:fasta:UniRef50_P23869": ">sp|P23869|PPIB_ECOLI\nMVTFH\n>tr|Q00001|X\nMK\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/uniprot/" {
			fmt.Fprint(w, "P0AFL3\nP23869\n")
			return
		}
		_ = r.ParseForm()
		key := fmt.Sprintf("%s:%s:%s:%s",
			r.PostForm.Get("from"), r.PostForm.Get("to"), r.PostForm.Get("format"), r.PostForm.Get("query"))
		fmt.Fprint(w, answers[key])
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testConfig returns a config pointing at srv with no backoff.
func testConfig(t *testing.T, srv *httptest.Server) *config.Config {
	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.DataDir = t.TempDir()
	cfg.BackoffUnit = 0
	cfg.MaxAttempts = 2
	return cfg
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newCLIApp(cfg)
	app.Writer = &out
	err := app.Run(append([]string{"unirefcmp"}, args...))
	return out.String(), err
}

func TestCompareCommand(t *testing.T) {
	cfg := testConfig(t, fakeService(t))

	out, err := run(t, cfg, "compare", "--members", "P0AFL3", "OLD123")
	require.NoError(t, err)

	var summary model.ComparisonSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "P0AFL3", summary.A.ID)
	assert.Equal(t, "P23869", summary.B.ID)
	assert.Equal(t, "UniRef50_P23869", summary.B.ClusterID)
	assert.Equal(t, []string{"Q00001"}, summary.SharedMembers)
	assert.False(t, summary.SharedCluster)
}

func TestCompareCommand_NeedsTwoIDs(t *testing.T) {
	cfg := testConfig(t, fakeService(t))

	_, err := run(t, cfg, "compare", "P0AFL3")
	assert.Error(t, err)
}

func TestMapCommand(t *testing.T) {
	cfg := testConfig(t, fakeService(t))

	out, err := run(t, cfg, "map", "--query", "P0AFL3", "--to", "NF50", "--format", "list")
	require.NoError(t, err)
	assert.Equal(t, "UniRef50_P0AFL3\n", out)

	dest := filepath.Join(t.TempDir(), "nested", "map.txt")
	out, err = run(t, cfg, "map", "--query", "P0AFL3", "--to", "NF50", "--format", "list", "--out", dest)
	require.NoError(t, err)
	assert.Equal(t, dest+"\n", out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "UniRef50_P0AFL3\n", string(data))
}

func TestQueryAndJobsCommands(t *testing.T) {
	cfg := testConfig(t, fakeService(t))

	dest := filepath.Join(t.TempDir(), "ppia.list")
	out, err := run(t, cfg, "query", "--query", "gene:ppiA", "--limit", "2", "--out", dest)
	require.NoError(t, err)

	var job db.Job
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, db.JobCompleted, job.Status)
	assert.Equal(t, dest, job.Destination)
	assert.Equal(t, int64(14), job.Bytes)

	out, err = run(t, cfg, "jobs")
	require.NoError(t, err)
	var jobs []db.Job
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
}

func TestQueryCommand_InvalidLimit(t *testing.T) {
	cfg := testConfig(t, fakeService(t))

	_, err := run(t, cfg, "query", "--limit", "-1")
	assert.Error(t, err)
}

func TestNewRouter(t *testing.T) {
	srv := fakeService(t)
	cfg := testConfig(t, srv)

	conn, err := db.OpenMemory()
	require.NoError(t, err)
	defer conn.Close()

	mux := NewRouter(&handler.AppContext{
		Client: newClient(cfg),
		Jobs:   db.NewJobStore(conn),
	})

	tests := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/compare?a=P0AFL3&b=OLD123", http.StatusOK},
		{http.MethodGet, "/api/v1/jobs/nope", http.StatusNotFound},
		{http.MethodGet, "/favicon.ico", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/jobs", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.target)
	}
}

func TestQueryCommand_DefaultDestination(t *testing.T) {
	cfg := testConfig(t, fakeService(t))

	out, err := run(t, cfg, "query", "--query", "gene:ppiA", "--format", "fasta")
	require.NoError(t, err)

	var job db.Job
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, db.JobCompleted, job.Status)
	assert.Equal(t, filepath.Join(cfg.DownloadDir(), job.ID+".fasta"), job.Destination)
	assert.FileExists(t, job.Destination)
}

func TestQueryCommand_InMemoryLedger(t *testing.T) {
	cfg := testConfig(t, fakeService(t))
	dataDir := cfg.DataDir
	dest := filepath.Join(t.TempDir(), "ppia.list")

	out, err := run(t, cfg, "--data", "", "query", "--query", "gene:ppiA", "--out", dest)
	require.NoError(t, err)

	var job db.Job
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, db.JobCompleted, job.Status)
	assert.FileExists(t, dest)
	assert.Empty(t, cfg.DataDir)
	assert.NoDirExists(t, filepath.Join(dataDir, "db"))
}

func TestCompareCommand_SequencesWithoutMembers(t *testing.T) {
	cfg := testConfig(t, fakeService(t))

	out, err := run(t, cfg, "compare", "--sequences", "P0AFL3", "OLD123")
	require.NoError(t, err)

	var summary model.ComparisonSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.False(t, summary.WithMembers)
	assert.Empty(t, summary.A.Members)
}
