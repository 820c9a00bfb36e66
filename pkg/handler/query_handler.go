package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/db"
	"github.com/yumyai/unirefcmp/pkg/handler/request"
	"github.com/yumyai/unirefcmp/pkg/render"
	"github.com/yumyai/unirefcmp/pkg/uniprot"
	"go.uber.org/zap"
)

// StartQueryHandler accepts the fields of a bulk query as a form, records a
// job and runs the download in the background.
func (appctx *AppContext) StartQueryHandler(w http.ResponseWriter, r *http.Request) {

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid form: %w", err))
		return
	}

	q, err := request.ParseQueryRequest(r.Form)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	job, err := appctx.StartQuery(q)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}

	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	writeSuccess(w, http.StatusAccepted, job)
}

// StartQuery records a queued job for q and downloads it in the background
// into DownloadDir.
func (appctx *AppContext) StartQuery(q uniprot.QueryRequest) (*db.Job, error) {
	if err := q.Validate(); err != nil {
		return nil, &badRequestError{err}
	}

	id := uuid.NewString()
	dest := filepath.Join(appctx.DownloadDir, DownloadFileName(id, q))

	job, err := appctx.Jobs.CreateJob(appctx.baseContext(), id, appctx.Client.QueryURL(q), dest)
	if err != nil {
		return nil, err
	}

	appctx.running.Add(1)
	go func() {
		defer appctx.running.Done()
		_ = appctx.RunQuery(appctx.baseContext(), job.ID, q, dest)
	}()

	return job, nil
}

// RunQuery downloads q into dest and keeps job jobID in step with the
// outcome. The download error, if any, is also returned.
func (appctx *AppContext) RunQuery(ctx context.Context, jobID string, q uniprot.QueryRequest, dest string) error {
	if err := appctx.Jobs.SetRunning(ctx, jobID); err != nil {
		logger.Error("Cannot mark job running", zap.String("job_id", jobID), zap.Error(err))
	}

	_, err := appctx.Client.Query(ctx, q, dest)
	if err == nil {
		var info os.FileInfo
		if info, err = os.Stat(dest); err == nil {
			if cerr := appctx.Jobs.CompleteJob(context.WithoutCancel(ctx), jobID, info.Size()); cerr != nil {
				logger.Error("Cannot complete job", zap.String("job_id", jobID), zap.Error(cerr))
			}
			return nil
		}
	}

	logger.Warn("Query job failed", zap.String("job_id", jobID), zap.Error(err))
	if ferr := appctx.Jobs.FailJob(context.WithoutCancel(ctx), jobID, err); ferr != nil {
		logger.Error("Cannot fail job", zap.String("job_id", jobID), zap.Error(ferr))
	}
	return err
}

// GetJobHandler answers GET /api/v1/jobs/{job_id}
func (appctx *AppContext) GetJobHandler(w http.ResponseWriter, r *http.Request) {

	job, err := appctx.Jobs.GetJob(r.Context(), r.PathValue("job_id"))
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}

	writeSuccess(w, http.StatusOK, job)
}

// ListJobsHandler answers GET /api/v1/jobs
func (appctx *AppContext) ListJobsHandler(w http.ResponseWriter, r *http.Request) {

	jobs, err := appctx.Jobs.ListJobs(r.Context(), 0)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}

	writeSuccess(w, http.StatusOK, jobs)
}

// JobPage shows a job and reloads itself until the download is done.
func (appctx *AppContext) JobPage(w http.ResponseWriter, r *http.Request) {

	job, err := appctx.Jobs.GetJob(r.Context(), r.PathValue("job_id"))
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}

	data := render.JobPageData{
		JobID:                  job.ID,
		URL:                    job.URL,
		Destination:            job.Destination,
		Status:                 string(job.Status),
		Bytes:                  job.Bytes,
		ErrorMessage:           job.Error,
		ShouldRefresh:          !job.Done(),
		RefreshIntervalSeconds: appctx.refreshSeconds(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderJobPage(w, data); err != nil {
		logger.Error("Cannot render job page", zap.Error(err))
	}
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func isBadRequest(err error) bool {
	var bad *badRequestError
	return errors.As(err, &bad)
}

// DownloadFileName names the file a query job downloads into, e.g.
// "<id>.fasta.gz".
func DownloadFileName(id string, q uniprot.QueryRequest) string {
	ext := q.Format
	if ext == "" {
		ext = uniprot.FormatList
	}
	if q.Compress {
		ext += ".gz"
	}
	return id + "." + ext
}
