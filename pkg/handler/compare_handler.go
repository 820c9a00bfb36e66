package handler

import (
	"net/http"

	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/handler/request"
	"github.com/yumyai/unirefcmp/pkg/model"
	"github.com/yumyai/unirefcmp/pkg/render"
	"go.uber.org/zap"
)

// CompareAPI answers GET /api/v1/compare?a=&b=&members=
func (appctx *AppContext) CompareAPI(w http.ResponseWriter, r *http.Request) {

	req, err := request.ParseCompareRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	comparison, err := model.NewComparison(r.Context(), appctx.Client, req.ID_A, req.ID_B, req.WithMembers)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}

	writeSuccess(w, http.StatusOK, comparison.Summary(false))
}

// ComparePage renders the same comparison as HTML. Members are always fetched
// so the page can list them.
func (appctx *AppContext) ComparePage(w http.ResponseWriter, r *http.Request) {

	q := r.URL.Query()
	if q.Get("members") == "" {
		q.Set("members", "true")
	}

	req, err := request.ParseCompareRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Debug("Comparing", zap.String("a", req.ID_A), zap.String("b", req.ID_B))

	comparison, err := model.NewComparison(r.Context(), appctx.Client, req.ID_A, req.ID_B, req.WithMembers)
	if err != nil {
		logger.Error("Comparison failed", zap.Error(err))
		http.Error(w, err.Error(), StatusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderComparePage(w, comparison.Summary(false)); err != nil {
		logger.Error("Cannot render compare page", zap.Error(err))
	}
}
