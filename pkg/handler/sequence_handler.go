package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/fasta"
	"go.uber.org/zap"
)

const defaultFastaWidth = 60

// GetSequenceByClusterIDHandler exports the members of a UniRef50 cluster as
// FASTA, one record per accession in sorted order.
func (appctx *AppContext) GetSequenceByClusterIDHandler(w http.ResponseWriter, r *http.Request) {

	cluster_id := strings.TrimSpace(r.URL.Query().Get("cluster_id"))
	if cluster_id == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("cluster_id is required"))
		return
	}

	width := defaultFastaWidth
	if raw := r.URL.Query().Get("width"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("width need to be an integer"))
			return
		}
		width = n
	}

	members, err := appctx.Client.ClusterMembers(r.Context(), cluster_id)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", cluster_id+".fasta"))
	if err := fasta.Write(w, members, width); err != nil {
		logger.Error("Cannot write FASTA", zap.String("cluster_id", cluster_id), zap.Error(err))
	}
}
