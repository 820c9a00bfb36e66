package handler

import (
	"fmt"
	"net/http"

	"github.com/yumyai/unirefcmp/pkg/handler/request"
)

// MapHandler forwards a single mapping request and returns the raw text the
// service produced.
func (appctx *AppContext) MapHandler(w http.ResponseWriter, r *http.Request) {

	req, err := request.ParseMappingRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	raw, err := appctx.Client.MapIdentifiers(r.Context(), req)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, raw)
}
