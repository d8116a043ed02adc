package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux serving /healthz. Feature modules register their own
// routes on it.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	return mux
}
