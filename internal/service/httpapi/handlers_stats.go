package httpapi

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.reports.Dashboard()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSalesReport(w http.ResponseWriter, _ *http.Request) {
	rows, err := s.reports.SalesReport()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
