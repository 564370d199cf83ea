package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/contests/{contestID}/standings", handler.GetStandings)
	mux.HandleFunc("GET /v1/reports", handler.ListReports)
	mux.HandleFunc("GET /v1/reports/{reportID}", handler.GetReport)
	mux.HandleFunc("GET /v1/rooms/{roomID}/collections", handler.ListCollections)
	mux.HandleFunc("GET /v1/collections", handler.ListCollections)
	mux.HandleFunc("GET /v1/collections/{collectionID}", handler.GetCollection)
	mux.HandleFunc("GET /v1/collections/{collectionID}/teams", handler.ListFinalizedTeams)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/collections/{collectionID}/participation", RequireAuth(verifier, http.HandlerFunc(handler.SetParticipation)))
	mux.Handle("GET /v1/collections/{collectionID}/eligibility", RequireAuth(verifier, http.HandlerFunc(handler.GetEligibility)))
	mux.Handle("POST /v1/collections/{collectionID}/choices", RequireAuth(verifier, http.HandlerFunc(handler.SubmitChoice)))
	mux.Handle("POST /v1/collections/{collectionID}/manual-requests", RequireAuth(verifier, http.HandlerFunc(handler.SubmitManualRequest)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/admin/leaderboard/reports", RequireAdmin(verifier, http.HandlerFunc(handler.GenerateReport)))
	mux.Handle("POST /v1/admin/contests/refresh", RequireAdmin(verifier, http.HandlerFunc(handler.RefreshContests)))
	mux.Handle("POST /v1/admin/collections", RequireAdmin(verifier, http.HandlerFunc(handler.CreateCollection)))
	mux.Handle("PATCH /v1/admin/collections/{collectionID}", RequireAdmin(verifier, http.HandlerFunc(handler.UpdateCollection)))
	mux.Handle("DELETE /v1/admin/collections/{collectionID}", RequireAdmin(verifier, http.HandlerFunc(handler.DeleteCollection)))
	mux.Handle("POST /v1/admin/collections/{collectionID}/start-selection", RequireAdmin(verifier, http.HandlerFunc(handler.StartSelection)))
	mux.Handle("POST /v1/admin/collections/{collectionID}/pause", RequireAdmin(verifier, http.HandlerFunc(handler.PauseSelection)))
	mux.Handle("POST /v1/admin/collections/{collectionID}/resume", RequireAdmin(verifier, http.HandlerFunc(handler.ResumeSelection)))
	mux.Handle("POST /v1/admin/collections/{collectionID}/finalize", RequireAdmin(verifier, http.HandlerFunc(handler.FinalizeCollection)))
	mux.Handle("POST /v1/admin/collections/{collectionID}/unfinalize", RequireAdmin(verifier, http.HandlerFunc(handler.UnfinalizeCollection)))
	mux.Handle("GET /v1/admin/collections/{collectionID}/manual-requests", RequireAdmin(verifier, http.HandlerFunc(handler.ListManualRequests)))
	mux.Handle("POST /v1/admin/manual-requests/{requestID}/approve", RequireAdmin(verifier, http.HandlerFunc(handler.ApproveManualRequest)))
	mux.Handle("POST /v1/admin/manual-requests/{requestID}/reject", RequireAdmin(verifier, http.HandlerFunc(handler.RejectManualRequest)))
	mux.Handle("POST /v1/admin/teams", RequireAdmin(verifier, http.HandlerFunc(handler.ApproveManualTeam)))
	mux.Handle("PATCH /v1/admin/teams/{teamID}", RequireAdmin(verifier, http.HandlerFunc(handler.UpdateTeam)))
	mux.Handle("DELETE /v1/admin/teams/{teamID}", RequireAdmin(verifier, http.HandlerFunc(handler.DeleteTeam)))
	mux.Handle("DELETE /v1/admin/teams/{teamID}/members/{username}", RequireAdmin(verifier, http.HandlerFunc(handler.RemoveTeamMember)))
}
