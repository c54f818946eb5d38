package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"captzio/internal/domain"
	"captzio/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type jobStatusResponse struct {
	Status string  `json:"status"`
	Result *string `json:"result"`
	Error  *string `json:"error"`
}

type jobDTO struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Style       string    `json:"style"`
	Quality     string    `json:"quality"`
	Format      string    `json:"format"`
	Status      string    `json:"status"`
	Result      *string   `json:"result"`
	Error       *string   `json:"error"`
	CreditsUsed int       `json:"creditsUsed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func historyLimit(r *http.Request) int {
	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit == 0 || limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

// ImagesSubmit reserves credits and queues an image job.
func (a *App) ImagesSubmit(w http.ResponseWriter, r *http.Request) {
	var req service.ImageRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	jobID, err := a.Images.Submit(r.Context(), currentAccount(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

func (a *App) ImageStatus(w http.ResponseWriter, r *http.Request) {
	account := currentAccount(r)
	snap, err := a.Images.GetStatus(r.Context(), chi.URLParam(r, "jobID"), account.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, jobStatusResponse{
		Status: string(snap.Status),
		Result: optional(snap.Result),
		Error:  optional(snap.Error),
	})
}

func (a *App) ImageHistory(w http.ResponseWriter, r *http.Request) {
	account := currentAccount(r)
	jobs, err := a.Images.ListJobs(r.Context(), account.ID, historyLimit(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]jobDTO, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, toJobDTO(j))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func toJobDTO(j domain.GenerationJob) jobDTO {
	return jobDTO{
		ID:          j.ID,
		Prompt:      j.Prompt,
		Style:       string(j.Style),
		Quality:     string(j.Quality),
		Format:      string(j.Format),
		Status:      string(j.Status),
		Result:      optional(j.ResultURL),
		Error:       optional(j.ErrorMessage),
		CreditsUsed: j.CreditsUsed,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
