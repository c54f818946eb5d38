package handlers

import (
	"net/http"
	"time"

	"captzio/internal/domain"
	"captzio/internal/middleware"
	"captzio/internal/service"
)

type captionResponse struct {
	ID               string                  `json:"id"`
	Captions         []domain.CaptionVariant `json:"captions"`
	CreditsUsed      int                     `json:"creditsUsed"`
	CreditsRemaining int                     `json:"creditsRemaining"`
}

type captionDTO struct {
	ID          string    `json:"id"`
	Caption     string    `json:"caption"`
	CTA         string    `json:"cta"`
	Hashtags    []string  `json:"hashtags"`
	Tone        string    `json:"tone"`
	Platform    string    `json:"platform"`
	Goal        string    `json:"goal,omitempty"`
	CreditsUsed int       `json:"creditsUsed"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a *App) CaptionsGenerate(w http.ResponseWriter, r *http.Request) {
	var params service.CaptionParams
	if err := decode(r, &params); err != nil {
		a.fail(w, r, err)
		return
	}
	params.Locale = middleware.LocaleFromContext(r.Context())

	res, err := a.Captions.Generate(r.Context(), currentAccount(r), params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, captionResponse{
		ID:               res.Record.ID,
		Captions:         res.Variants,
		CreditsUsed:      res.CreditsUsed,
		CreditsRemaining: res.CreditsRemaining,
	})
}

func (a *App) CaptionHistory(w http.ResponseWriter, r *http.Request) {
	account := currentAccount(r)
	records, err := a.Captions.ListCaptions(r.Context(), account.ID, historyLimit(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]captionDTO, 0, len(records))
	for _, rec := range records {
		hashtags := rec.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}
		items = append(items, captionDTO{
			ID:          rec.ID,
			Caption:     rec.Caption,
			CTA:         rec.CTA,
			Hashtags:    hashtags,
			Tone:        rec.Tone,
			Platform:    rec.Platform,
			Goal:        rec.Goal,
			CreditsUsed: rec.CreditsUsed,
			CreatedAt:   rec.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
