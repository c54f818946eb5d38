package domain

import "time"

// Caption tones, platforms and goals accepted by the caption generator.
var (
	CaptionTones     = []string{"profissional", "casual", "divertido", "inspirador", "persuasivo"}
	CaptionPlatforms = []string{"instagram", "facebook", "linkedin", "twitter", "tiktok"}
	CaptionGoals     = []string{"engajamento", "vendas", "divulgacao", "educativo"}
)

// CaptionVariant is one generated caption option.
type CaptionVariant struct {
	Caption  string   `json:"caption"`
	CTA      string   `json:"cta"`
	Hashtags []string `json:"hashtags"`
}

// CaptionRecord is the persisted result of a synchronous caption generation.
type CaptionRecord struct {
	ID          string
	OwnerID     string
	Caption     string
	Hashtags    []string
	CTA         string
	Tone        string
	Platform    string
	Goal        string
	CreditsUsed int
	CreatedAt   time.Time
}
