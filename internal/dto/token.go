package dto

import (
	"time"

	"disbroad/internal/domain"
)

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// TokenView is a token row joined with its device metadata, as shown to the
// owning user.
type TokenView struct {
	ID       string     `json:"id"`
	LastUsed time.Time  `json:"last_used"`
	Device   DeviceInfo `json:"device"`
}

func NewTokenView(t *domain.Token) TokenView {
	v := TokenView{ID: t.ID.String(), LastUsed: t.LastUsed}
	if t.Device != nil {
		v.Device = DeviceInfo{
			Name:       t.Device.Name,
			IP:         t.Device.IP,
			MAC:        t.Device.MAC,
			Language:   t.Device.Language,
			OS:         t.Device.OS,
			ScreenSize: t.Device.ScreenSize,
			Country:    t.Device.Country,
		}
	}
	return v
}
